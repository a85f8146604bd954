package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 implements Store against an S3-compatible backend (AWS S3 or MinIO).
// Minimal surface area: single bucket, single object key holding the full
// snapshot.
type S3 struct {
	client *s3.Client
	bucket string
	key    string
}

// S3Config holds explicit construction parameters (mostly for tests). For
// prod we rely primarily on environment variables.
type S3Config struct {
	Region    string
	Bucket    string
	Key       string
	Endpoint  string // optional; enables custom endpoint (e.g. MinIO)
	PathStyle bool
}

// Environment variables:
//
//	LABCORE_BLOB_DRIVER=s3
//	LABCORE_BLOB_S3_BUCKET=<bucket> (required)
//	LABCORE_BLOB_S3_KEY=<object key> (default samples.json)
//	LABCORE_BLOB_S3_REGION=<region> (default us-east-1)
//	LABCORE_BLOB_S3_ENDPOINT=<url> (optional, for MinIO)
//	LABCORE_BLOB_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY (default credentials chain)

// NewS3 creates an S3 blob store from S3Config.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	key := cfg.Key
	if key == "" {
		key = "samples.json"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3{client: client, bucket: cfg.Bucket, key: key}, nil
}

// OpenS3FromEnv constructs an S3 store from environment variables.
func OpenS3FromEnv(ctx context.Context) (*S3, error) {
	return NewS3(ctx, S3Config{
		Region:    os.Getenv("LABCORE_BLOB_S3_REGION"),
		Bucket:    os.Getenv("LABCORE_BLOB_S3_BUCKET"),
		Key:       os.Getenv("LABCORE_BLOB_S3_KEY"),
		Endpoint:  os.Getenv("LABCORE_BLOB_S3_ENDPOINT"),
		PathStyle: envBool("LABCORE_BLOB_S3_PATH_STYLE"),
	})
}

// Driver returns the blob driver identifier.
func (s *S3) Driver() Driver { return DriverS3 }

// Load fetches the snapshot object. A missing key reports ok=false.
func (s *S3) Load(ctx context.Context) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save overwrites the snapshot object.
func (s *S3) Save(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

const defaultSubjectPrefix = "labcore.notify"

// NATSSender publishes notifications to per-target NATS subjects. The
// conversational layer subscribes to <prefix>.<target> and forwards the
// payload to the chat.
type NATSSender struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSSender connects to the NATS server at url. An empty prefix falls
// back to the default subject prefix.
func NewNATSSender(url, prefix string) (*NATSSender, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	conn, err := nats.Connect(url, nats.Name("labcore"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSSender{conn: conn, prefix: prefix}, nil
}

// Send publishes the message to the target's subject.
func (s *NATSSender) Send(_ context.Context, target Target, message string) error {
	subject := fmt.Sprintf("%s.%s", s.prefix, target)
	return s.conn.Publish(subject, []byte(message))
}

// Close flushes and drops the connection.
func (s *NATSSender) Close() {
	_ = s.conn.Flush()
	s.conn.Close()
}

package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports an input rejected before any mutation took place:
// an unknown department or test name, or an empty test selection.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// PermissionDeniedError reports that the requester's role lacks the
// capability for the attempted action.
type PermissionDeniedError struct {
	Role   Role
	Action string
}

func (e PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: role %s cannot %s", e.Role, e.Action)
}

// InvalidTransitionError reports a status change not permitted from the
// current state for the requester's role.
type InvalidTransitionError struct {
	From TestStatus
	To   TestStatus
	Role Role
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: role %s cannot move %q to %q", e.Role, e.From, e.To)
}

// NotFoundError reports an unknown sample index, test index, or identity.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Ref)
}

// AuthFailure distinguishes the two credential check outcomes.
type AuthFailure string

// Authentication failure reasons.
const (
	AuthUnknownIdentity AuthFailure = "unknown identity"
	AuthWrongSecret     AuthFailure = "wrong secret"
)

// AuthError reports a failed credential check.
type AuthError struct {
	Reason AuthFailure
}

func (e AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// PersistenceError wraps a failure in the snapshot persister. The in-memory
// collection is reverted before this surfaces, so store state stays
// consistent with the last durable snapshot.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// IsPermissionDenied reports whether err is a PermissionDeniedError.
func IsPermissionDenied(err error) bool {
	var pd PermissionDeniedError
	return errors.As(err, &pd)
}

package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := PersistenceError{Op: "save", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	wrapped := fmt.Errorf("append: %w", err)
	var pe PersistenceError
	if !errors.As(wrapped, &pe) || pe.Op != "save" {
		t.Fatalf("expected PersistenceError through wrapping, got %v", wrapped)
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsNotFound(NotFoundError{Kind: "sample", Ref: "#3"}) {
		t.Fatalf("expected NotFoundError to satisfy IsNotFound")
	}
	if !IsPermissionDenied(fmt.Errorf("op: %w", PermissionDeniedError{Role: RoleViewer, Action: "delete sample"})) {
		t.Fatalf("expected wrapped PermissionDeniedError to satisfy IsPermissionDenied")
	}
	if IsNotFound(AuthError{Reason: AuthWrongSecret}) {
		t.Fatalf("auth error must not satisfy IsNotFound")
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ValidationError{Field: "department", Message: `unknown department "42"`}, `validation: department: unknown department "42"`},
		{InvalidTransitionError{From: StatusCompleted, To: StatusTransferred, Role: RoleLabTech}, `invalid transition: role labtech cannot move "tested" to "transferred for testing"`},
		{AuthError{Reason: AuthUnknownIdentity}, "authentication failed: unknown identity"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("message mismatch:\n got %q\nwant %q", got, tc.want)
		}
	}
}

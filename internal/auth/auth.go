// Package auth validates static credentials, tracks active authenticated
// principals, and maintains the role to subscriber-target registry consumed
// by the notification dispatcher.
package auth

import (
	"sync"

	"github.com/google/uuid"

	"labcore/internal/notify"
	"labcore/pkg/domain"
)

// Credential is one row of the static credential table.
type Credential struct {
	Secret      string
	Role        domain.Role
	DisplayName string
}

// Credentials maps identity to its credential. The table is fixed
// configuration; it is never mutated at runtime.
type Credentials map[string]Credential

type session struct {
	principal domain.Principal
	target    notify.Target
	hasTarget bool
}

// Session tracks logged-in principals and the role-keyed registry of
// delivery targets. Registry entries are added on login and removed on
// logout; nothing here survives a process restart.
type Session struct {
	mu       sync.Mutex
	creds    Credentials
	active   map[string]session
	registry map[domain.Role]map[notify.Target]struct{}
}

// NewSession constructs a session manager over the given credential table.
func NewSession(creds Credentials) *Session {
	return &Session{
		creds:    creds,
		active:   make(map[string]session),
		registry: make(map[domain.Role]map[notify.Target]struct{}),
	}
}

// Authenticate checks identity and secret against the credential table and
// returns a fresh principal. It does not register a session; see Login.
func (s *Session) Authenticate(identity, secret string) (domain.Principal, error) {
	cred, ok := s.creds[identity]
	if !ok {
		return domain.Principal{}, domain.AuthError{Reason: domain.AuthUnknownIdentity}
	}
	if cred.Secret != secret {
		return domain.Principal{}, domain.AuthError{Reason: domain.AuthWrongSecret}
	}
	display := cred.DisplayName
	if display == "" {
		display = identity
	}
	return domain.Principal{
		Identity:    identity,
		Role:        cred.Role,
		DisplayName: display,
		Token:       uuid.NewString(),
	}, nil
}

// Login records the principal as active and registers its delivery target
// under the principal's role. Registering an existing target is a no-op.
func (s *Session) Login(p domain.Principal, target notify.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[p.Identity] = session{principal: p, target: target, hasTarget: target != ""}
	if target == "" {
		return
	}
	targets, ok := s.registry[p.Role]
	if !ok {
		targets = make(map[notify.Target]struct{})
		s.registry[p.Role] = targets
	}
	targets[target] = struct{}{}
}

// Logout removes the identity's session and its subscriber target from the
// registry. Unknown identities are ignored.
func (s *Session) Logout(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.active[identity]
	if !ok {
		return
	}
	delete(s.active, identity)
	if sess.hasTarget {
		if targets, ok := s.registry[sess.principal.Role]; ok {
			delete(targets, sess.target)
		}
	}
}

// RoleOf returns the active role for identity, or RoleUnauthenticated when
// no session exists.
func (s *Session) RoleOf(identity string) domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.active[identity]
	if !ok {
		return domain.RoleUnauthenticated
	}
	return sess.principal.Role
}

// TargetsFor returns the union of delivery targets registered under the
// given roles, deduplicated, in unspecified order.
func (s *Session) TargetsFor(roles ...domain.Role) []notify.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[notify.Target]struct{})
	var out []notify.Target
	for _, role := range roles {
		for target := range s.registry[role] {
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			out = append(out, target)
		}
	}
	return out
}

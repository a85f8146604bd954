package service

import (
	"context"
	"fmt"

	"labcore/internal/notify"
	"labcore/pkg/domain"
)

// Command is the closed set of typed action variants accepted from the
// conversational layer. Each variant carries exactly the parameters its
// operation needs; there is no string-keyed routing.
type Command interface {
	isCommand()
}

// AuthenticateCommand logs an identity in and subscribes its target.
type AuthenticateCommand struct {
	Identity string
	Secret   string
	Target   notify.Target
}

// LogoutCommand ends an identity's session.
type LogoutCommand struct {
	Identity string
}

// CreateSampleCommand registers a new sample.
type CreateSampleCommand struct {
	Number     string
	Department domain.Department
	Tests      []domain.TestName
}

// SearchSamplesCommand finds samples by number substring.
type SearchSamplesCommand struct {
	Query string
}

// GetSampleCommand fetches one sample by index.
type GetSampleCommand struct {
	Index int
}

// DeleteSampleCommand removes one sample by index.
type DeleteSampleCommand struct {
	Index int
}

// ToggleUrgentCommand flips a sample's urgent flag.
type ToggleUrgentCommand struct {
	Index int
}

// ListTestsCommand lists the tests of one sample.
type ListTestsCommand struct {
	Index int
}

// SetTestStatusCommand transitions one test's status.
type SetTestStatusCommand struct {
	Index     int
	TestIndex int
	Status    domain.TestStatus
}

// GenerateReportCommand produces the structured daily report.
type GenerateReportCommand struct{}

func (AuthenticateCommand) isCommand()   {}
func (LogoutCommand) isCommand()         {}
func (CreateSampleCommand) isCommand()   {}
func (SearchSamplesCommand) isCommand()  {}
func (GetSampleCommand) isCommand()      {}
func (DeleteSampleCommand) isCommand()   {}
func (ToggleUrgentCommand) isCommand()   {}
func (ListTestsCommand) isCommand()      {}
func (SetTestStatusCommand) isCommand()  {}
func (GenerateReportCommand) isCommand() {}

// Dispatch routes a typed command to its operation. For everything except
// authentication the requester's role is resolved from the active session of
// identity; unauthenticated identities carry RoleUnauthenticated and are
// rejected by the role checks of the individual operations.
func (s *Service) Dispatch(ctx context.Context, identity string, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case AuthenticateCommand:
		return s.Authenticate(ctx, c.Identity, c.Secret, c.Target)
	case LogoutCommand:
		s.Logout(ctx, c.Identity)
		return nil, nil
	case CreateSampleCommand:
		return s.CreateSample(ctx, s.RoleOf(identity), c.Number, c.Department, c.Tests)
	case SearchSamplesCommand:
		return s.SearchSamples(ctx, s.RoleOf(identity), c.Query)
	case GetSampleCommand:
		return s.GetSample(ctx, s.RoleOf(identity), c.Index)
	case DeleteSampleCommand:
		return s.DeleteSample(ctx, s.RoleOf(identity), c.Index)
	case ToggleUrgentCommand:
		return s.ToggleUrgent(ctx, s.RoleOf(identity), c.Index)
	case ListTestsCommand:
		return s.ListTests(ctx, s.RoleOf(identity), c.Index)
	case SetTestStatusCommand:
		return s.SetTestStatus(ctx, s.RoleOf(identity), c.Index, c.TestIndex, c.Status)
	case GenerateReportCommand:
		return s.GenerateReport(ctx, s.RoleOf(identity))
	default:
		return nil, fmt.Errorf("unknown command %T", cmd)
	}
}

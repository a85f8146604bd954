package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labcore/internal/report"
	"labcore/internal/store"
	"labcore/pkg/domain"
)

func TestDispatchFullFlow(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	out, err := svc.Dispatch(ctx, "director", AuthenticateCommand{Identity: "director", Secret: "d", Target: "dir-chan"})
	require.NoError(t, err)
	principal, ok := out.(domain.Principal)
	require.True(t, ok)
	assert.Equal(t, domain.RoleDirector, principal.Role)

	out, err = svc.Dispatch(ctx, "director", CreateSampleCommand{Number: "D1", Department: "7", Tests: []domain.TestName{"рг", "хим"}})
	require.NoError(t, err)
	sample := out.(domain.Sample)
	assert.Equal(t, "D1", sample.Number)

	out, err = svc.Dispatch(ctx, "director", SearchSamplesCommand{Query: "d1"})
	require.NoError(t, err)
	matches := out.([]store.Match)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Index)

	out, err = svc.Dispatch(ctx, "director", ListTestsCommand{Index: 0})
	require.NoError(t, err)
	assert.Len(t, out.([]domain.Test), 2)

	out, err = svc.Dispatch(ctx, "director", SetTestStatusCommand{Index: 0, TestIndex: 0, Status: domain.StatusTransferred})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTransferred, out.(domain.Sample).Tests[0].Status)

	out, err = svc.Dispatch(ctx, "director", ToggleUrgentCommand{Index: 0})
	require.NoError(t, err)
	assert.True(t, out.(domain.Sample).Urgent)
	assert.Equal(t, []string{"Срочный образец: D1"}, rec.Sent("dir-chan"))

	out, err = svc.Dispatch(ctx, "director", GenerateReportCommand{})
	require.NoError(t, err)
	assert.Len(t, out.(report.Report).Tables, 4)

	out, err = svc.Dispatch(ctx, "director", DeleteSampleCommand{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, "D1", out.(domain.Sample).Number)

	out, err = svc.Dispatch(ctx, "director", LogoutCommand{Identity: "director"})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDispatchResolvesRoleFromSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	// No session yet: role checks reject the mutation.
	_, err := svc.Dispatch(ctx, "director", CreateSampleCommand{Number: "X1", Department: "5", Tests: []domain.TestName{"рг"}})
	assert.True(t, domain.IsPermissionDenied(err))

	_, err = svc.Dispatch(ctx, "viewer", AuthenticateCommand{Identity: "viewer", Secret: "v"})
	require.NoError(t, err)

	_, err = svc.Dispatch(ctx, "viewer", CreateSampleCommand{Number: "X1", Department: "5", Tests: []domain.TestName{"рг"}})
	assert.True(t, domain.IsPermissionDenied(err))
}

type bogusCommand struct{}

func (bogusCommand) isCommand() {}

func TestDispatchUnknownCommand(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Dispatch(context.Background(), "director", bogusCommand{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestDispatchGetSample(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Dispatch(ctx, "director", AuthenticateCommand{Identity: "director", Secret: "d"})
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx, "director", CreateSampleCommand{Number: "G1", Department: "3", Tests: []domain.TestName{"уд"}})
	require.NoError(t, err)

	out, err := svc.Dispatch(ctx, "director", GetSampleCommand{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, "G1", out.(domain.Sample).Number)

	_, err = svc.Dispatch(ctx, "director", GetSampleCommand{Index: 4})
	assert.True(t, domain.IsNotFound(err))
}

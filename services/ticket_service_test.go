package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participation-system/internal/status"
	"participation-system/models"
	"participation-system/store"
)

func ticketFixture(t *testing.T) (*store.Memory, *models.UserEvent, *TicketService) {
	t.Helper()
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Ticketed Event"})
	start := time.Now().Add(24 * time.Hour)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: start, Finish: start.Add(time.Hour)})

	membership, err := newParticipationService(mem).JoinEvent(context.Background(), "user-1", event.ID)
	require.NoError(t, err)
	return mem, membership, NewTicketService(mem, "test-ticket-secret", nil)
}

func TestTicketService_IssueVerifyRoundTrip(t *testing.T) {
	_, membership, service := ticketFixture(t)

	token, err := service.Issue(context.Background(), membership.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, membership.ID, claims.UserEventID)
	assert.Equal(t, membership.UserID, claims.UserID)
	assert.Equal(t, membership.EventID, claims.EventID)
	assert.NotEmpty(t, claims.Ref)
	assert.NotZero(t, claims.IssuedAt)
}

func TestTicketService_ReissueReturnsSameToken(t *testing.T) {
	mem, membership, service := ticketFixture(t)
	ctx := context.Background()

	first, err := service.Issue(ctx, membership.ID)
	require.NoError(t, err)
	second, err := service.Issue(ctx, membership.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := mem.UserEventByID(ctx, membership.ID)
	require.NoError(t, err)
	assert.Equal(t, first, stored.Ticket)
}

func TestTicketService_IssueUnknownMembershipIsNotFound(t *testing.T) {
	_, _, service := ticketFixture(t)

	_, err := service.Issue(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

func TestTicketService_VerifyRejectsTamperedPayload(t *testing.T) {
	_, membership, service := ticketFixture(t)

	token, err := service.Issue(context.Background(), membership.ID)
	require.NoError(t, err)

	// Swap the payload for a forged one while keeping the tag.
	_, tag, ok := strings.Cut(token, ".")
	require.True(t, ok)
	forged, err := service.Encode(models.TicketClaims{
		UserEventID: membership.ID,
		UserID:      "somebody-else",
		EventID:     membership.EventID,
		Ref:         "FORGED",
		IssuedAt:    time.Now().Unix(),
	})
	require.NoError(t, err)
	forgedPayload, _, _ := strings.Cut(forged, ".")

	_, err = service.Verify(forgedPayload + "." + tag)
	require.Error(t, err)
	assert.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestTicketService_VerifyRejectsWrongSecret(t *testing.T) {
	mem, membership, service := ticketFixture(t)

	token, err := service.Issue(context.Background(), membership.ID)
	require.NoError(t, err)

	other := NewTicketService(mem, "another-secret", nil)
	_, err = other.Verify(token)
	require.Error(t, err)
	assert.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestTicketService_VerifyRejectsMalformedTokens(t *testing.T) {
	_, _, service := ticketFixture(t)

	for _, token := range []string{
		"",
		"no-separator",
		"!!!.!!!",
		"bm90LWpzb24." + strings.Repeat("A", 43),
	} {
		_, err := service.Verify(token)
		require.Error(t, err, "token %q", token)
		assert.Equal(t, status.InvalidArgument, status.CodeOf(err))
	}
}

func TestTicketService_VerifyRejectsEmptyIdentity(t *testing.T) {
	_, _, service := ticketFixture(t)

	token, err := service.Encode(models.TicketClaims{Ref: "REF1", IssuedAt: time.Now().Unix()})
	require.NoError(t, err)

	_, err = service.Verify(token)
	require.Error(t, err)
	assert.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

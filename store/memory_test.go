package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participation-system/internal/status"
	"participation-system/models"
)

func TestMemory_UserEventUniqueness(t *testing.T) {
	mem := NewMemory()
	event := mem.AddEvent(models.Event{Name: "Event"})
	ctx := context.Background()

	_, err := mem.CreateUserEvent(ctx, &models.UserEvent{UserID: "u1", EventID: event.ID, Status: models.StatusPending})
	require.NoError(t, err)

	_, err = mem.CreateUserEvent(ctx, &models.UserEvent{UserID: "u1", EventID: event.ID, Status: models.StatusPending})
	require.Error(t, err)
	assert.Equal(t, status.AlreadyExists, status.CodeOf(err))

	// Same user on another event is fine.
	other := mem.AddEvent(models.Event{Name: "Other"})
	_, err = mem.CreateUserEvent(ctx, &models.UserEvent{UserID: "u1", EventID: other.ID, Status: models.StatusPending})
	require.NoError(t, err)
}

func TestMemory_AnswerUniqueness(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	_, err := mem.CreateAnswers(ctx, []models.Answer{{UserEventID: "ue1", QuestionID: "q1", Value: "5"}})
	require.NoError(t, err)

	_, err = mem.CreateAnswers(ctx, []models.Answer{{UserEventID: "ue1", QuestionID: "q1", Value: "4"}})
	require.Error(t, err)
	assert.Equal(t, status.AlreadyExists, status.CodeOf(err))
}

func TestMemory_TransactionRollsBackOnError(t *testing.T) {
	mem := NewMemory()
	event := mem.AddEvent(models.Event{Name: "Event"})
	ctx := context.Background()
	boom := errors.New("boom")

	err := mem.RunInTransaction(ctx, func(tx Store) error {
		if _, err := tx.CreateUserEvent(ctx, &models.UserEvent{UserID: "u1", EventID: event.ID, Status: models.StatusPending}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = mem.UserEventByUserAndEvent(ctx, "u1", event.ID)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

func TestMemory_TransactionCommitsOnSuccess(t *testing.T) {
	mem := NewMemory()
	event := mem.AddEvent(models.Event{Name: "Event"})
	ctx := context.Background()

	err := mem.RunInTransaction(ctx, func(tx Store) error {
		_, err := tx.CreateUserEvent(ctx, &models.UserEvent{UserID: "u1", EventID: event.ID, Status: models.StatusPending})
		return err
	})
	require.NoError(t, err)

	ue, err := mem.UserEventByUserAndEvent(ctx, "u1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, ue.Status)
}

func TestMemory_MinDurationStart(t *testing.T) {
	mem := NewMemory()
	event := mem.AddEvent(models.Event{Name: "Event"})
	ctx := context.Background()

	_, err := mem.MinDurationStart(ctx, event.ID)
	assert.Equal(t, status.NotFound, status.CodeOf(err))

	early := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: late, Finish: late.Add(time.Hour)})
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: early, Finish: early.Add(time.Hour)})

	start, err := mem.MinDurationStart(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, start.Equal(early))
}

func TestMemory_ActiveMembershipCountIgnoresRejected(t *testing.T) {
	mem := NewMemory()
	event := mem.AddEvent(models.Event{Name: "Event"})
	ctx := context.Background()

	for user, st := range map[string]string{
		"u1": models.StatusPending,
		"u2": models.StatusApproved,
		"u3": models.StatusRejected,
	} {
		_, err := mem.CreateUserEvent(ctx, &models.UserEvent{UserID: user, EventID: event.ID, Status: st})
		require.NoError(t, err)
	}

	count, err := mem.ActiveMembershipCount(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

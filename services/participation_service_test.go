package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participation-system/internal/status"
	"participation-system/models"
	"participation-system/store"
)

func openEvent(t *testing.T, mem *store.Memory, limit int) models.Event {
	t.Helper()
	event := mem.AddEvent(models.Event{Name: "Test Event", AttendeeLimit: limit})
	start := time.Now().Add(24 * time.Hour)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: start, Finish: start.Add(2 * time.Hour)})
	return event
}

func newParticipationService(mem *store.Memory) *ParticipationService {
	return NewParticipationService(mem, NewNotifyService(nil), nil)
}

func TestParticipationService_JoinCreatesPendingMembership(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 0)
	service := newParticipationService(mem)

	membership, err := service.JoinEvent(context.Background(), "user-1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", membership.UserID)
	assert.Equal(t, event.ID, membership.EventID)
	assert.Equal(t, models.StatusPending, membership.Status)
	assert.Nil(t, membership.Rating)
	assert.Empty(t, membership.Ticket)
}

func TestParticipationService_JoinTwiceIsAlreadyExists(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 0)
	service := newParticipationService(mem)
	ctx := context.Background()

	_, err := service.JoinEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)

	_, err = service.JoinEvent(ctx, "user-1", event.ID)
	require.Error(t, err)
	assert.Equal(t, status.AlreadyExists, status.CodeOf(err))
}

func TestParticipationService_ConcurrentJoinsOnlyOneSucceeds(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 0)
	service := newParticipationService(mem)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.JoinEvent(context.Background(), "user-1", event.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, status.AlreadyExists, status.CodeOf(err))
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestParticipationService_JoinClosedEventIsFailedPrecondition(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Started Event"})
	start := time.Now().Add(-time.Hour)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: start, Finish: start.Add(2 * time.Hour)})
	service := newParticipationService(mem)

	_, err := service.JoinEvent(context.Background(), "user-1", event.ID)
	require.Error(t, err)
	assert.Equal(t, status.FailedPrecondition, status.CodeOf(err))
}

func TestParticipationService_JoinUnscheduledEventIsNotFound(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Unscheduled"})
	service := newParticipationService(mem)

	_, err := service.JoinEvent(context.Background(), "user-1", event.ID)
	require.Error(t, err)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

func TestParticipationService_JoinFullEventIsResourceExhausted(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 2)
	service := newParticipationService(mem)
	ctx := context.Background()

	_, err := service.JoinEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)
	_, err = service.JoinEvent(ctx, "user-2", event.ID)
	require.NoError(t, err)

	_, err = service.JoinEvent(ctx, "user-3", event.ID)
	require.Error(t, err)
	assert.Equal(t, status.ResourceExhausted, status.CodeOf(err))
}

func TestParticipationService_RejectedMembershipFreesNoCapacity(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 1)
	service := newParticipationService(mem)
	ctx := context.Background()

	first, err := service.JoinEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)

	// A rejected membership no longer holds a seat.
	first.Status = models.StatusRejected
	require.NoError(t, mem.UpdateUserEvent(ctx, first))

	_, err = service.JoinEvent(ctx, "user-2", event.ID)
	assert.NoError(t, err)
}

func TestParticipationService_CancelReturnsEvent(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 0)
	service := newParticipationService(mem)
	ctx := context.Background()

	_, err := service.JoinEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)

	got, err := service.CancelEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, event.Name, got.Name)

	_, err = mem.UserEventByUserAndEvent(ctx, "user-1", event.ID)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

func TestParticipationService_CancelWithoutMembershipIsNotFound(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 0)
	service := newParticipationService(mem)

	_, err := service.CancelEvent(context.Background(), "user-1", event.ID)
	require.Error(t, err)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

func TestParticipationService_CancelThenRejoin(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 0)
	service := newParticipationService(mem)
	ctx := context.Background()

	_, err := service.JoinEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)
	_, err = service.CancelEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)

	membership, err := service.JoinEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, membership.Status)
}

func TestParticipationService_RateEvent(t *testing.T) {
	mem := store.NewMemory()
	event := openEvent(t, mem, 0)
	service := newParticipationService(mem)
	ctx := context.Background()

	membership, err := service.JoinEvent(ctx, "user-1", event.ID)
	require.NoError(t, err)

	// Pending memberships cannot rate yet.
	_, err = service.RateEvent(ctx, "user-1", event.ID, 4)
	assert.Equal(t, status.FailedPrecondition, status.CodeOf(err))

	membership.Status = models.StatusApproved
	require.NoError(t, mem.UpdateUserEvent(ctx, membership))

	_, err = service.RateEvent(ctx, "user-1", event.ID, 9)
	assert.Equal(t, status.InvalidArgument, status.CodeOf(err))

	rated, err := service.RateEvent(ctx, "user-1", event.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	// Ratings are write-once.
	_, err = service.RateEvent(ctx, "user-1", event.ID, 5)
	assert.Equal(t, status.AlreadyExists, status.CodeOf(err))
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participation-system/internal/status"
	"participation-system/models"
	"participation-system/store"
)

func TestEventService_SearchByName(t *testing.T) {
	mem := store.NewMemory()
	mem.AddEvent(models.Event{Name: "Robotics Workshop"})
	mem.AddEvent(models.Event{Name: "Chess Night"})
	mem.AddEvent(models.Event{Name: "Advanced Robotics"})
	service := NewEventService(mem)
	ctx := context.Background()

	events, err := service.SearchByName(ctx, "robotics")
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = service.SearchByName(ctx, "nothing matches this")
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = service.SearchByName(ctx, "   ")
	require.Error(t, err)
	assert.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestEventService_EventsSkipsUnknownIDs(t *testing.T) {
	mem := store.NewMemory()
	first := mem.AddEvent(models.Event{Name: "First"})
	second := mem.AddEvent(models.Event{Name: "Second"})
	service := NewEventService(mem)
	ctx := context.Background()

	events, err := service.Events(ctx, []string{first.ID, "missing", second.ID})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = service.Events(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventService_Suggested(t *testing.T) {
	mem := store.NewMemory()
	for i := 0; i < 5; i++ {
		mem.AddEvent(models.Event{Name: "Event"})
	}
	service := NewEventService(mem)
	ctx := context.Background()

	events, err := service.Suggested(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	// Asking for more than exist returns everything.
	events, err = service.Suggested(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, events, 5)

	_, err = service.Suggested(ctx, 0)
	require.Error(t, err)
	assert.Equal(t, status.InvalidArgument, status.CodeOf(err))
}

func TestEventService_UpcomingExcludesStartedEvents(t *testing.T) {
	mem := store.NewMemory()
	future := mem.AddEvent(models.Event{Name: "Future"})
	past := mem.AddEvent(models.Event{Name: "Past"})
	mem.AddDuration(models.EventDuration{EventID: future.ID, Start: time.Now().Add(time.Hour), Finish: time.Now().Add(2 * time.Hour)})
	mem.AddDuration(models.EventDuration{EventID: past.ID, Start: time.Now().Add(-time.Hour), Finish: time.Now()})
	mem.AddEvent(models.Event{Name: "Unscheduled"})

	events, err := NewEventService(mem).Upcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, future.ID, events[0].ID)
}

func TestEventService_ByTagAndFacility(t *testing.T) {
	mem := store.NewMemory()
	tagged := mem.AddEvent(models.Event{Name: "Tagged"})
	other := mem.AddEvent(models.Event{Name: "Other"})
	mem.AddEventTag(tagged.ID, "tag-1")
	mem.AddEventTag(other.ID, "tag-2")
	mem.AddFacilityRequest(tagged.ID, "facility-1")
	service := NewEventService(mem)
	ctx := context.Background()

	events, err := service.ByTag(ctx, "tag-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, tagged.ID, events[0].ID)

	events, err = service.ByFacility(ctx, "facility-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, tagged.ID, events[0].ID)

	events, err = service.ByFacility(ctx, "facility-none")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventService_ByLocation(t *testing.T) {
	mem := store.NewMemory()
	here := mem.AddEvent(models.Event{Name: "Here", LocationID: "loc-1"})
	mem.AddEvent(models.Event{Name: "Elsewhere", LocationID: "loc-2"})

	events, err := NewEventService(mem).ByLocation(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, here.ID, events[0].ID)
}

func TestEventService_Feedback(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "With Feedback"})
	service := NewEventService(mem)
	ctx := context.Background()

	created, err := service.CreateFeedback(ctx, event.ID, "great venue")
	require.NoError(t, err)
	assert.Equal(t, event.ID, created.EventID)

	_, err = service.CreateFeedback(ctx, event.ID, "  ")
	require.Error(t, err)
	assert.Equal(t, status.InvalidArgument, status.CodeOf(err))

	_, err = service.CreateFeedback(ctx, "missing-event", "text")
	require.Error(t, err)
	assert.Equal(t, status.NotFound, status.CodeOf(err))

	feedbacks, err := service.Feedbacks(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, feedbacks, 1)

	require.NoError(t, service.RemoveFeedback(ctx, created.ID))
	feedbacks, err = service.Feedbacks(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, feedbacks)

	err = service.RemoveFeedback(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

func TestEventService_SummaryAveragesWithDecimals(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Rated"})
	start := time.Now().Add(24 * time.Hour)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: start, Finish: start.Add(time.Hour)})

	participation := newParticipationService(mem)
	ctx := context.Background()
	for i, rating := range []int{4, 5, 5} {
		user := []string{"user-1", "user-2", "user-3"}[i]
		membership, err := participation.JoinEvent(ctx, user, event.ID)
		require.NoError(t, err)
		membership.Status = models.StatusApproved
		require.NoError(t, mem.UpdateUserEvent(ctx, membership))
		_, err = participation.RateEvent(ctx, user, event.ID, rating)
		require.NoError(t, err)
	}
	_, err := participation.JoinEvent(ctx, "user-4", event.ID)
	require.NoError(t, err)

	summary, err := NewEventService(mem).Summary(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, summary.EventID)
	assert.Equal(t, 3, summary.StatusCounts[models.StatusApproved])
	assert.Equal(t, 1, summary.StatusCounts[models.StatusPending])
	assert.Equal(t, 3, summary.RatingCount)
	assert.Equal(t, "4.67", summary.AverageRating)
}

func TestEventService_SummaryWithoutRatings(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Unrated"})

	summary, err := NewEventService(mem).Summary(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.RatingCount)
	assert.Empty(t, summary.AverageRating)
}

func TestEventService_DurationsRequireEvent(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Scheduled"})
	first := time.Now().Add(48 * time.Hour)
	second := time.Now().Add(24 * time.Hour)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: first, Finish: first.Add(time.Hour)})
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: second, Finish: second.Add(time.Hour)})
	service := NewEventService(mem)
	ctx := context.Background()

	durations, err := service.Durations(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, durations, 2)
	assert.True(t, durations[0].Start.Before(durations[1].Start))

	_, err = service.Durations(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

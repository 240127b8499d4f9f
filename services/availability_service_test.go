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

func TestAvailabilityService_StrictBoundary(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Open House"})
	start := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: start, Finish: start.Add(2 * time.Hour)})

	service := NewAvailabilityService(mem, nil)
	ctx := context.Background()

	before, err := service.IsEventAvailable(ctx, event.ID, start.Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, before, "one second before the earliest start the event is open")

	at, err := service.IsEventAvailable(ctx, event.ID, start)
	require.NoError(t, err)
	assert.False(t, at, "exactly at the earliest start the event is closed")

	after, err := service.IsEventAvailable(ctx, event.ID, start.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, after)
}

func TestAvailabilityService_EarliestWindowWins(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Recurring Workshop"})
	early := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 0, 7)
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: late, Finish: late.Add(time.Hour)})
	mem.AddDuration(models.EventDuration{EventID: event.ID, Start: early, Finish: early.Add(time.Hour)})

	service := NewAvailabilityService(mem, nil)

	// Between the two session starts the event already began, so it
	// reads as closed even though a later window is still ahead.
	open, err := service.IsEventAvailable(context.Background(), event.ID, early.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, open)
}

func TestAvailabilityService_NoDurationsIsNotFound(t *testing.T) {
	mem := store.NewMemory()
	event := mem.AddEvent(models.Event{Name: "Unscheduled"})

	service := NewAvailabilityService(mem, nil)

	_, err := service.IsEventAvailable(context.Background(), event.ID, time.Now())
	require.Error(t, err)
	assert.Equal(t, status.NotFound, status.CodeOf(err))
}

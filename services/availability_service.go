package services

import (
	"context"
	"time"

	"participation-system/monitoring"
	"participation-system/store"
)

type AvailabilityService struct {
	store   store.Store
	monitor *monitoring.Monitor
}

func NewAvailabilityService(st store.Store, monitor *monitoring.Monitor) *AvailabilityService {
	return &AvailabilityService{store: st, monitor: monitor}
}

// IsEventAvailable reports whether an event is still open for joining
// at ref. The earliest scheduled start is the closing boundary: open
// only while that start is strictly in the future. An event with no
// duration rows fails NOT_FOUND rather than reading as closed.
func (s *AvailabilityService) IsEventAvailable(ctx context.Context, eventID string, ref time.Time) (bool, error) {
	available, err := eventOpen(ctx, s.store, eventID, ref)
	if err != nil {
		return false, err
	}
	if s.monitor != nil {
		s.monitor.TrackAvailabilityCheck(available)
	}
	return available, nil
}

// eventOpen is the shared availability predicate. The join gate calls
// it against its own transaction so the decision and the insert see
// the same store state.
func eventOpen(ctx context.Context, st store.Store, eventID string, ref time.Time) (bool, error) {
	start, err := st.MinDurationStart(ctx, eventID)
	if err != nil {
		return false, err
	}
	return start.After(ref), nil
}

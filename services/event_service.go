package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"participation-system/internal/status"
	"participation-system/models"
	"participation-system/store"
)

// EventService is the mechanical retrieval surface: lookups, filtered
// lists, suggestions, and feedback. No participation invariants live
// here.
type EventService struct {
	store store.Store
}

func NewEventService(st store.Store) *EventService {
	return &EventService{store: st}
}

func (s *EventService) Event(ctx context.Context, id string) (*models.Event, error) {
	return s.store.EventByID(ctx, id)
}

func (s *EventService) Events(ctx context.Context, ids []string) ([]models.Event, error) {
	return s.store.EventsByIDs(ctx, ids)
}

func (s *EventService) SearchByName(ctx context.Context, name string) ([]models.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, status.InvalidArgumentf("search name must not be empty")
	}
	return s.store.SearchEventsByName(ctx, name)
}

func (s *EventService) ByOrganization(ctx context.Context, organizationID string) ([]models.Event, error) {
	return s.store.EventsByOrganization(ctx, organizationID)
}

func (s *EventService) ByTag(ctx context.Context, tagID string) ([]models.Event, error) {
	return s.store.EventsByTag(ctx, tagID)
}

func (s *EventService) ByFacility(ctx context.Context, facilityID string) ([]models.Event, error) {
	return s.store.EventsByFacility(ctx, facilityID)
}

func (s *EventService) ByLocation(ctx context.Context, locationID string) ([]models.Event, error) {
	return s.store.EventsByLocation(ctx, locationID)
}

func (s *EventService) Upcoming(ctx context.Context) ([]models.Event, error) {
	return s.store.UpcomingEvents(ctx, time.Now())
}

// Suggested returns a uniform random sample of n events from the whole
// event population.
func (s *EventService) Suggested(ctx context.Context, n int) ([]models.Event, error) {
	if n <= 0 {
		return nil, status.InvalidArgumentf("suggestion count must be positive, got %d", n)
	}
	return s.store.SuggestedEvents(ctx, n)
}

func (s *EventService) Durations(ctx context.Context, eventID string) ([]models.EventDuration, error) {
	if _, err := s.store.EventByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.DurationsByEvent(ctx, eventID)
}

// Feedback

func (s *EventService) CreateFeedback(ctx context.Context, eventID, text string) (*models.Feedback, error) {
	if strings.TrimSpace(text) == "" {
		return nil, status.InvalidArgumentf("feedback must not be empty")
	}
	if _, err := s.store.EventByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.CreateFeedback(ctx, &models.Feedback{EventID: eventID, Feedback: text})
}

func (s *EventService) RemoveFeedback(ctx context.Context, id string) error {
	return s.store.DeleteFeedback(ctx, id)
}

func (s *EventService) Feedbacks(ctx context.Context, eventID string) ([]models.Feedback, error) {
	if _, err := s.store.EventByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.FeedbacksByEvent(ctx, eventID)
}

// EventSummary aggregates participation for the admin dashboard.
type EventSummary struct {
	EventID       string         `json:"event_id"`
	StatusCounts  map[string]int `json:"status_counts"`
	RatingCount   int            `json:"rating_count"`
	AverageRating string         `json:"average_rating"` // 2dp, empty when unrated
}

// Summary computes participant counts and the exact average rating.
// The average uses decimal arithmetic so repeated aggregation never
// drifts the way float accumulation does.
func (s *EventService) Summary(ctx context.Context, eventID string) (*EventSummary, error) {
	if _, err := s.store.EventByID(ctx, eventID); err != nil {
		return nil, err
	}
	counts, err := s.store.MembershipCountsByStatus(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.store.RatingsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	summary := &EventSummary{
		EventID:      eventID,
		StatusCounts: counts,
		RatingCount:  len(ratings),
	}
	if len(ratings) > 0 {
		sum := decimal.Zero
		for _, r := range ratings {
			sum = sum.Add(decimal.NewFromInt(int64(r)))
		}
		summary.AverageRating = sum.DivRound(decimal.NewFromInt(int64(len(ratings))), 2).String()
	}
	return summary, nil
}

package services

import (
	"context"
	"log/slog"
	"time"

	"participation-system/internal/status"
	"participation-system/models"
	"participation-system/monitoring"
	"participation-system/store"
)

// ParticipationService owns the membership state machine:
// NO_MEMBERSHIP -> PENDING -> {APPROVED, REJECTED}, and cancel back to
// NO_MEMBERSHIP from any of them. Approval itself happens in an
// external workflow; this service only reads its result.
type ParticipationService struct {
	store   store.Store
	notify  *NotifyService
	monitor *monitoring.Monitor
}

func NewParticipationService(st store.Store, notify *NotifyService, monitor *monitoring.Monitor) *ParticipationService {
	return &ParticipationService{
		store:   st,
		notify:  notify,
		monitor: monitor,
	}
}

// JoinEvent creates a PENDING membership for (userID, eventID). The
// whole gate sequence runs in one transaction: availability first,
// then the duplicate check, then capacity, then the insert. The unique
// (user, event) index is the authoritative duplicate guard; the
// pre-check only produces a friendlier error for the common case.
func (s *ParticipationService) JoinEvent(ctx context.Context, userID, eventID string) (*models.UserEvent, error) {
	started := time.Now()
	var created *models.UserEvent

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		event, err := tx.EventByID(ctx, eventID)
		if err != nil {
			return err
		}

		open, err := eventOpen(ctx, tx, eventID, time.Now())
		if err != nil {
			return err
		}
		if !open {
			return status.FailedPreconditionf("event %q is no longer open for joining", eventID)
		}

		if _, err := tx.UserEventByUserAndEvent(ctx, userID, eventID); err == nil {
			return status.AlreadyExistsf("user %q already joined event %q", userID, eventID)
		} else if !status.Is(err, status.NotFound) {
			return err
		}

		if event.AttendeeLimit > 0 {
			count, err := tx.ActiveMembershipCount(ctx, eventID)
			if err != nil {
				return err
			}
			if count >= event.AttendeeLimit {
				return status.ResourceExhaustedf("event %q reached its attendee limit of %d", eventID, event.AttendeeLimit)
			}
		}

		created, err = tx.CreateUserEvent(ctx, &models.UserEvent{
			UserID:  userID,
			EventID: eventID,
			Status:  models.StatusPending,
		})
		return err
	})

	s.track("join", err, started)
	if err != nil {
		return nil, err
	}

	slog.Info("participant joined", "user_id", userID, "event_id", eventID, "membership_id", created.ID)
	s.notify.ParticipantJoined(created)
	return created, nil
}

// CancelEvent removes the membership and returns the event it referred
// to. The event read and the delete share one transaction.
func (s *ParticipationService) CancelEvent(ctx context.Context, userID, eventID string) (*models.Event, error) {
	started := time.Now()
	var event *models.Event

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		membership, err := tx.UserEventByUserAndEvent(ctx, userID, eventID)
		if err != nil {
			return err
		}
		event, err = tx.EventByID(ctx, eventID)
		if err != nil {
			return err
		}
		return tx.DeleteUserEvent(ctx, membership.ID)
	})

	s.track("cancel", err, started)
	if err != nil {
		return nil, err
	}

	slog.Info("participant canceled", "user_id", userID, "event_id", eventID)
	s.notify.ParticipantCanceled(eventID, userID)
	return event, nil
}

// RateEvent records a post-hoc rating on an APPROVED membership.
// Ratings are write-once.
func (s *ParticipationService) RateEvent(ctx context.Context, userID, eventID string, rating int) (*models.UserEvent, error) {
	started := time.Now()
	var updated *models.UserEvent

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if rating < 1 || rating > 5 {
			return status.InvalidArgumentf("rating must be between 1 and 5, got %d", rating)
		}
		membership, err := tx.UserEventByUserAndEvent(ctx, userID, eventID)
		if err != nil {
			return err
		}
		if membership.Status != models.StatusApproved {
			return status.FailedPreconditionf("only approved participants can rate, membership is %s", membership.Status)
		}
		if membership.Rating != nil {
			return status.AlreadyExistsf("event %q already rated by user %q", eventID, userID)
		}
		membership.Rating = &rating
		if err := tx.UpdateUserEvent(ctx, membership); err != nil {
			return err
		}
		updated = membership
		return nil
	})

	s.track("rating", err, started)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ParticipationService) track(operation string, err error, started time.Time) {
	if s.monitor == nil {
		return
	}
	s.monitor.TrackParticipation(operation, status.CodeOf(err).String())
	s.monitor.TrackDuration(operation, time.Since(started))
}

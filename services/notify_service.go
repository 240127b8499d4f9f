package services

import (
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"

	"participation-system/models"
)

// NotifyService broadcasts membership lifecycle changes on a per-event
// PubNub channel. Publishes are fire-and-forget; a failed publish is
// logged and never fails the operation that triggered it.
type NotifyService struct {
	pubnub *pubnub.PubNub
}

// NewNotifyService accepts a nil client, which disables publishing.
func NewNotifyService(pn *pubnub.PubNub) *NotifyService {
	return &NotifyService{pubnub: pn}
}

func (s *NotifyService) ParticipantJoined(membership *models.UserEvent) {
	s.publish(membership.EventID, map[string]any{
		"type":     "participant_joined",
		"event_id": membership.EventID,
		"user_id":  membership.UserID,
		"status":   membership.Status,
	})
}

func (s *NotifyService) ParticipantCanceled(eventID, userID string) {
	s.publish(eventID, map[string]any{
		"type":     "participant_canceled",
		"event_id": eventID,
		"user_id":  userID,
	})
}

func (s *NotifyService) publish(eventID string, message map[string]any) {
	if s == nil || s.pubnub == nil {
		return
	}
	channel := fmt.Sprintf("event-%s", eventID)
	go func() {
		if _, _, err := s.pubnub.Publish().
			Channel(channel).
			Message(message).
			Execute(); err != nil {
			slog.Error("pubnub publish failed", "channel", channel, "error", err)
		}
	}()
}

package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"participation-system/services"
)

type ParticipationHandler struct {
	app          *pocketbase.PocketBase
	service      *services.ParticipationService
	availability *services.AvailabilityService
}

func NewParticipationHandler(app *pocketbase.PocketBase, service *services.ParticipationService, availability *services.AvailabilityService) *ParticipationHandler {
	return &ParticipationHandler{
		app:          app,
		service:      service,
		availability: availability,
	}
}

// GetAvailability - whether an event is still open for joining
func (h *ParticipationHandler) GetAvailability(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	ref := time.Now()
	if t := e.Request.URL.Query().Get("t"); t != "" {
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return apis.NewBadRequestError("Invalid reference time, expected RFC3339", err)
		}
		ref = parsed
	}

	available, err := h.availability.IsEventAvailable(e.Request.Context(), eventID, ref)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":  eventID,
		"available": available,
	})
}

// JoinEvent - request to join an event
func (h *ParticipationHandler) JoinEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" {
		return apis.NewBadRequestError("event_id must not be empty", nil)
	}

	membership, err := h.service.JoinEvent(e.Request.Context(), e.Auth.Id, req.EventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, membership)
}

// CancelEvent - cancel a membership, returns the event it referred to
func (h *ParticipationHandler) CancelEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" {
		return apis.NewBadRequestError("event_id must not be empty", nil)
	}

	event, err := h.service.CancelEvent(e.Request.Context(), e.Auth.Id, req.EventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, event)
}

// RateEvent - submit a one-time rating for an attended event
func (h *ParticipationHandler) RateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID string `json:"event_id"`
		Rating  int    `json:"rating"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	membership, err := h.service.RateEvent(e.Request.Context(), e.Auth.Id, req.EventID, req.Rating)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, membership)
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"participation-system/config"
	"participation-system/services"
)

type EventHandler struct {
	app     *pocketbase.PocketBase
	service *services.EventService
	cfg     *config.Config
}

func NewEventHandler(app *pocketbase.PocketBase, service *services.EventService, cfg *config.Config) *EventHandler {
	return &EventHandler{app: app, service: service, cfg: cfg}
}

// GetEvent - single event lookup
func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	event, err := h.service.Event(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, event)
}

// GetDurations - the scheduled windows of an event
func (h *EventHandler) GetDurations(e *core.RequestEvent) error {
	durations, err := h.service.Durations(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, durations)
}

// GetEvents - batch lookup by comma-separated ids, unknown ids are skipped
func (h *EventHandler) GetEvents(e *core.RequestEvent) error {
	var ids []string
	if raw := e.Request.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	events, err := h.service.Events(e.Request.Context(), ids)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// SearchEvents - case-insensitive substring search on event name
func (h *EventHandler) SearchEvents(e *core.RequestEvent) error {
	events, err := h.service.SearchByName(e.Request.Context(), e.Request.URL.Query().Get("name"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// GetSuggestedEvents - a random sample from the event population
func (h *EventHandler) GetSuggestedEvents(e *core.RequestEvent) error {
	limit := h.cfg.SuggestedEventCount
	if raw := e.Request.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apis.NewBadRequestError("Invalid limit", err)
		}
		limit = parsed
	}

	events, err := h.service.Suggested(e.Request.Context(), limit)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// GetUpcomingEvents - events whose earliest window is still ahead
func (h *EventHandler) GetUpcomingEvents(e *core.RequestEvent) error {
	events, err := h.service.Upcoming(e.Request.Context())
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// GetOrganizationEvents - events run by one organization
func (h *EventHandler) GetOrganizationEvents(e *core.RequestEvent) error {
	events, err := h.service.ByOrganization(e.Request.Context(), e.Request.PathValue("orgId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// GetTagEvents - events carrying a tag
func (h *EventHandler) GetTagEvents(e *core.RequestEvent) error {
	events, err := h.service.ByTag(e.Request.Context(), e.Request.PathValue("tagId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// GetFacilityEvents - events that requested a facility
func (h *EventHandler) GetFacilityEvents(e *core.RequestEvent) error {
	events, err := h.service.ByFacility(e.Request.Context(), e.Request.PathValue("facilityId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// GetLocationEvents - events held at a location
func (h *EventHandler) GetLocationEvents(e *core.RequestEvent) error {
	events, err := h.service.ByLocation(e.Request.Context(), e.Request.PathValue("locationId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, events)
}

// CreateFeedback - leave anonymous feedback on an event
func (h *EventHandler) CreateFeedback(e *core.RequestEvent) error {
	var req struct {
		EventID  string `json:"event_id"`
		Feedback string `json:"feedback"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	feedback, err := h.service.CreateFeedback(e.Request.Context(), req.EventID, req.Feedback)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, feedback)
}

// RemoveFeedback - delete one feedback entry
func (h *EventHandler) RemoveFeedback(e *core.RequestEvent) error {
	if err := h.service.RemoveFeedback(e.Request.Context(), e.Request.PathValue("feedbackId")); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{"deleted": true})
}

// GetFeedbacks - feedback entries for an event
func (h *EventHandler) GetFeedbacks(e *core.RequestEvent) error {
	feedbacks, err := h.service.Feedbacks(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, feedbacks)
}

package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"participation-system/services"
)

type TicketHandler struct {
	app     *pocketbase.PocketBase
	service *services.TicketService
}

func NewTicketHandler(app *pocketbase.PocketBase, service *services.TicketService) *TicketHandler {
	return &TicketHandler{app: app, service: service}
}

// GetTicket - issue (or re-read) the join credential for a membership
func (h *TicketHandler) GetTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	userEventID := e.Request.PathValue("userEventId")
	ticket, err := h.service.Issue(e.Request.Context(), userEventID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"user_event_id": userEventID,
		"ticket":        ticket,
	})
}

// VerifyTicket - decode and integrity-check a scanned credential
func (h *TicketHandler) VerifyTicket(e *core.RequestEvent) error {
	var req struct {
		Ticket string `json:"ticket"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	claims, err := h.service.Verify(req.Ticket)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, claims)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"participation-system/models"
	"participation-system/services"
)

type SurveyHandler struct {
	app     *pocketbase.PocketBase
	service *services.SurveyService
}

func NewSurveyHandler(app *pocketbase.PocketBase, service *services.SurveyService) *SurveyHandler {
	return &SurveyHandler{app: app, service: service}
}

// GetQuestions - the ordered question set for a membership and type
func (h *SurveyHandler) GetQuestions(e *core.RequestEvent) error {
	userEventID := e.Request.PathValue("userEventId")
	surveyType := strings.ToUpper(e.Request.URL.Query().Get("type"))

	questions, err := h.service.Questions(e.Request.Context(), userEventID, surveyType)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"user_event_id": userEventID,
		"type":          surveyType,
		"questions":     questions,
	})
}

// SubmitAnswers - submit one pre or post event answer batch
func (h *SurveyHandler) SubmitAnswers(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		UserEventID string               `json:"user_event_id"`
		Type        string               `json:"type"`
		Answers     []models.AnswerInput `json:"answers"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.UserEventID == "" {
		return apis.NewBadRequestError("user_event_id must not be empty", nil)
	}

	answers, err := h.service.SubmitAnswers(
		e.Request.Context(),
		req.UserEventID,
		strings.ToUpper(req.Type),
		req.Answers,
	)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"user_event_id": req.UserEventID,
		"type":          strings.ToUpper(req.Type),
		"answers":       answers,
	})
}

package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"participation-system/services"
	"participation-system/utils"
)

type AdminHandler struct {
	app     *pocketbase.PocketBase
	service *services.EventService
	redis   *redis.Client
}

func NewAdminHandler(app *pocketbase.PocketBase, service *services.EventService, redisClient *redis.Client) *AdminHandler {
	return &AdminHandler{app: app, service: service, redis: redisClient}
}

// GetEventSummary - participant counts and average rating for one event
func (h *AdminHandler) GetEventSummary(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	summary, err := h.service.Summary(e.Request.Context(), e.Request.PathValue("eventId"))
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, summary)
}

// HealthCheck - liveness plus redis reachability
func (h *AdminHandler) HealthCheck(e *core.RequestEvent) error {
	if err := utils.RedisHealthCheck(h.redis); err != nil {
		return e.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

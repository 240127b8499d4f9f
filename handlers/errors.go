package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"

	"participation-system/internal/status"
)

// apiError maps a service failure onto the HTTP error surface. Every
// failure path goes through here so the caller always sees one typed
// error body, never a half-filled result.
func apiError(err error) error {
	var e *status.Error
	if !errors.As(err, &e) {
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", err)
	}
	switch e.Code {
	case status.NotFound:
		return apis.NewNotFoundError(e.Msg, err)
	case status.AlreadyExists:
		return apis.NewApiError(http.StatusConflict, e.Msg, err)
	case status.FailedPrecondition, status.InvalidArgument:
		return apis.NewBadRequestError(e.Msg, err)
	case status.ResourceExhausted:
		return apis.NewApiError(http.StatusTooManyRequests, e.Msg, err)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", err)
	}
}

package api

import (
	"errors"
	"net/http"

	service "github.com/okian/spotrank/internal/app"
	"github.com/okian/spotrank/internal/domain/ranklist"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrMissingUser = errors.New("missing user")
)

// statusOf maps a service error to an HTTP status and error code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrMissingUser), errors.Is(err, service.ErrInvalidUser):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, session.ErrEmptyName):
		return http.StatusBadRequest, "empty_name"
	case errors.Is(err, tier.ErrUnknownTier):
		return http.StatusBadRequest, "invalid_tier"
	case errors.Is(err, session.ErrItemNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNoActiveSession):
		return http.StatusNotFound, "no_session"
	case errors.Is(err, session.ErrDuplicateItem):
		return http.StatusConflict, "duplicate_item"
	case errors.Is(err, service.ErrSessionInProgress):
		return http.StatusConflict, "session_in_progress"
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ranklist.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_failure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes err, attaching the session view when the caller
// can still act on it (a pending commit or a conflicting session).
func writeServiceError(w http.ResponseWriter, err error, view *session.View) {
	status, code := statusOf(err)
	resp := errorResponse{Code: code, Message: err.Error()}
	if view != nil && view.ID != "" {
		resp.Session = view
	}
	writeJSON(w, status, resp)
}

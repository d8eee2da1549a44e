package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
)

// SessionDependencies defines the session operations used by SessionHandler.
type SessionDependencies interface {
	Current(ctx context.Context, user string) (session.View, error)
	BeginAdd(ctx context.Context, user string, c model.Candidate) (Step, error)
	BeginEdit(ctx context.Context, user, name string, notes *string) (Step, error)
	SelectTier(ctx context.Context, user string, t tier.Tier) (Step, error)
	Choose(ctx context.Context, user string, preferNew bool) (Step, error)
	Retry(ctx context.Context, user string) (Step, error)
	Cancel(ctx context.Context, user string) error
}

// SessionHandler drives ranking sessions over HTTP.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// addRequest mirrors the OpenAPI schema for POST /api/rankings/{user}/session.
type addRequest struct {
	Name     string `json:"name"`
	Notes    string `json:"notes"`
	PhotoURL string `json:"photo_url"`
}

type editRequest struct {
	Name  string  `json:"name"`
	Notes *string `json:"notes"`
}

type tierRequest struct {
	Tier string `json:"tier"`
}

type choiceRequest struct {
	Prefer string `json:"prefer"`
}

// HandleGetSession handles GET /api/rankings/{user}/session.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.deps.Current(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleStartAdd handles POST /api/rankings/{user}/session.
func (h *SessionHandler) HandleStartAdd(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req addRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	step, err := h.deps.BeginAdd(r.Context(), user, model.Candidate{
		Name:     req.Name,
		Notes:    req.Notes,
		PhotoURL: req.PhotoURL,
	})
	writeStep(w, http.StatusCreated, step, err)
}

// HandleStartEdit handles POST /api/rankings/{user}/session/edit.
func (h *SessionHandler) HandleStartEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing name", ErrBadRequest))
		return
	}
	step, err := h.deps.BeginEdit(r.Context(), user, req.Name, req.Notes)
	writeStep(w, http.StatusCreated, step, err)
}

// HandleSelectTier handles POST /api/rankings/{user}/session/tier.
func (h *SessionHandler) HandleSelectTier(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req tierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	t, err := tier.Parse(req.Tier)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	step, err := h.deps.SelectTier(r.Context(), user, t)
	writeStep(w, http.StatusOK, step, err)
}

// HandleChoice handles POST /api/rankings/{user}/session/choice.
func (h *SessionHandler) HandleChoice(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req choiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	var preferNew bool
	switch strings.ToLower(strings.TrimSpace(req.Prefer)) {
	case "new":
		preferNew = true
	case "existing":
	default:
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: prefer must be new or existing", ErrBadRequest))
		return
	}
	step, err := h.deps.Choose(r.Context(), user, preferNew)
	writeStep(w, http.StatusOK, step, err)
}

// HandleRetry handles POST /api/rankings/{user}/session/retry.
func (h *SessionHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	step, err := h.deps.Retry(r.Context(), user)
	writeStep(w, http.StatusOK, step, err)
}

// HandleCancel handles DELETE /api/rankings/{user}/session.
func (h *SessionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Cancel(r.Context(), user); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	user := pathParam(r, "user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingUser)
		return "", false
	}
	return user, true
}

func writeStep(w http.ResponseWriter, status int, step Step, err error) {
	if err != nil {
		writeServiceError(w, err, &step.Session)
		return
	}
	writeJSON(w, status, step)
}

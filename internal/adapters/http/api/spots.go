package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/spotrank/internal/domain/model"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SpotsDependencies defines the catalog and feed reads used by SpotsHandler.
type SpotsDependencies interface {
	Suggestions(ctx context.Context, user, query string, limit int) ([]model.Spot, error)
	Feed(limit int) []model.Activity
}

// SpotsHandler serves catalog suggestions and the activity feed.
type SpotsHandler struct {
	deps SpotsDependencies
}

// NewSpotsHandler creates a new spots handler.
func NewSpotsHandler(deps SpotsDependencies) *SpotsHandler {
	return &SpotsHandler{deps: deps}
}

type spotsResponse struct {
	Spots []model.Spot `json:"spots"`
}

type feedResponse struct {
	Activity []model.Activity `json:"activity"`
}

// HandleSuggestions handles GET /api/spots?q=&user=&limit=.
func (h *SpotsHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	spots, err := h.deps.Suggestions(r.Context(), strings.TrimSpace(q.Get("user")), strings.TrimSpace(q.Get("q")), limit)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if spots == nil {
		spots = []model.Spot{}
	}
	writeJSON(w, http.StatusOK, spotsResponse{Spots: spots})
}

// HandleFeed handles GET /api/feed?limit=.
func (h *SpotsHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	activity := h.deps.Feed(limit)
	if activity == nil {
		activity = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, feedResponse{Activity: activity})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxListLimit {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return 0, false
	}
	return n, true
}

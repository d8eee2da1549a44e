package api

import (
	"context"
	"net/http"
)

// RankingsDependencies defines the list operations used by RankingsHandler.
type RankingsDependencies interface {
	Rankings(ctx context.Context, user string) ([]Entry, error)
	Delete(ctx context.Context, user, name string) ([]Entry, error)
}

// RankingsHandler serves a user's ranked list.
type RankingsHandler struct {
	deps RankingsDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingsDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

type rankingsResponse struct {
	User     string  `json:"user"`
	Rankings []Entry `json:"rankings"`
}

// HandleGetRankings handles GET /api/rankings/{user}.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	user := pathParam(r, "user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingUser)
		return
	}
	entries, err := h.deps.Rankings(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, rankingsResponse{User: user, Rankings: nonNil(entries)})
}

// HandleDeleteItem handles DELETE /api/rankings/{user}/items/{name}.
func (h *RankingsHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	user, name := pathParam(r, "user"), pathParam(r, "name")
	if user == "" || name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	entries, err := h.deps.Delete(r.Context(), user, name)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, rankingsResponse{User: user, Rankings: nonNil(entries)})
}

func nonNil(entries []Entry) []Entry {
	if entries == nil {
		return []Entry{}
	}
	return entries
}

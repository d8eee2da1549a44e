// Package types contains read models shared by the HTTP and terminal front-ends.
package types

import (
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
)

// Entry is one row of a ranked list as shown to a user.
type Entry struct {
	Rank     int       `json:"rank"`
	Name     string    `json:"name"`
	Tier     tier.Tier `json:"tier"`
	Score    float64   `json:"score"`
	Grade    string    `json:"grade"`
	Notes    string    `json:"notes,omitempty"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

// Entries converts a best-first list to 1-based ranked rows.
func Entries(items []model.RankedItem) []Entry {
	out := make([]Entry, len(items))
	for i, it := range items {
		out[i] = Entry{
			Rank:     i + 1,
			Name:     it.Name,
			Tier:     it.Tier,
			Score:    it.Score,
			Grade:    tier.Grade(it.Score),
			Notes:    it.Notes,
			PhotoURL: it.PhotoURL,
		}
	}
	return out
}

// Step is the outcome of one ranking action. Committed, Rank and Rankings are
// set when the action finished a commit.
type Step struct {
	Session   session.View      `json:"session"`
	Committed *model.RankedItem `json:"committed,omitempty"`
	Rank      int               `json:"rank,omitempty"`
	Rankings  []Entry           `json:"rankings,omitempty"`
}

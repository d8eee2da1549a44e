// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/okian/spotrank/internal/domain/tier"
)

// RankedItem is one entry in a user's ranked list.
// Score is always derived from the item's tier and position, never typed by the user.
type RankedItem struct {
	Name     string    `json:"name"`
	Tier     tier.Tier `json:"tier"`
	Score    float64   `json:"score"`
	Notes    string    `json:"notes,omitempty"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

// Candidate is an item the user wants to add. It has no tier or score yet.
type Candidate struct {
	Name     string `json:"name"`
	Notes    string `json:"notes,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// Normalize trims the candidate's name and notes.
func (c Candidate) Normalize() Candidate {
	c.Name = strings.TrimSpace(c.Name)
	c.Notes = strings.TrimSpace(c.Notes)
	c.PhotoURL = strings.TrimSpace(c.PhotoURL)
	return c
}

// Spot is a catalog entry that may be suggested while adding.
type Spot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// ActivityKind names what happened to a ranked list.
type ActivityKind string

// Activity kinds.
const (
	ActivityAdded   ActivityKind = "added"
	ActivityEdited  ActivityKind = "edited"
	ActivityRemoved ActivityKind = "removed"
)

// Activity is published after every successful commit.
type Activity struct {
	ID   string       `json:"id"`
	User string       `json:"user"`
	Kind ActivityKind `json:"kind"`
	Item RankedItem   `json:"item"`
	// Rank is the 1-based position after the commit, 0 for removals.
	Rank int       `json:"rank"`
	At   time.Time `json:"at"`
}

// Package repository implements ranking stores and the spot catalog.
package repository

import (
	"context"
	"time"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/pkg/metrics"
)

// Store persists each user's full ranked list. ReplaceRankings is atomic:
// either the whole list is stored or nothing changes.
type Store interface {
	FetchRankings(ctx context.Context, user string) ([]model.RankedItem, error)
	ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) ([]model.RankedItem, error)
}

// Catalog lists spots known to the system, ranked by anyone or seeded.
type Catalog interface {
	// ListKnownSpots returns spots whose name contains query (case-insensitive),
	// sorted by name. An empty query returns all spots.
	ListKnownSpots(ctx context.Context, query string) ([]model.Spot, error)
}

// Seed is a catalog entry created ahead of any ranking.
type Seed struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError(op)
	}
}

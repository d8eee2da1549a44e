// Package seed loads demo catalogs and rankings from YAML and writes them
// through a ranking store.
package seed

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/spotrank/internal/adapters/repository"
	"github.com/okian/spotrank/internal/domain/dedupe"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/pkg/logger"
)

// File is the seed document.
//
//	spots:
//	  - {name: Library, category: study}
//	users:
//	  alex:
//	    - {name: Cafe, tier: good, notes: oat latte}
//	    - {name: Library, tier: good}
//
// Each user's items are listed best first. A missing tier reads as bad.
type File struct {
	Spots []repository.Seed `yaml:"spots"`
	Users map[string][]Item `yaml:"users"`
}

// Item is one seeded ranking row. Scores are derived, never read.
type Item struct {
	Name     string    `yaml:"name"`
	Tier     tier.Tier `yaml:"tier"`
	Notes    string    `yaml:"notes"`
	PhotoURL string    `yaml:"photo_url"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate rejects blank users, blank names and duplicate names per user.
func (f *File) Validate() error {
	for user, items := range f.Users {
		if strings.TrimSpace(user) == "" {
			return fmt.Errorf("%w: blank user", ErrInvalidSeed)
		}
		seen := dedupe.NewNameSet()
		for i, it := range items {
			if strings.TrimSpace(it.Name) == "" {
				return fmt.Errorf("%w: %s item %d has no name", ErrInvalidSeed, user, i)
			}
			if !seen.Add(it.Name) {
				return fmt.Errorf("%w: %s ranks %q twice", ErrInvalidSeed, user, it.Name)
			}
		}
	}
	return nil
}

// Rankings converts items to ranked items with normalized scores.
func Rankings(n *scoring.Normalizer, items []Item) []model.RankedItem {
	out := make([]model.RankedItem, len(items))
	for i, it := range items {
		out[i] = model.RankedItem{
			Name:     strings.TrimSpace(it.Name),
			Tier:     it.Tier,
			Notes:    strings.TrimSpace(it.Notes),
			PhotoURL: strings.TrimSpace(it.PhotoURL),
		}
	}
	return n.Normalize(out)
}

// Apply replaces each seeded user's list in store. Users are written in name
// order so partial failures are reproducible.
func Apply(ctx context.Context, store repository.Store, n *scoring.Normalizer, f *File) (int, error) {
	log := logger.Get().Named("seed")
	users := make([]string, 0, len(f.Users))
	for u := range f.Users {
		users = append(users, u)
	}
	sort.Strings(users)

	written := 0
	for _, user := range users {
		items := Rankings(n, f.Users[user])
		if _, err := store.ReplaceRankings(ctx, strings.TrimSpace(user), items); err != nil {
			return written, fmt.Errorf("seed %s: %w", user, err)
		}
		written++
		log.Info(ctx, "seeded rankings", logger.String("user", user), logger.Int("items", len(items)))
	}
	return written, nil
}

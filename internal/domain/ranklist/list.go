// Package ranklist holds one user's canonical ranked list and the commit
// protocol that persists it as a whole.
package ranklist

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/spotrank/internal/domain/dedupe"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/pkg/logger"
)

// Store persists a user's full ranked list.
type Store interface {
	// FetchRankings returns the user's list, best first.
	FetchRankings(ctx context.Context, user string) ([]model.RankedItem, error)
	// ReplaceRankings atomically replaces the user's list and echoes what was stored.
	ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) ([]model.RankedItem, error)
}

// Option applies a configuration option to a List.
type Option func(*List)

// WithNormalizer sets the normalizer used on load and commit.
func WithNormalizer(n *scoring.Normalizer) Option {
	return func(l *List) {
		if n != nil {
			l.normalizer = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *List) {
		if log != nil {
			l.log = log
		}
	}
}

// List is the canonical ranked list of one user. Items are grouped
// Good, Okay, Bad and best first inside each tier.
type List struct {
	mu         sync.RWMutex
	user       string
	store      Store
	normalizer *scoring.Normalizer
	log        logger.Logger
	items      []model.RankedItem
	names      *dedupe.NameSet
}

// New creates an empty list for user backed by store.
func New(user string, store Store, opts ...Option) *List {
	l := &List{
		user:       user,
		store:      store,
		normalizer: scoring.NewNormalizer(),
		log:        logger.Get().Named("ranklist"),
		names:      dedupe.NewNameSet(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// User returns the list owner.
func (l *List) User() string {
	return l.user
}

// Load fetches the list from the store. Stored scores are recomputed and
// rows repeating an earlier name are dropped.
func (l *List) Load(ctx context.Context) error {
	items, err := l.store.FetchRankings(ctx, l.user)
	if err != nil {
		return fmt.Errorf("fetch rankings for %s: %w", l.user, err)
	}
	l.set(l.normalizer.Normalize(l.unique(ctx, items)))
	return nil
}

// Items returns a copy of the current items.
func (l *List) Items() []model.RankedItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Clone(l.items)
}

// Len returns the number of ranked items.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Contains reports whether name is ranked, ignoring case and padding.
func (l *List) Contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.names.Has(name)
}

// Find returns the ranked item called name.
func (l *List) Find(name string) (model.RankedItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := IndexOf(l.items, name); i >= 0 {
		return l.items[i], true
	}
	return model.RankedItem{}, false
}

// Commit normalizes next, replaces the stored list and adopts the echo.
// On failure the current items are kept and ErrPersistence is returned.
func (l *List) Commit(ctx context.Context, next []model.RankedItem) ([]model.RankedItem, error) {
	normalized := l.normalizer.Normalize(next)
	scoring.SortByScore(normalized)

	stored, err := l.store.ReplaceRankings(ctx, l.user, normalized)
	if err != nil {
		l.log.Warn(ctx, "replace rankings failed",
			logger.String("user", l.user),
			logger.Int("items", len(normalized)),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if stored == nil {
		stored = normalized
	}
	adopted := l.normalizer.Normalize(l.unique(ctx, stored))
	l.set(adopted)
	return Clone(adopted), nil
}

// unique keeps the first, best ranked, row for each name.
func (l *List) unique(ctx context.Context, items []model.RankedItem) []model.RankedItem {
	seen := dedupe.NewNameSet()
	out := make([]model.RankedItem, 0, len(items))
	for _, it := range items {
		if !seen.Add(it.Name) {
			l.log.Warn(ctx, "dropping duplicate stored item",
				logger.String("user", l.user),
				logger.String("name", it.Name))
			continue
		}
		out = append(out, it)
	}
	return out
}

func (l *List) set(items []model.RankedItem) {
	names := dedupe.NewNameSet()
	for _, it := range items {
		names.Add(it.Name)
	}
	l.mu.Lock()
	l.items = items
	l.names = names
	l.mu.Unlock()
}

// Package feed keeps a bounded, newest-first feed of ranking activity.
package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/spotrank/internal/domain/model"
)

const defaultSize = 50

// Option applies a configuration option to the Feed.
type Option func(*Feed)

// WithSize bounds the number of activities kept.
func WithSize(size int) Option {
	return func(f *Feed) {
		if size > 0 {
			f.size = size
		}
	}
}

// Feed is safe for concurrent use.
type Feed struct {
	mu    sync.RWMutex
	size  int
	items []model.Activity
	seen  map[string]struct{}
}

// New creates an empty feed.
func New(opts ...Option) *Feed {
	f := &Feed{size: defaultSize}
	for _, opt := range opts {
		opt(f)
	}
	f.items = make([]model.Activity, 0, f.size)
	f.seen = make(map[string]struct{}, f.size)
	return f
}

// Record adds a to the feed. Activities already recorded are ignored.
// Out-of-order arrivals are placed by their timestamp.
func (f *Feed) Record(ctx context.Context, a model.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen[a.ID]; dup && a.ID != "" {
		return nil
	}
	i := sort.Search(len(f.items), func(i int) bool {
		return !f.items[i].At.After(a.At)
	})
	f.items = append(f.items, model.Activity{})
	copy(f.items[i+1:], f.items[i:])
	f.items[i] = a
	if a.ID != "" {
		f.seen[a.ID] = struct{}{}
	}

	for len(f.items) > f.size {
		dropped := f.items[len(f.items)-1]
		f.items = f.items[:len(f.items)-1]
		delete(f.seen, dropped.ID)
	}
	return nil
}

// Recent returns up to limit activities, newest first. limit <= 0 means all.
func (f *Feed) Recent(limit int) []model.Activity {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if limit <= 0 || limit > len(f.items) {
		limit = len(f.items)
	}
	return append([]model.Activity(nil), f.items[:limit]...)
}

// Len returns the number of activities held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

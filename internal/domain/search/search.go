// Package search implements the binary insertion search used to place a new
// item among the already-ranked items of its tier with pairwise questions.
package search

import (
	"context"
	"math/bits"
)

// Search is the half-open window [Low, High) of tier positions the new item
// may still land in. Positions are relative to the start of the tier.
type Search struct {
	Low   int `json:"low"`
	High  int `json:"high"`
	Steps int `json:"steps"`
}

// New starts a search over k already-ranked tier items.
func New(k int) Search {
	if k < 0 {
		k = 0
	}
	return Search{Low: 0, High: k}
}

// Done reports whether the insertion index is resolved.
func (s Search) Done() bool {
	return s.Low >= s.High
}

// Probe is the tier position the new item is compared against next.
func (s Search) Probe() int {
	return (s.Low + s.High) / 2
}

// PreferNew records that the new item beats the probed item.
func (s Search) PreferNew() Search {
	if s.Done() {
		return s
	}
	s.High = s.Probe()
	s.Steps++
	return s
}

// PreferExisting records that the probed item beats the new item.
func (s Search) PreferExisting() Search {
	if s.Done() {
		return s
	}
	s.Low = s.Probe() + 1
	s.Steps++
	return s
}

// Index is the resolved insertion position inside the tier, in [0, k].
func (s Search) Index() int {
	return s.Low
}

// MaxComparisons is ceil(log2(k+1)), the most questions a search over k items asks.
func MaxComparisons(k int) int {
	if k <= 0 {
		return 0
	}
	return bits.Len(uint(k))
}

// PreferFunc answers one comparison: true when the new item is better than
// the tier item at pos.
type PreferFunc func(ctx context.Context, pos int) (bool, error)

// Resolve drives a search over k items to completion.
func Resolve(ctx context.Context, k int, prefer PreferFunc) (Search, error) {
	s := New(k)
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		better, err := prefer(ctx, s.Probe())
		if err != nil {
			return s, err
		}
		if better {
			s = s.PreferNew()
		} else {
			s = s.PreferExisting()
		}
	}
	return s, nil
}

// Package scoring turns a tier-grouped, best-first ordering into concrete
// scores spread evenly across each tier's sub-range.
package scoring

import (
	"sort"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/tier"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithBounds sets the tier boundaries used for score ranges.
func WithBounds(b tier.Bounds) Option {
	return func(n *Normalizer) {
		n.bounds = b
	}
}

// Normalizer assigns scores from tier and relative order.
type Normalizer struct {
	bounds tier.Bounds
}

// NewNormalizer creates a Normalizer with default bounds unless overridden.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{bounds: tier.DefaultBounds()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Bounds returns the tier boundaries in use.
func (n *Normalizer) Bounds() tier.Bounds {
	return n.bounds
}

// Normalize partitions items by tier, keeping their relative order, and
// rescores each tier linearly from the top of its range down to the bottom.
// A tier with one item gets the range midpoint. The result is ordered
// Good, Okay, Bad and is therefore score-descending. items is not modified.
func (n *Normalizer) Normalize(items []model.RankedItem) []model.RankedItem {
	out := make([]model.RankedItem, 0, len(items))
	for _, t := range tier.All {
		group := make([]model.RankedItem, 0, len(items))
		for _, it := range items {
			if it.Tier == t {
				group = append(group, it)
			}
		}
		out = append(out, n.spread(t, group)...)
	}
	return out
}

// ScoreAt returns the score of position i in a tier holding count items.
func (n *Normalizer) ScoreAt(t tier.Tier, i, count int) float64 {
	lo, hi := n.bounds.Range(t)
	if count <= 1 {
		return (lo + hi) / 2
	}
	step := (hi - lo) / float64(count-1)
	return hi - float64(i)*step
}

func (n *Normalizer) spread(t tier.Tier, group []model.RankedItem) []model.RankedItem {
	for i := range group {
		group[i].Score = n.ScoreAt(t, i, len(group))
	}
	return group
}

// SortByScore orders items by descending score, keeping ties in input order.
func SortByScore(items []model.RankedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

package ranklist

import (
	"github.com/okian/spotrank/internal/domain/dedupe"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/tier"
)

// TierStart is the absolute index of the first item of t in a grouped,
// best-first list, or where such an item would go when t is empty.
func TierStart(items []model.RankedItem, t tier.Tier) int {
	for i, it := range items {
		if it.Tier <= t {
			return i
		}
	}
	return len(items)
}

// PeerPositions returns the absolute indexes of the items in t, best first.
func PeerPositions(items []model.RankedItem, t tier.Tier) []int {
	var out []int
	for i, it := range items {
		if it.Tier == t {
			out = append(out, i)
		}
	}
	return out
}

// IndexOf returns the position of name, or -1.
func IndexOf(items []model.RankedItem, name string) int {
	for i, it := range items {
		if dedupe.Same(it.Name, name) {
			return i
		}
	}
	return -1
}

// Without returns a copy of items with name removed and whether it was found.
func Without(items []model.RankedItem, name string) ([]model.RankedItem, bool) {
	idx := IndexOf(items, name)
	out := make([]model.RankedItem, 0, len(items))
	out = append(out, items...)
	if idx < 0 {
		return out, false
	}
	return append(out[:idx], out[idx+1:]...), true
}

// InsertAt returns a copy of items with it inserted at idx, clamped to the list.
func InsertAt(items []model.RankedItem, idx int, it model.RankedItem) []model.RankedItem {
	if idx < 0 {
		idx = 0
	}
	if idx > len(items) {
		idx = len(items)
	}
	out := make([]model.RankedItem, 0, len(items)+1)
	out = append(out, items[:idx]...)
	out = append(out, it)
	return append(out, items[idx:]...)
}

// Clone copies items.
func Clone(items []model.RankedItem) []model.RankedItem {
	return append([]model.RankedItem(nil), items...)
}

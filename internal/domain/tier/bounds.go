package tier

import (
	"fmt"
	"math"
)

// Epsilon separates the okay/good cut from the 20/3 third of the axis.
const Epsilon = 0.01

// Bounds places the tier cuts on the score axis.
//
//	Bad  [Headroom, LowCut-Headroom]
//	Okay [LowCut+Headroom, HighCut-Headroom]
//	Good [HighCut, MaxScore]
type Bounds struct {
	LowCut   float64
	HighCut  float64
	Headroom float64
}

// DefaultBounds splits the axis into thirds.
func DefaultBounds() Bounds {
	return Bounds{
		LowCut:   MaxScore / 3,
		HighCut:  2*MaxScore/3 - Epsilon,
		Headroom: 0.01,
	}
}

// Validate rejects bounds whose sub-ranges are empty, degenerate, overlap or
// leave [0, MaxScore].
func (b Bounds) Validate() error {
	for _, v := range []float64{b.LowCut, b.HighCut, b.Headroom} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound in %+v", ErrInvalidTierBoundary, b)
		}
	}
	switch {
	case b.Headroom < 0:
		return fmt.Errorf("%w: negative headroom %v", ErrInvalidTierBoundary, b.Headroom)
	case b.LowCut <= 0 || b.HighCut > MaxScore:
		return fmt.Errorf("%w: cuts %v/%v outside (0, %v]", ErrInvalidTierBoundary, b.LowCut, b.HighCut, MaxScore)
	case b.HighCut >= MaxScore:
		return fmt.Errorf("%w: good range is empty", ErrInvalidTierBoundary)
	case b.Headroom >= b.LowCut-b.Headroom:
		return fmt.Errorf("%w: bad range is empty", ErrInvalidTierBoundary)
	case b.LowCut+b.Headroom >= b.HighCut-b.Headroom:
		return fmt.Errorf("%w: okay range is empty", ErrInvalidTierBoundary)
	}
	return nil
}

// Range returns the inclusive [lo, hi] sub-range of t.
func (b Bounds) Range(t Tier) (lo, hi float64) {
	switch t {
	case Good:
		return b.HighCut, MaxScore
	case Okay:
		return b.LowCut + b.Headroom, b.HighCut - b.Headroom
	default:
		return b.Headroom, b.LowCut - b.Headroom
	}
}

// Midpoint is the provisional score of an item that has just picked t.
func (b Bounds) Midpoint(t Tier) float64 {
	lo, hi := b.Range(t)
	return (lo + hi) / 2
}

// TierOf classifies a bare score.
func (b Bounds) TierOf(score float64) Tier {
	switch {
	case score < b.LowCut:
		return Bad
	case score < b.HighCut:
		return Okay
	default:
		return Good
	}
}

// Grade returns the letter grade shown next to a score.
func Grade(score float64) string {
	switch {
	case score >= 9:
		return "S"
	case score >= 8:
		return "A"
	case score >= 7:
		return "B"
	case score >= 6:
		return "C"
	case score >= 5:
		return "D"
	default:
		return "F"
	}
}

package tier

import "errors"

var (
	// ErrInvalidTierBoundary is returned when the configured cuts produce empty or overlapping ranges.
	ErrInvalidTierBoundary = errors.New("invalid tier boundary")
	// ErrUnknownTier is returned when a tier name cannot be parsed.
	ErrUnknownTier = errors.New("unknown tier")
)

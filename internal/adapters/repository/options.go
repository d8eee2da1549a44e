package repository

import (
	"time"

	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/pkg/logger"
)

type options struct {
	bounds tier.Bounds
	seeds  []Seed
	now    func() time.Time
	logger logger.Logger
}

func defaultOptions() options {
	return options{
		bounds: tier.DefaultBounds(),
		now:    time.Now,
		logger: logger.Get().Named("repository"),
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithBounds sets the tier boundaries used to classify stored scores.
func WithBounds(b tier.Bounds) Option {
	return func(o *options) {
		o.bounds = b
	}
}

// WithSeeds pre-populates the spot catalog.
func WithSeeds(seeds ...Seed) Option {
	return func(o *options) {
		o.seeds = append(o.seeds, seeds...)
	}
}

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

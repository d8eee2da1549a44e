package service

import (
	"github.com/okian/spotrank/internal/adapters/repository"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ranking store. A store that also implements
// repository.Catalog is used for suggestions unless WithCatalog overrides it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCatalog sets the spot catalog used for suggestions.
func WithCatalog(c repository.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithBounds sets the tier boundaries.
func WithBounds(b tier.Bounds) Option {
	return func(s *Service) {
		s.bounds = b
	}
}

// WithWorkerCount sets the number of activity workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the activity queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithFeedSize bounds the recent activity feed.
func WithFeedSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.feedSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

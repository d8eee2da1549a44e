// Package bootstrap builds the process-wide components shared by the server,
// the terminal client and the seed tool from a loaded Config.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/spotrank/internal/adapters/remote"
	"github.com/okian/spotrank/internal/adapters/repository"
	service "github.com/okian/spotrank/internal/app"
	"github.com/okian/spotrank/internal/config"
	"github.com/okian/spotrank/pkg/logger"
)

// Init loads the configuration and initializes logging from it.
func Init(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithOutput(os.Stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// OpenStore opens the ranking store selected by cfg.StoreDriver. Seeds are
// written to local stores; the remote backend owns its own catalog.
func OpenStore(ctx context.Context, cfg *config.Config, seeds ...repository.Seed) (repository.Store, error) {
	log := logger.Get().Named("store")
	bounds := cfg.TierBounds()

	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewMemoryStore(
			repository.WithBounds(bounds),
			repository.WithSeeds(seeds...),
			repository.WithLogger(log),
		), nil
	case config.DriverSQLite:
		store, err := repository.OpenSQLite(ctx, cfg.SQLitePath,
			repository.WithBounds(bounds),
			repository.WithSeeds(seeds...),
			repository.WithLogger(log),
		)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.DriverRemote:
		return remote.New(cfg.RemoteBaseURL,
			remote.WithToken(cfg.RemoteToken),
			remote.WithOwner(cfg.RemoteOwner),
			remote.WithRate(cfg.RemoteRPS),
			remote.WithBounds(bounds),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
}

// NewService builds a ranking Service over store using cfg.
func NewService(cfg *config.Config, store repository.Store) *service.Service {
	return service.New(
		service.WithStore(store),
		service.WithBounds(cfg.TierBounds()),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.ActivityQueueSize),
		service.WithFeedSize(cfg.FeedSize),
		service.WithLogger(logger.Get().Named("service")),
	)
}

// Command seed loads demo spots and rankings from a YAML file into the
// configured ranking store.
//
//	SPOTRANK_STORE_DRIVER=sqlite go run ./cmd/seed -file seed.yaml
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/spotrank/internal/adapters/repository"
	"github.com/okian/spotrank/internal/bootstrap"
	"github.com/okian/spotrank/internal/config"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/internal/seed"
	"github.com/okian/spotrank/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		os.Stderr.WriteString("seed: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "seed.yaml", "path to the seed YAML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := bootstrap.Init(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.StoreDriver == config.DriverMemory {
		logger.Get().Warn(ctx, "memory store selected; seeded data is discarded on exit")
	}

	f, err := seed.Load(*file)
	if err != nil {
		return err
	}

	store, err := bootstrap.OpenStore(ctx, cfg, f.Spots...)
	if err != nil {
		return err
	}
	defer closeStore(ctx, store)

	n, err := seed.Apply(ctx, store, scoring.NewNormalizer(scoring.WithBounds(cfg.TierBounds())), f)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "seed complete",
		logger.Int("users", n),
		logger.Int("spots", len(f.Spots)),
		logger.String("store", cfg.StoreDriver))
	return nil
}

func closeStore(ctx context.Context, store repository.Store) {
	c, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Get().Warn(ctx, "close store", logger.Error(err))
	}
}

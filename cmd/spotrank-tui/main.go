// Command spotrank-tui ranks spots for one user in the terminal.
//
// It shares configuration with the server, so SPOTRANK_STORE_DRIVER=sqlite
// points it at the same database.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okian/spotrank/internal/bootstrap"
	"github.com/okian/spotrank/internal/tui"
	"github.com/okian/spotrank/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		os.Stderr.WriteString("spotrank-tui: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("spotrank-tui", flag.ContinueOnError)
	user := fs.String("user", os.Getenv("USER"), "user whose list is ranked")
	logPath := fs.String("log", "", "append logs to this file instead of discarding them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := bootstrap.Init(ctx)
	if err != nil {
		return err
	}

	// The terminal is owned by the UI; logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := logger.Init(logger.WithOutput(out), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	svc := bootstrap.NewService(cfg, store)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	_, err = tea.NewProgram(tui.New(ctx, svc, *user), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

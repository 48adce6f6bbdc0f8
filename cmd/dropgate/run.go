package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/dropgate/internal/api"
	"github.com/andresuchdata/dropgate/internal/config"
	"github.com/andresuchdata/dropgate/internal/domain"
	"github.com/andresuchdata/dropgate/internal/supervisor"
	"github.com/andresuchdata/dropgate/internal/watcher"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

func runCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer svc.Close()

	logger.Log.Info().
		Str("root", cfg.Watch.Root).
		Int("workers", cfg.Pipeline.Workers).
		Str("alert", cfg.Alert.Backend).
		Msg("Starting dropgate")

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Status.Addr != "" {
		router := api.NewRouter(&api.Services{
			Stats:   svc.dispatcher.Stats(),
			Journal: svc.journal,
		}, cfg.Status.AllowedOrigins)
		g.Go(func() error {
			return api.Serve(gctx, cfg.Status.Addr, router)
		})
	}

	g.Go(func() error {
		supCfg := supervisor.Config{
			MaxRestarts: cfg.Supervisor.MaxRestarts,
			Backoff:     cfg.Supervisor.Backoff,
			MaxBackoff:  cfg.Supervisor.MaxBackoff,
		}
		return supervisor.Run(gctx, supCfg, "watch", func(ctx context.Context) error {
			return svc.watchCycle(ctx)
		})
	})

	if err := g.Wait(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Log.Info().Msg("dropgate stopped")
	return nil
}

// watchCycle processes the backlog and then live events until ctx is done
// or the watch breaks.
func (s *service) watchCycle(ctx context.Context) error {
	if err := config.CheckRoot(s.cfg.Watch.Root); err != nil {
		return err
	}

	events := make(chan domain.FileEvent, s.cfg.Watch.EventBuffer)
	w := watcher.New(s.cfg.Watch.Root, watcher.Options{
		Debounce: s.cfg.Watch.Debounce,
		Skip:     s.quarantine.IsReserved,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		return w.Run(gctx, events)
	})
	g.Go(func() error {
		return s.dispatcher.Run(gctx, events)
	})
	return g.Wait()
}

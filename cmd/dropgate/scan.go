package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/dropgate/internal/config"
	"github.com/andresuchdata/dropgate/internal/domain"
	"github.com/andresuchdata/dropgate/internal/watcher"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

func scanCommand(c *cli.Context) error {
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

	if err := svc.scanOnce(ctx); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	snap := svc.dispatcher.Stats().Snapshot()
	logger.Log.Info().
		Int64("uploaded", snap.Count(domain.OutcomeUploaded)).
		Int64("skipped", snap.Count(domain.OutcomeSkipped)).
		Int64("quarantined", snap.Count(domain.OutcomeQuarantined)).
		Int64("failed", snap.Count(domain.OutcomeFailed)).
		Msg("Scan complete")

	if failed := snap.Count(domain.OutcomeFailed); failed > 0 {
		return cli.Exit(fmt.Sprintf("%d file(s) could not be stored", failed), 1)
	}
	return nil
}

// scanOnce runs the backlog through the dispatcher and waits for every
// file, settle delays included, to reach a terminal outcome.
func (s *service) scanOnce(ctx context.Context) error {
	if err := config.CheckRoot(s.cfg.Watch.Root); err != nil {
		return err
	}

	events := make(chan domain.FileEvent, s.cfg.Watch.EventBuffer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(events)
		err := watcher.Scan(gctx, s.cfg.Watch.Root, s.quarantine.IsReserved, func(path string) error {
			ev := domain.NewFileEvent(path)
			ev.Backlog = true
			select {
			case events <- ev:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if err != nil && gctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return s.dispatcher.Run(gctx, events)
	})
	return g.Wait()
}

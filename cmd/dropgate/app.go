package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/dropgate/internal/admission"
	"github.com/andresuchdata/dropgate/internal/alert"
	"github.com/andresuchdata/dropgate/internal/config"
	"github.com/andresuchdata/dropgate/internal/dispatch"
	"github.com/andresuchdata/dropgate/internal/journal"
	"github.com/andresuchdata/dropgate/internal/quarantine"
	"github.com/andresuchdata/dropgate/internal/storage"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

const pingTimeout = 10 * time.Second

// newStore builds the object store client; tests replace it.
var newStore = storage.New

// service holds everything a run or scan needs, built once per process.
type service struct {
	cfg        *config.Config
	store      storage.ObjectStorage
	journal    journal.Journal
	notifier   alert.Notifier
	quarantine *quarantine.Log
	pipeline   *admission.Pipeline
	dispatcher *dispatch.Dispatcher
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.SetJSON(cfg.Log.Format == "json")
	logger.SetLevel(cfg.Log.Level)
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return cfg, nil
}

// newService connects every collaborator. Any failure here is fatal: the
// process cannot do useful work without the store.
func newService(ctx context.Context, cfg *config.Config) (*service, error) {
	store, err := newStore(cfg.Storage)
	if err != nil {
		return nil, &config.ConfigError{Field: "STORAGE", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("object store unreachable: %w", err)
	}
	logger.Log.Info().
		Str("driver", cfg.Storage.Driver).
		Str("bucket", cfg.Storage.Bucket).
		Msg("Connected to object store")

	var j journal.Journal
	if cfg.Journal.DatabaseURL != "" {
		pg, err := journal.NewPostgres(ctx, cfg.Journal.DatabaseURL)
		if err != nil {
			return nil, err
		}
		j = pg
	} else {
		j = journal.NewMemory(journal.DefaultMemoryCapacity)
	}

	notifier, err := alert.New(cfg.Alert)
	if err != nil {
		_ = j.Close()
		return nil, &config.ConfigError{Field: "ALERT_BACKEND", Err: err}
	}

	qlog := quarantine.New(cfg.Watch.Root, cfg.Watch.QuarantineLogName)
	pipeline := admission.New(store, qlog, notifier, j, admission.Config{
		SettleDelay:     cfg.Pipeline.SettleDelay,
		MaxSettleChecks: cfg.Pipeline.MaxSettleChecks,
		Retry: admission.RetryPolicy{
			Attempts: cfg.Pipeline.UploadAttempts,
			Backoff:  cfg.Pipeline.RetryBackoff,
		},
	})

	dispatcher := dispatch.New(pipeline, dispatch.Config{
		Workers:         cfg.Pipeline.Workers,
		ShutdownTimeout: cfg.Pipeline.ShutdownTimeout,
	})

	return &service{
		cfg:        cfg,
		store:      store,
		journal:    j,
		notifier:   notifier,
		quarantine: qlog,
		pipeline:   pipeline,
		dispatcher: dispatcher,
	}, nil
}

func (s *service) Close() error {
	var errs []error
	if closer, ok := s.notifier.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, s.journal.Close())
	return errors.Join(errs...)
}

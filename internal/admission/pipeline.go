package admission

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/andresuchdata/dropgate/internal/alert"
	"github.com/andresuchdata/dropgate/internal/domain"
	"github.com/andresuchdata/dropgate/internal/journal"
	"github.com/andresuchdata/dropgate/internal/naming"
	"github.com/andresuchdata/dropgate/internal/quarantine"
	"github.com/andresuchdata/dropgate/internal/storage"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

// journalTimeout bounds a single journal write.
const journalTimeout = 10 * time.Second

// Config tunes a Pipeline.
type Config struct {
	SettleDelay     time.Duration // Pause before a provisional name is re-checked
	MaxSettleChecks int           // How many times an event may be delayed
	Retry           RetryPolicy   // Applies to existence checks and uploads
}

// DefaultConfig is a 3s settle delay, one re-check and DefaultRetryPolicy.
func DefaultConfig() Config {
	return Config{
		SettleDelay:     3 * time.Second,
		MaxSettleChecks: 1,
		Retry:           DefaultRetryPolicy(),
	}
}

// Result is what happened to one FileEvent.
type Result struct {
	// Event is the processed event. For a Delayed result it is the event to
	// submit again once the settle delay has passed.
	Event          domain.FileEvent
	Outcome        domain.Outcome
	Classification naming.Classification
	RemoteKey      string
	Attempts       int
	Err            error
}

// Pipeline runs the per-file admission steps: classify, check the store,
// then skip, upload or quarantine.
type Pipeline struct {
	checker    *ExistenceChecker
	uploader   *Uploader
	quarantine *quarantine.Log
	notifier   alert.Notifier
	journal    journal.Journal
	cfg        Config

	now    func() time.Time
	remove func(string) error
}

// New wires a Pipeline. A nil journal disables outcome journaling.
func New(store storage.ObjectStorage, qlog *quarantine.Log, notifier alert.Notifier, j journal.Journal, cfg Config) *Pipeline {
	if j == nil {
		j = journal.Nop{}
	}
	if cfg.MaxSettleChecks < 0 {
		cfg.MaxSettleChecks = 0
	}
	return &Pipeline{
		checker:    NewExistenceChecker(store),
		uploader:   NewUploader(store, cfg.Retry),
		quarantine: qlog,
		notifier:   notifier,
		journal:    j,
		cfg:        cfg,
		now:        time.Now,
		remove:     os.Remove,
	}
}

// SettleDelay is how long a Delayed event should wait before resubmission.
func (p *Pipeline) SettleDelay() time.Duration {
	return p.cfg.SettleDelay
}

// Admit processes ev to a terminal outcome, sleeping through settle delays
// inline. It is meant for sequential callers; the dispatcher uses Process
// and schedules the delay itself.
func (p *Pipeline) Admit(ctx context.Context, ev domain.FileEvent) Result {
	res := p.Process(ctx, ev)
	for res.Outcome == domain.OutcomeDelayed {
		timer := time.NewTimer(p.cfg.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Event: res.Event, Outcome: domain.OutcomeIgnored, Classification: res.Classification, Err: ctx.Err()}
		case <-timer.C:
		}
		res = p.Process(ctx, res.Event)
	}
	return res
}

// Process runs one pass of the admission steps over ev. The outcome is
// terminal except for Delayed, which asks the caller to come back after
// SettleDelay with Result.Event.
func (p *Pipeline) Process(ctx context.Context, ev domain.FileEvent) Result {
	res := Result{Event: ev}

	if p.quarantine != nil && p.quarantine.IsReserved(ev.Path) {
		res.Outcome = domain.OutcomeIgnored
		return res
	}

	info, err := os.Stat(ev.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Log.Debug().Str("path", ev.Path).Msg("File no longer exists, ignoring")
		res.Outcome = domain.OutcomeIgnored
		return res
	case err != nil:
		logger.Log.Error().Err(err).Str("path", ev.Path).Msg("Failed to stat file")
		res.Outcome = domain.OutcomeFailed
		res.Err = fmt.Errorf("stat %s: %w", ev.Path, err)
		p.record(ctx, res)
		return res
	case info.IsDir():
		res.Outcome = domain.OutcomeIgnored
		return res
	}

	res.Classification = naming.Classify(ev.Path)
	switch res.Classification {
	case naming.DelayRequired:
		if ev.SettleChecks < p.cfg.MaxSettleChecks {
			logger.Log.Info().
				Str("path", ev.Path).
				Int("settle_check", ev.SettleChecks+1).
				Dur("delay", p.cfg.SettleDelay).
				Msg("Provisional file name, waiting for it to settle")
			res.Outcome = domain.OutcomeDelayed
			res.Event.SettleChecks = ev.SettleChecks + 1
			return res
		}
		return p.reject(ctx, res)
	case naming.Invalid:
		return p.reject(ctx, res)
	}

	return p.admit(ctx, res)
}

// reject quarantines the file and alerts the operator. The file stays where
// it is.
func (p *Pipeline) reject(ctx context.Context, res Result) Result {
	path := res.Event.Path
	res.Outcome = domain.OutcomeQuarantined
	res.Err = &NameFormatError{Path: path}

	logger.Log.Warn().
		Str("path", path).
		Str("classification", res.Classification.String()).
		Msg("Invalid file name, quarantining")

	at := p.now()
	if p.quarantine != nil {
		entry, err := p.quarantine.Record(path)
		if err != nil {
			logger.Log.Error().Err(err).Str("path", path).Msg("Failed to append to quarantine log")
			res.Err = errors.Join(res.Err, err)
		} else {
			at = entry.RecordedAt
		}
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, alert.InvalidName(path, at)); err != nil {
			logger.Log.Error().Err(err).Str("path", path).Msg("Failed to raise alert")
		}
	}

	p.record(ctx, res)
	return res
}

// admit sends a valid file to the store, or drops it when the store already
// has it.
func (p *Pipeline) admit(ctx context.Context, res Result) Result {
	path := res.Event.Path
	key := naming.RemoteKey(path)
	res.RemoteKey = key

	exists, attempts, err := p.exists(ctx, key)
	if err != nil {
		logger.Log.Error().Err(err).Str("path", path).Str("key", key).Msg("Existence check failed, keeping local file")
		res.Outcome = domain.OutcomeFailed
		res.Attempts = attempts
		res.Err = err
		p.record(ctx, res)
		return res
	}

	if exists {
		logger.Log.Info().Str("path", path).Str("key", key).Msg("Object already stored, removing duplicate")
		res.Outcome = domain.OutcomeSkipped
		res.Err = p.removeLocal(path)
		p.record(ctx, res)
		return res
	}

	attempts, err = p.uploader.Upload(ctx, path, key)
	res.Attempts = attempts
	if err != nil {
		res.Outcome = domain.OutcomeFailed
		res.Err = err
		p.record(ctx, res)
		return res
	}

	res.Outcome = domain.OutcomeUploaded
	res.Err = p.removeLocal(path)
	p.record(ctx, res)
	return res
}

func (p *Pipeline) exists(ctx context.Context, key string) (bool, int, error) {
	var found bool
	attempts, err := p.cfg.Retry.do(ctx, func(ctx context.Context, attempt int) error {
		ok, err := p.checker.Exists(ctx, key)
		if err != nil {
			logger.Log.Warn().Err(err).Str("key", key).Int("attempt", attempt).Msg("Existence check attempt failed")
			return err
		}
		found = ok
		return nil
	})
	if err != nil {
		var se *StoreError
		if errors.As(err, &se) {
			err = se.Err
		}
		return false, attempts, &StoreError{Op: "exists", Key: key, Attempts: attempts, Err: err}
	}
	return found, attempts, nil
}

func (p *Pipeline) removeLocal(path string) error {
	if err := p.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Log.Error().Err(err).Str("path", path).Msg("Failed to remove local file")
		return fmt.Errorf("remove local file: %w", err)
	}
	logger.Log.Debug().Str("path", path).Msg("Removed local file")
	return nil
}

func (p *Pipeline) record(ctx context.Context, res Result) {
	if !res.Outcome.Terminal() || res.Outcome == domain.OutcomeIgnored {
		return
	}

	rec := domain.OutcomeRecord{
		Path:       res.Event.Path,
		RemoteKey:  res.RemoteKey,
		Outcome:    res.Outcome,
		Attempts:   res.Attempts,
		RecordedAt: p.now(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}

	// ctx is the dispatcher's work context, so a shutdown that gives up on
	// in-flight files also gives up on a stalled journal.
	ctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()
	if err := p.journal.Record(ctx, rec); err != nil {
		logger.Log.Error().Err(err).Str("path", rec.Path).Msg("Failed to journal outcome")
	}
}

// Package dispatch feeds FileEvents to a pool of workers. The intake never
// blocks the event source: events wait in an unbounded queue, duplicates of
// a queued path are dropped, and provisional files are parked on a timer
// instead of occupying a worker. A path is never handled by two workers at
// once; an event for a path in flight is held until that result arrives.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/dropgate/internal/admission"
	"github.com/andresuchdata/dropgate/internal/domain"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

// Processor runs one admission pass over an event.
type Processor interface {
	Process(ctx context.Context, ev domain.FileEvent) admission.Result
	SettleDelay() time.Duration
}

// Config tunes a Dispatcher.
type Config struct {
	Workers         int           // Number of concurrent workers
	ShutdownTimeout time.Duration // Grace period for in-flight files on shutdown
}

// Dispatcher owns the queue and the worker pool.
type Dispatcher struct {
	proc  Processor
	cfg   Config
	stats *Stats

	// OnResult, when set, is called from the worker goroutine for every
	// result, Delayed included.
	OnResult func(admission.Result)
}

func New(proc Processor, cfg Config) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Dispatcher{proc: proc, cfg: cfg, stats: NewStats()}
}

func (d *Dispatcher) Stats() *Stats {
	return d.stats
}

// Run consumes in until ctx is done or in is closed and all work, delayed
// events included, has finished. On cancellation it stops taking events,
// drops what is still queued or delayed, and gives in-flight files up to
// ShutdownTimeout before cancelling them.
func (d *Dispatcher) Run(ctx context.Context, in <-chan domain.FileEvent) error {
	// Work outlives ctx so that a shutdown does not abort an upload midway.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	jobs := make(chan domain.FileEvent)
	results := make(chan admission.Result, d.cfg.Workers)
	requeue := make(chan domain.FileEvent)
	stopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for ev := range jobs {
				res := d.proc.Process(workCtx, ev)
				if d.OnResult != nil {
					d.OnResult(res)
				}
				logger.Log.Debug().
					Int("worker", workerID).
					Str("path", ev.Path).
					Str("outcome", string(res.Outcome)).
					Msg("Processed file")
				results <- res
			}
		}(i)
	}

	var (
		queue    []domain.FileEvent
		queued   = make(map[string]bool)
		active   = make(map[string]bool)
		held     = make(map[string]domain.FileEvent)
		inFlight int
		timers   = make(map[*time.Timer]struct{})
		timersMu sync.Mutex
	)

	enqueue := func(ev domain.FileEvent) {
		if queued[ev.Path] {
			d.stats.coalesced.Add(1)
			return
		}
		if active[ev.Path] {
			if _, ok := held[ev.Path]; ok {
				d.stats.coalesced.Add(1)
				return
			}
			held[ev.Path] = ev
			return
		}
		queued[ev.Path] = true
		queue = append(queue, ev)
		d.stats.queued.Add(1)
	}

	park := func(ev domain.FileEvent) {
		d.stats.delayed.Add(1)
		timersMu.Lock()
		defer timersMu.Unlock()
		var t *time.Timer
		t = time.AfterFunc(d.proc.SettleDelay(), func() {
			timersMu.Lock()
			delete(timers, t)
			timersMu.Unlock()
			select {
			case requeue <- ev:
			case <-stopped:
			}
		})
		timers[t] = struct{}{}
	}

	finish := func(res admission.Result) {
		d.stats.inFlight.Add(-1)
		d.stats.observe(res.Outcome)
	}

	delayed := 0
	shutdown := func() error {
		close(stopped)
		timersMu.Lock()
		for t := range timers {
			t.Stop()
		}
		timersMu.Unlock()

		dropped := len(queue) + len(held) + delayed
		if dropped > 0 {
			d.stats.dropped.Add(int64(dropped))
			logger.Log.Warn().
				Int("queued", len(queue)).
				Int("held", len(held)).
				Int("delayed", delayed).
				Msg("Shutting down, dropping pending events until next start")
		}
		d.stats.queued.Store(0)
		d.stats.delayed.Store(0)
		close(jobs)

		d.drain(results, inFlight, cancelWork, finish)
		wg.Wait()
		return nil
	}

	for {
		if ctx.Err() != nil {
			return shutdown()
		}
		if in == nil && len(queue) == 0 && inFlight == 0 && delayed == 0 {
			close(stopped)
			close(jobs)
			wg.Wait()
			return nil
		}

		var (
			next domain.FileEvent
			out  chan domain.FileEvent
		)
		if len(queue) > 0 {
			next, out = queue[0], jobs
		}

		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			d.stats.received.Add(1)
			enqueue(ev)

		case ev := <-requeue:
			delayed--
			d.stats.delayed.Add(-1)
			enqueue(ev)

		case out <- next:
			queue = queue[1:]
			delete(queued, next.Path)
			active[next.Path] = true
			inFlight++
			d.stats.queued.Add(-1)
			d.stats.inFlight.Add(1)

		case res := <-results:
			inFlight--
			finish(res)
			delete(active, res.Event.Path)
			ev, wasHeld := held[res.Event.Path]
			delete(held, res.Event.Path)
			switch {
			case res.Outcome == domain.OutcomeDelayed:
				// The parked event re-checks the file and keeps its settle count.
				if wasHeld {
					d.stats.coalesced.Add(1)
				}
				delayed++
				park(res.Event)
			case wasHeld:
				// Checked again from scratch; a file that was just uploaded
				// and removed ends as Ignored.
				enqueue(ev)
			}

		case <-ctx.Done():
			return shutdown()
		}
	}
}

// drain collects the results of in-flight work, cancelling it once the
// shutdown timeout passes.
func (d *Dispatcher) drain(results <-chan admission.Result, inFlight int, cancelWork context.CancelFunc, finish func(admission.Result)) {
	if inFlight == 0 {
		return
	}
	logger.Log.Info().
		Int("in_flight", inFlight).
		Dur("timeout", d.cfg.ShutdownTimeout).
		Msg("Waiting for in-flight files")

	grace := time.NewTimer(d.cfg.ShutdownTimeout)
	defer grace.Stop()

	for inFlight > 0 {
		select {
		case res := <-results:
			inFlight--
			finish(res)
			if res.Outcome == domain.OutcomeDelayed {
				d.stats.dropped.Add(1)
			}
		case <-grace.C:
			logger.Log.Warn().Int("in_flight", inFlight).Msg("Shutdown timeout reached, cancelling in-flight files")
			cancelWork()
		}
	}
}

package dispatch

import (
	"sync/atomic"
	"time"

	"github.com/andresuchdata/dropgate/internal/domain"
)

// Stats counts what the dispatcher has done. Safe for concurrent use.
type Stats struct {
	startedAt time.Time
	outcomes  map[domain.Outcome]*atomic.Int64
	received  atomic.Int64
	coalesced atomic.Int64
	queued    atomic.Int64
	inFlight  atomic.Int64
	delayed   atomic.Int64
	dropped   atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	StartedAt time.Time                `json:"started_at"`
	Outcomes  map[domain.Outcome]int64 `json:"outcomes"`
	Received  int64                    `json:"received"`
	Coalesced int64                    `json:"coalesced"`
	Queued    int64                    `json:"queued"`
	InFlight  int64                    `json:"in_flight"`
	Delayed   int64                    `json:"delayed"`
	Dropped   int64                    `json:"dropped"`
}

func NewStats() *Stats {
	s := &Stats{
		startedAt: time.Now(),
		outcomes:  make(map[domain.Outcome]*atomic.Int64, len(domain.Outcomes)),
	}
	for _, o := range domain.Outcomes {
		s.outcomes[o] = new(atomic.Int64)
	}
	return s
}

func (s *Stats) observe(o domain.Outcome) {
	if c, ok := s.outcomes[o]; ok {
		c.Add(1)
	}
}

func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		StartedAt: s.startedAt,
		Outcomes:  make(map[domain.Outcome]int64, len(s.outcomes)),
		Received:  s.received.Load(),
		Coalesced: s.coalesced.Load(),
		Queued:    s.queued.Load(),
		InFlight:  s.inFlight.Load(),
		Delayed:   s.delayed.Load(),
		Dropped:   s.dropped.Load(),
	}
	for o, c := range s.outcomes {
		snap.Outcomes[o] = c.Load()
	}
	return snap
}

// Count returns how many events ended with outcome o.
func (s Snapshot) Count(o domain.Outcome) int64 {
	return s.Outcomes[o]
}

// Failures is the number of events that need operator attention.
func (s Snapshot) Failures() int64 {
	return s.Outcomes[domain.OutcomeFailed] + s.Outcomes[domain.OutcomeQuarantined]
}

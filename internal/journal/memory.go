package journal

import (
	"context"
	"sync"

	"github.com/andresuchdata/dropgate/internal/domain"
)

const DefaultMemoryCapacity = 500

// Memory keeps the most recent records in a fixed-size ring.
type Memory struct {
	mu     sync.RWMutex
	buf    []domain.OutcomeRecord
	next   int
	full   bool
	lastID int64
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{buf: make([]domain.OutcomeRecord, capacity)}
}

func (m *Memory) Record(_ context.Context, rec domain.OutcomeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	rec.ID = m.lastID
	m.buf[m.next] = rec
	m.next = (m.next + 1) % len(m.buf)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]domain.OutcomeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.buf)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]domain.OutcomeRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

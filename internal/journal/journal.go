// Package journal keeps a record of every terminal outcome the pipeline
// produces.
package journal

import (
	"context"

	"github.com/andresuchdata/dropgate/internal/domain"
)

// Journal persists outcome records.
type Journal interface {
	Record(ctx context.Context, rec domain.OutcomeRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.OutcomeRecord, error)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, domain.OutcomeRecord) error { return nil }

func (Nop) Recent(context.Context, int) ([]domain.OutcomeRecord, error) { return nil, nil }

func (Nop) Close() error { return nil }

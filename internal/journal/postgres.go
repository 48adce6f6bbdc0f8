package journal

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/dropgate/internal/domain"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS ingest_outcomes (
	id            BIGSERIAL PRIMARY KEY,
	path          TEXT        NOT NULL,
	remote_key    TEXT        NOT NULL DEFAULT '',
	outcome       TEXT        NOT NULL,
	attempts      INTEGER     NOT NULL DEFAULT 0,
	error_message TEXT        NOT NULL DEFAULT '',
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const insertSQL = `
INSERT INTO ingest_outcomes (path, remote_key, outcome, attempts, error_message, recorded_at)
VALUES (:path, :remote_key, :outcome, :attempts, :error_message, :recorded_at)`

const recentSQL = `
SELECT id, path, remote_key, outcome, attempts, error_message, recorded_at
FROM ingest_outcomes
ORDER BY id DESC
LIMIT $1`

// Postgres stores records in the ingest_outcomes table.
type Postgres struct {
	db  *sqlx.DB
	sem *semaphore.Weighted
}

// NewPostgres connects to dsn through the pgx driver and makes sure the
// table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect journal database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	return newPostgres(db), nil
}

func newPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{
		db:  db,
		sem: semaphore.NewWeighted(10), // Limit to 10 concurrent operations
	}
}

func (p *Postgres) Record(ctx context.Context, rec domain.OutcomeRecord) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer p.sem.Release(1)

	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	if _, err := p.db.NamedExecContext(ctx, insertSQL, rec); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]domain.OutcomeRecord, error) {
	if limit <= 0 {
		limit = DefaultMemoryCapacity
	}

	var records []domain.OutcomeRecord
	if err := p.db.SelectContext(ctx, &records, recentSQL, limit); err != nil {
		return nil, fmt.Errorf("select outcomes: %w", err)
	}
	return records, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

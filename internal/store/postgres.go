package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cleaning_runs (
	id             UUID PRIMARY KEY,
	kind           TEXT NOT NULL,
	source_file    TEXT NOT NULL,
	output_file    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	stats          JSONB NOT NULL,
	score          DOUBLE PRECISION NOT NULL DEFAULT 0,
	processed_rows INTEGER NOT NULL DEFAULT 0,
	processed_cols INTEGER NOT NULL DEFAULT 0,
	duration_ms    BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS cleaning_runs_created_at_idx ON cleaning_runs (created_at DESC);
`

const runColumns = `id, kind, source_file, output_file, status, error, stats, score,
	processed_rows, processed_cols, duration_ms, created_at`

// PGRuns stores run history in PostgreSQL.
type PGRuns struct {
	db DBTX
}

// NewPGRuns wraps a pool or transaction.
func NewPGRuns(db DBTX) *PGRuns {
	return &PGRuns{db: db}
}

// EnsureSchema creates the runs table if it does not exist.
func (p *PGRuns) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure cleaning_runs schema: %w", err)
	}
	return nil
}

// Insert stores a run.
func (p *PGRuns) Insert(ctx context.Context, run Run) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return fmt.Errorf("run id %q: %w", run.ID, err)
	}

	_, err = p.db.Exec(ctx,
		`INSERT INTO cleaning_runs (`+runColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, run.Kind, run.SourceFile, run.OutputFile, run.Status, run.Error, run.Stats, run.Score,
		run.ProcessedRows, run.ProcessedCols, run.DurationMS, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns one run by ID.
func (p *PGRuns) Get(ctx context.Context, id string) (Run, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}

	row := p.db.QueryRow(ctx, `SELECT `+runColumns+` FROM cleaning_runs WHERE id = $1`, parsed)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (p *PGRuns) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+runColumns+` FROM cleaning_runs ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteBefore removes runs created before cutoff.
func (p *PGRuns) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx, `DELETE FROM cleaning_runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		run Run
		id  uuid.UUID
	)
	err := row.Scan(&id, &run.Kind, &run.SourceFile, &run.OutputFile, &run.Status, &run.Error,
		&run.Stats, &run.Score, &run.ProcessedRows, &run.ProcessedCols, &run.DurationMS, &run.CreatedAt)
	if err != nil {
		return Run{}, err
	}
	run.ID = id.String()
	return run, nil
}

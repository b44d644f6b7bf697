// Package postgres persists the run ledger: every queued pipeline invocation,
// its lifecycle status and, for completed runs, the unified result document.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input_folder TEXT NOT NULL,
	output_dir TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	result JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO runs (id, input_folder, output_dir, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, run.ID, run.InputFolder, run.OutputDir, string(run.Status), run.Error, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, input_folder, output_dir, status, error_message, created_at, updated_at
FROM runs
WHERE id = $1
`, id)

	var run domain.Run
	var status string
	var outputDir, errMessage sql.NullString
	err := row.Scan(&run.ID, &run.InputFolder, &outputDir, &status, &errMessage, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	run.Status = domain.RunStatus(status)
	run.OutputDir = outputDir.String
	run.Error = errMessage.String
	return &run, nil
}

func (r *RunRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id, domain.RunProcessing, "", nil)
}

func (r *RunRepository) Complete(ctx context.Context, id string, result *domain.UnifiedResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}
	return r.updateStatus(ctx, id, domain.RunCompleted, "", payload)
}

func (r *RunRepository) Fail(ctx context.Context, id string, errMessage string) error {
	return r.updateStatus(ctx, id, domain.RunFailed, errMessage, nil)
}

func (r *RunRepository) updateStatus(ctx context.Context, id string, status domain.RunStatus, errMessage string, result []byte) error {
	var resultArg any
	if result != nil {
		resultArg = result
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE runs
SET status = $2, error_message = $3, result = COALESCE($4, result), updated_at = $5
WHERE id = $1
`, id, string(status), errMessage, resultArg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

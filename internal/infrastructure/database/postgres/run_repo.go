package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// RunRecord is one row of dataset_runs.
type RunRecord struct {
	RunID      string
	Mode       string
	Datapoints int
	Chunks     int
	// Manifest is the JSON document announced to trainers.
	Manifest   []byte
	CreatedAt  time.Time
	VerifiedAt *time.Time
}

const (
	upsertRunSQL = `
INSERT INTO dataset_runs (run_id, mode, datapoints, chunks, manifest, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (run_id) DO UPDATE SET
    mode        = EXCLUDED.mode,
    datapoints  = EXCLUDED.datapoints,
    chunks      = EXCLUDED.chunks,
    manifest    = EXCLUDED.manifest,
    created_at  = EXCLUDED.created_at,
    verified_at = NULL`

	markVerifiedSQL = `UPDATE dataset_runs SET verified_at = $2 WHERE run_id = $1`

	selectRunColumns = `run_id, mode, datapoints, chunks, manifest, created_at, verified_at`

	getRunSQL = `SELECT ` + selectRunColumns + ` FROM dataset_runs WHERE run_id = $1`

	listRunsSQL = `SELECT ` + selectRunColumns + ` FROM dataset_runs ORDER BY created_at DESC, run_id LIMIT $1`
)

// RunRepository persists RunRecords.
type RunRepository struct {
	db     DBTX
	logger logging.Logger
}

// NewRunRepository creates a repository over db.
func NewRunRepository(db DBTX, log logging.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logging.OrDefault(log)}
}

// Save inserts rec or replaces the row with the same run ID.  Replacing a
// run clears its verification.
func (r *RunRepository) Save(ctx context.Context, rec *RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return errors.InvalidParam("run record requires a run ID")
	}
	_, err := r.db.Exec(ctx, upsertRunSQL,
		rec.RunID, rec.Mode, rec.Datapoints, rec.Chunks, rec.Manifest, rec.CreatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save run")
	}
	r.logger.Debug("Run saved", logging.String("run_id", rec.RunID))
	return nil
}

// MarkVerified stamps the run as verified at at.
func (r *RunRepository) MarkVerified(ctx context.Context, runID string, at time.Time) error {
	tag, err := r.db.Exec(ctx, markVerifiedSQL, runID, at.UTC())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to mark run verified")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("run not found").WithDetail("run_id=" + runID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	if err := row.Scan(&rec.RunID, &rec.Mode, &rec.Datapoints, &rec.Chunks, &rec.Manifest, &rec.CreatedAt, &rec.VerifiedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get returns one run.
func (r *RunRepository) Get(ctx context.Context, runID string) (*RunRecord, error) {
	rec, err := scanRun(r.db.QueryRow(ctx, getRunSQL, runID))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFound("run not found").WithDetail("run_id=" + runID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get run")
	}
	return rec, nil
}

// List returns at most limit runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan run")
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list runs")
	}
	return out, nil
}

//Personal.AI order the ending

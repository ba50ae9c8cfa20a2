package pretraining

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// RunSummary is one entry of the run registry.
type RunSummary struct {
	RunID      string     `json:"run_id"`
	Mode       string     `json:"mode"`
	Datapoints int        `json:"datapoints"`
	Chunks     int        `json:"chunks"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// RunRegistry records exported runs and their verification.
type RunRegistry interface {
	RecordRun(ctx context.Context, m *ChunkManifest) error
	MarkVerified(ctx context.Context, runID string, at time.Time) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

type postgresRunRegistry struct {
	repo *postgres.RunRepository
}

// NewPostgresRunRegistry stores runs in the dataset_runs table.
func NewPostgresRunRegistry(repo *postgres.RunRepository) RunRegistry {
	return &postgresRunRegistry{repo: repo}
}

func (r *postgresRunRegistry) RecordRun(ctx context.Context, m *ChunkManifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding manifest")
	}
	return r.repo.Save(ctx, &postgres.RunRecord{
		RunID:      m.RunID,
		Mode:       m.Mode,
		Datapoints: m.Datapoints,
		Chunks:     len(m.Chunks),
		Manifest:   data,
		CreatedAt:  m.CreatedAt,
	})
}

func (r *postgresRunRegistry) MarkVerified(ctx context.Context, runID string, at time.Time) error {
	return r.repo.MarkVerified(ctx, runID, at)
}

func (r *postgresRunRegistry) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	recs, err := r.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunSummary, len(recs))
	for i, rec := range recs {
		out[i] = RunSummary{
			RunID:      rec.RunID,
			Mode:       rec.Mode,
			Datapoints: rec.Datapoints,
			Chunks:     rec.Chunks,
			CreatedAt:  rec.CreatedAt,
			VerifiedAt: rec.VerifiedAt,
		}
	}
	return out, nil
}

// ListRuns returns the newest registered runs.
func (s *serviceImpl) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if s.runs == nil {
		return nil, errors.Configuration("run registry requires postgres.enabled")
	}
	return s.runs.ListRuns(ctx, limit)
}

//Personal.AI order the ending

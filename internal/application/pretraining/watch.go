package pretraining

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// HandleChunkReady is the consumer callback of `moldata watch`.  It reads
// every chunk a manifest announces back from the artifact store and checks
// it against the manifest.  Other event types are acknowledged and ignored.
func (s *serviceImpl) HandleChunkReady(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		s.record(kafka.EventChunkReady, err)
		return err
	}
	if env.EventType != kafka.EventChunkReady {
		s.logger.Debug("ignoring event", logging.String("event_type", env.EventType), logging.String("event_id", env.EventID))
		return nil
	}

	var manifest ChunkManifest
	if err := env.DecodePayload(&manifest); err != nil {
		s.record(env.EventType, err)
		return err
	}
	err = s.VerifyManifest(ctx, &manifest)
	s.record(env.EventType, err)
	return err
}

// VerifyManifest loads every chunk of manifest and checks run id, index and
// size.
func (s *serviceImpl) VerifyManifest(ctx context.Context, manifest *ChunkManifest) error {
	total := 0
	for _, ref := range manifest.Chunks {
		chunk, err := LoadChunk(ctx, s.store, ref.Key)
		if err != nil {
			return err
		}
		switch {
		case chunk.RunID != manifest.RunID:
			return errors.Newf(errors.ErrCodeValidation, "chunk %s belongs to run %s, manifest names %s", ref.Key, chunk.RunID, manifest.RunID)
		case chunk.Index != ref.Index:
			return errors.Newf(errors.ErrCodeValidation, "chunk %s has index %d, manifest names %d", ref.Key, chunk.Index, ref.Index)
		case len(chunk.Records) != ref.Size:
			return errors.Newf(errors.ErrCodeValidation, "chunk %s holds %d records, manifest names %d", ref.Key, len(chunk.Records), ref.Size)
		}
		total += len(chunk.Records)
	}
	if total != manifest.Datapoints {
		return errors.Newf(errors.ErrCodeValidation, "run %s holds %d records, manifest names %d", manifest.RunID, total, manifest.Datapoints)
	}
	s.logger.Info("Chunk run verified",
		logging.String("run_id", manifest.RunID),
		logging.String("mode", manifest.Mode),
		logging.Int("chunks", len(manifest.Chunks)),
		logging.Int("datapoints", total),
	)

	if s.runs == nil {
		return nil
	}
	err := s.runs.MarkVerified(ctx, manifest.RunID, time.Now().UTC())
	if errors.IsNotFound(err) {
		s.logger.Warn("Verified run is not registered", logging.String("run_id", manifest.RunID))
		return nil
	}
	return err
}

func (s *serviceImpl) record(eventType string, err error) {
	if s.metrics != nil {
		prometheus.RecordEventConsumed(s.metrics, eventType, err)
	}
}

//Personal.AI order the ending

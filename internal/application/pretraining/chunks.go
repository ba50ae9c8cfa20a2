package pretraining

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/KeyIP-MolData/internal/intelligence/moldata"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

const contentTypeJSON = "application/json"

// ChunkRecord is the serialized form of one Datapoint.
type ChunkRecord struct {
	SMILES            string                    `json:"smiles"`
	Name              string                    `json:"name,omitempty"`
	Features          []float64                 `json:"features,omitempty"`
	Targets           []moldata.Label           `json:"targets,omitempty"`
	Sparse            *moldata.SparseLabelArray `json:"sparse,omitempty"`
	Adjacency         [][]int                   `json:"adjacency,omitempty"`
	VocabTargets      []int                     `json:"vocab_targets,omitempty"`
	Mask              []int                     `json:"mask,omitempty"`
	Substructures     [][]int                   `json:"substructures,omitempty"`
	SubstructureIndex []int                     `json:"substructure_index,omitempty"`
}

// Chunk is one exported slice of a dataset.
type Chunk struct {
	RunID   string        `json:"run_id"`
	ChunkID string        `json:"chunk_id"`
	Index   int           `json:"index"`
	Mode    string        `json:"mode"`
	Records []ChunkRecord `json:"records"`
}

// ChunkRef locates an exported chunk.
type ChunkRef struct {
	ChunkID string `json:"chunk_id"`
	Index   int    `json:"index"`
	Key     string `json:"key"`
	Size    int    `json:"size"`
}

// ChunkManifest announces a finished run to downstream trainers.
type ChunkManifest struct {
	RunID        string     `json:"run_id"`
	Mode         string     `json:"mode"`
	Datapoints   int        `json:"datapoints"`
	FeaturesSize int        `json:"features_size"`
	OutputSize   int        `json:"output_size,omitempty"`
	Chunks       []ChunkRef `json:"chunks"`
	ScalerKey    string     `json:"scaler_key,omitempty"`
	VocabKey     string     `json:"vocab_key,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RunPrefix is the artifact key prefix of a run.
func RunPrefix(prefix, runID string) string {
	return path.Join(prefix, runID)
}

// ChunkKey is the artifact key of chunk i of a run.
func ChunkKey(prefix, runID string, i int) string {
	return path.Join(prefix, runID, fmt.Sprintf("chunk-%d.json", i))
}

func recordOf(d *moldata.Datapoint) ChunkRecord {
	r := ChunkRecord{
		SMILES:            d.SMILES,
		Features:          d.Features,
		Targets:           d.Targets,
		Sparse:            d.Sparse,
		Adjacency:         d.Adjacency,
		VocabTargets:      d.VocabTargets,
		Mask:              d.Mask,
		Substructures:     d.Substructures,
		SubstructureIndex: d.SubstructureIndex,
	}
	if d.HasName {
		r.Name = d.Name
	}
	return r
}

// NewChunk serializes the Datapoints of ds.
func NewChunk(runID string, index int, ds *moldata.Dataset) *Chunk {
	points := ds.Points()
	c := &Chunk{
		RunID:   runID,
		ChunkID: uuid.NewString(),
		Index:   index,
		Mode:    ds.Mode().String(),
		Records: make([]ChunkRecord, len(points)),
	}
	for i, d := range points {
		c.Records[i] = recordOf(d)
	}
	return c
}

// WriteChunk stores c at key.
func WriteChunk(ctx context.Context, store ArtifactStore, key string, c *Chunk) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding chunk")
	}
	return store.Put(ctx, key, data, contentTypeJSON)
}

// LoadChunk reads back a chunk written by a prepare run.
func LoadChunk(ctx context.Context, store ArtifactStore, key string) (*Chunk, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var c Chunk
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding chunk "+key)
	}
	return &c, nil
}

//Personal.AI order the ending

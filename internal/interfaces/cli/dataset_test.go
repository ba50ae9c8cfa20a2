package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/internal/application/pretraining"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

const (
	regressionCSV = "smiles,a,b\nCCO,1,\nCC,0.5,2\nCCN,,3\n"
	corpusCSV     = "smiles\nCCO\nCCN\nCC(=O)O\nCCCC\nC1CCCCC1\nCC\nCOC\n"
)

func TestInspect_JSON(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	out, err := execute(t, regressionCSV, "--config", path, "-o", "json", "inspect", "-")
	require.NoError(t, err)

	var s pretraining.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "regression", s.Mode)
	assert.Equal(t, 3, s.Datapoints)
	assert.Equal(t, 2, s.NumTasks)
	assert.Equal(t, 2, s.MissingLabel)
}

func TestInspect_FromFile(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	csv := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(csv, []byte(regressionCSV), 0o644))

	out, err := execute(t, "", "--config", path, "inspect", csv)
	require.NoError(t, err)
	assert.Contains(t, out, "datapoints=3")
}

func TestInspect_MissingFile(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	_, err := execute(t, "", "--config", path, "inspect", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestInspect_RequiresArgument(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	_, err := execute(t, "", "--config", path, "inspect")
	assert.Error(t, err)
}

func TestVocabBuild(t *testing.T) {
	path, artifacts := writeConfig(t, "pretraining", "")
	out, err := execute(t, corpusCSV, "--config", path, "-o", "json", "vocab", "build", "-", "--key", "vocab/atoms.json")
	require.NoError(t, err)

	var res pretraining.VocabResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "vocab/atoms.json", res.Key)
	assert.Equal(t, "atom", res.Strategy)
	assert.Greater(t, res.OutputSize, 1)
	assert.FileExists(t, filepath.Join(artifacts, "vocab", "atoms.json"))
}

func TestVocabBuild_RequiresPretraining(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	_, err := execute(t, regressionCSV, "--config", path, "vocab", "build", "-")
	assert.True(t, errors.IsInvalidState(err))
}

func TestPrepare_LocalRun(t *testing.T) {
	path, artifacts := writeConfig(t, "pretraining", "worker:\n  sequential: true\n")
	out, err := execute(t, corpusCSV, "--config", path, "-o", "json", "prepare", "-", "--chunks", "3", "--run-id", "r1")
	require.NoError(t, err)

	var res pretraining.PrepareResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Published)
	require.NotNil(t, res.Manifest)
	assert.Equal(t, "r1", res.Manifest.RunID)
	assert.Equal(t, 7, res.Manifest.Datapoints)
	require.Len(t, res.Manifest.Chunks, 3)

	total := 0
	for i, c := range res.Manifest.Chunks {
		assert.Equal(t, i, c.Index)
		assert.FileExists(t, filepath.Join(artifacts, filepath.FromSlash(c.Key)))
		total += c.Size
	}
	assert.Equal(t, 7, total)
	assert.FileExists(t, filepath.Join(artifacts, "runs", "r1", "vocab.json"))
}

func TestPrepare_TableOutput(t *testing.T) {
	path, _ := writeConfig(t, "pretraining", "")
	out, err := execute(t, corpusCSV, "--config", path, "-o", "table", "prepare", "-", "--chunks", "2", "--run-id", "tbl")
	require.NoError(t, err)
	assert.Contains(t, out, "runs/tbl/chunk-0.json")
	assert.Contains(t, out, "runs/tbl/chunk-1.json")
}

func TestPrepare_TextOutput(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	out, err := execute(t, regressionCSV, "--config", path, "prepare", "-", "--run-id", "txt")
	require.NoError(t, err)
	assert.Contains(t, out, "run=txt mode=regression datapoints=3")
	assert.Contains(t, out, "chunk 0: 3 datapoints -> runs/txt/chunk-0.json")
}

func TestPrepare_InvalidChunkCount(t *testing.T) {
	path, _ := writeConfig(t, "pretraining", "")
	_, err := execute(t, corpusCSV, "--config", path, "prepare", "-", "--chunks", "0")
	assert.True(t, errors.IsConfiguration(err))
}

func TestWatch_RequiresKafka(t *testing.T) {
	path, _ := writeConfig(t, "pretraining", "")
	_, err := execute(t, "", "--config", path, "watch")
	assert.True(t, errors.IsConfiguration(err))
}

func TestOpsAddr(t *testing.T) {
	path, _ := writeConfig(t, "regression", "metrics:\n  enabled: true\n  addr: \":9300\"\n")
	cfg, _, err := initConfig(&RootOptions{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, ":1", opsAddr(":1", cfg, true))
	assert.Equal(t, ":9300", opsAddr("", cfg, true))
	assert.Equal(t, "", opsAddr("", cfg, false))

	cfg.Metrics.Enabled = false
	assert.Equal(t, "", opsAddr("", cfg, true))
}

func TestBuildRuntime_Metrics(t *testing.T) {
	path, _ := writeConfig(t, "regression", "metrics:\n  enabled: true\n  namespace: clitest\n")
	cfg, _, err := initConfig(&RootOptions{ConfigPath: path})
	require.NoError(t, err)

	rt, err := buildRuntime(&CLIContext{Config: cfg}, true)
	require.NoError(t, err)
	defer rt.Close()

	assert.NotNil(t, rt.Service)
	assert.NotNil(t, rt.Metrics)
	assert.Nil(t, rt.Features)
	require.Len(t, rt.Checks, 1)
	assert.Equal(t, "artifacts", rt.Checks[0].Name())
}

func TestBuildRuntime_UnknownBackend(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	cfg, _, err := initConfig(&RootOptions{ConfigPath: path})
	require.NoError(t, err)
	cfg.Artifacts.Backend = "s3"

	_, err = buildRuntime(&CLIContext{Config: cfg}, false)
	assert.True(t, errors.IsConfiguration(err))
}

//Personal.AI order the ending

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/internal/application/pretraining"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

// writeConfig writes a local-backend config of the given dataset type and
// returns its path and the artifact directory.
func writeConfig(t *testing.T, datasetType string, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	artifacts := filepath.Join(dir, "artifacts")
	body := "dataset:\n" +
		"  type: " + datasetType + "\n" +
		"  skip_header: true\n" +
		"  seed: 11\n" +
		"artifacts:\n" +
		"  backend: local\n" +
		"  local_dir: " + artifacts + "\n" +
		"log:\n" +
		"  level: warn\n" +
		extra
	path := filepath.Join(dir, "moldata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, artifacts
}

// execute runs the root command and returns what it wrote to stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()
	pf := cmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"config", "c", ""},
		{"log-level", "", ""},
		{"output", "o", "text"},
		{"verbose", "v", "false"},
		{"no-color", "", "false"},
		{"timeout", "", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := pf.Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRootCommand().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"inspect", "vocab", "prepare", "watch", "runs", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestVersionCmd(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	out, err := execute(t, "", "--config", path, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "moldata "+Version)
	assert.Contains(t, out, "commit: "+GitCommit)
}

func TestExecute_UnknownSubcommand(t *testing.T) {
	_, err := execute(t, "", "unknownsubcommand")
	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path, artifacts := writeConfig(t, "classification", "")

	cfg, used, err := initConfig(&RootOptions{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "classification", cfg.Dataset.Type)
	assert.Equal(t, artifacts, cfg.Artifacts.LocalDir)
	assert.Equal(t, "runs", cfg.Artifacts.Prefix)

	_, _, err = initConfig(&RootOptions{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestInitConfig_InvalidFile(t *testing.T) {
	path, _ := writeConfig(t, "bert", "")
	_, err := execute(t, "", "--config", path, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset.type")
}

func TestInitLogger(t *testing.T) {
	path, _ := writeConfig(t, "regression", "")
	cfg, _, err := initConfig(&RootOptions{ConfigPath: path})
	require.NoError(t, err)

	_, err = initLogger(cfg, &RootOptions{LogLevel: "loud"})
	assert.Error(t, err)

	log, err := initLogger(cfg, &RootOptions{LogLevel: "error", Verbose: true})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestPersistentPreRun_InstallsDefaultLogger(t *testing.T) {
	defer logging.SetDefault(logging.NewNopLogger())
	logging.SetDefault(logging.NewNopLogger())

	path, _ := writeConfig(t, "regression", "")
	_, err := execute(t, regressionCSV, "--config", path, "inspect", "-")
	require.NoError(t, err)
	assert.NotEqual(t, logging.NewNopLogger(), logging.Default())
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := &cobra.Command{}
	_, err := GetCLIContext(cmd)
	assert.True(t, errors.IsInvalidState(err))

	cmd.SetContext(context.Background())
	_, err = GetCLIContext(cmd)
	assert.True(t, errors.IsInvalidState(err))
}

func commandWithFormat(format string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetContext(context.WithValue(context.Background(), cliContextKey{}, &CLIContext{
		OutputFormat: format,
		Logger:       logging.NewNopLogger(),
	}))
	return cmd, &buf
}

func TestPrintResult_Formats(t *testing.T) {
	summary := summaryView{&pretraining.Summary{Mode: "pretraining", Datapoints: 7, NumTasks: 0}}

	cmd, buf := commandWithFormat("json")
	require.NoError(t, PrintResult(cmd, summary))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "pretraining", decoded["mode"])
	assert.Equal(t, float64(7), decoded["datapoints"])

	cmd, buf = commandWithFormat("text")
	require.NoError(t, PrintResult(cmd, summary))
	assert.Equal(t, "mode=pretraining datapoints=7 tasks=0 features=0 missing_labels=0\n", buf.String())

	cmd, buf = commandWithFormat("table")
	require.NoError(t, PrintResult(cmd, summary))
	assert.Contains(t, buf.String(), "pretraining")
	assert.Contains(t, buf.String(), "7")

	cmd, buf = commandWithFormat("table")
	require.NoError(t, PrintResult(cmd, "plain"))
	assert.Equal(t, "plain\n", buf.String())
}

func TestPrintResult_NoContextFallsBackToJSON(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, PrintResult(cmd, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, buf.String())
}

func TestPrintErrorAndSuccess(t *testing.T) {
	color.NoColor = true
	cmd, buf := commandWithFormat("text")

	PrintError(cmd, nil)
	assert.Empty(t, buf.String())

	PrintError(cmd, errors.InvalidParam("bad input"))
	assert.Contains(t, buf.String(), "Error: ")
	assert.Contains(t, buf.String(), "bad input")

	buf.Reset()
	PrintSuccess(cmd, "done")
	assert.Equal(t, "OK: done\n", buf.String())
}

//Personal.AI order the ending

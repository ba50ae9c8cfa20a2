package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-MolData/internal/application/pretraining"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
)

// openInput opens a CSV argument; "-" reads stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

// ─── inspect ────────────────────────────────────────────────────────────────

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <csv|->",
		Short: "Load a dataset CSV and summarize it",
		Example: `  moldata inspect data/tox21.csv
  cat data.csv | moldata inspect - -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rt, err := buildRuntime(cliCtx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			summary, err := rt.Service.Inspect(ctx, &pretraining.InspectInput{Data: in})
			if err != nil {
				return err
			}
			return PrintResult(cmd, summaryView{summary})
		},
	}
}

type summaryView struct {
	*pretraining.Summary
}

func (v summaryView) TableHeaders() []string {
	return []string{"Mode", "Datapoints", "Tasks", "Features", "Named", "Sparse", "Missing Labels"}
}

func (v summaryView) TableRows() [][]string {
	return [][]string{{
		v.Mode,
		strconv.Itoa(v.Datapoints),
		strconv.Itoa(v.NumTasks),
		strconv.Itoa(v.FeaturesSize),
		strconv.FormatBool(v.Named),
		strconv.FormatBool(v.SparseLabels),
		strconv.Itoa(v.MissingLabel),
	}}
}

func (v summaryView) String() string {
	return fmt.Sprintf("mode=%s datapoints=%d tasks=%d features=%d missing_labels=%d",
		v.Mode, v.Datapoints, v.NumTasks, v.FeaturesSize, v.MissingLabel)
}

// ─── vocab ──────────────────────────────────────────────────────────────────

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage pretraining vocabularies",
	}

	var key string
	build := &cobra.Command{
		Use:   "build <csv|->",
		Short: "Build a vocabulary from a corpus and persist it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rt, err := buildRuntime(cliCtx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			res, err := rt.Service.BuildVocabulary(ctx, &pretraining.VocabInput{Data: in, Key: key})
			if err != nil {
				return err
			}
			PrintSuccess(cmd, "vocabulary saved to "+res.Key)
			return PrintResult(cmd, vocabView{res})
		},
	}
	build.Flags().StringVar(&key, "key", "", "artifact key (default: pretraining.vocab_path or <prefix>/vocab.json)")

	cmd.AddCommand(build)
	return cmd
}

type vocabView struct {
	*pretraining.VocabResult
}

func (v vocabView) TableHeaders() []string { return []string{"Key", "Strategy", "Output Size"} }

func (v vocabView) TableRows() [][]string {
	return [][]string{{v.Key, v.Strategy, strconv.Itoa(v.OutputSize)}}
}

func (v vocabView) String() string {
	return fmt.Sprintf("key=%s strategy=%s output_size=%d", v.Key, v.Strategy, v.OutputSize)
}

// ─── prepare ────────────────────────────────────────────────────────────────

type prepareOptions struct {
	chunks      int
	runID       string
	metricsAddr string
}

func newPrepareCmd() *cobra.Command {
	opts := &prepareOptions{}
	cmd := &cobra.Command{
		Use:   "prepare <csv|->",
		Short: "Build, initialize, normalize and export a dataset run",
		Long: "prepare loads the CSV, initializes pretraining targets when dataset.type is\n" +
			"pretraining, normalizes features, writes the run as chunks to the artifact\n" +
			"store and announces it on kafka when enabled.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, args[0], opts)
		},
	}
	cmd.Flags().IntVar(&opts.chunks, "chunks", 1, "number of exported chunks")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run identifier (default: random UUID)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve probes and metrics on this address while running")
	return cmd
}

func runPrepare(cmd *cobra.Command, path string, opts *prepareOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	rt, err := buildRuntime(cliCtx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	stop := startOpsServer(rt, opsAddr(opts.metricsAddr, cliCtx.Config, false))
	defer stop(cmd.Context())

	in, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := rt.Service.Prepare(ctx, &pretraining.PrepareInput{Data: in, Chunks: opts.chunks, RunID: opts.runID})
	if err != nil {
		return err
	}
	cliCtx.Logger.Debug("Prepare finished", logging.Duration("elapsed", res.Elapsed))
	PrintSuccess(cmd, fmt.Sprintf("run %s exported in %d chunk(s)", res.Manifest.RunID, len(res.Manifest.Chunks)))
	return PrintResult(cmd, manifestView{res})
}

type manifestView struct {
	*pretraining.PrepareResult
}

func (v manifestView) TableHeaders() []string { return []string{"Index", "Chunk ID", "Size", "Key"} }

func (v manifestView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Manifest.Chunks))
	for _, c := range v.Manifest.Chunks {
		rows = append(rows, []string{strconv.Itoa(c.Index), c.ChunkID, strconv.Itoa(c.Size), c.Key})
	}
	return rows
}

func (v manifestView) String() string {
	m := v.Manifest
	var sb strings.Builder
	fmt.Fprintf(&sb, "run=%s mode=%s datapoints=%d features=%d published=%t\n",
		m.RunID, m.Mode, m.Datapoints, m.FeaturesSize, v.Published)
	if m.VocabKey != "" {
		fmt.Fprintf(&sb, "vocab=%s output_size=%d\n", m.VocabKey, m.OutputSize)
	}
	if m.ScalerKey != "" {
		fmt.Fprintf(&sb, "scaler=%s\n", m.ScalerKey)
	}
	for _, c := range m.Chunks {
		fmt.Fprintf(&sb, "chunk %d: %d datapoints -> %s\n", c.Index, c.Size, c.Key)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

//Personal.AI order the ending

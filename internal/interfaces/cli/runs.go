package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-MolData/internal/application/pretraining"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Query the run registry (requires postgres.enabled)",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List exported runs, newest first",
		Args:  cobra.NoArgs,
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

			runs, err := rt.Service.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, runsView(runs))
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")

	cmd.AddCommand(list)
	return cmd
}

type runsView []pretraining.RunSummary

func (v runsView) TableHeaders() []string {
	return []string{"Run ID", "Mode", "Datapoints", "Chunks", "Created", "Verified"}
}

func (v runsView) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, r := range v {
		rows = append(rows, []string{
			r.RunID,
			r.Mode,
			strconv.Itoa(r.Datapoints),
			strconv.Itoa(r.Chunks),
			r.CreatedAt.Format(time.RFC3339),
			verifiedAt(r.VerifiedAt),
		})
	}
	return rows
}

func (v runsView) String() string {
	if len(v) == 0 {
		return "no runs"
	}
	var sb strings.Builder
	for _, r := range v {
		fmt.Fprintf(&sb, "%s mode=%s datapoints=%d chunks=%d created=%s verified=%s\n",
			r.RunID, r.Mode, r.Datapoints, r.Chunks, r.CreatedAt.Format(time.RFC3339), verifiedAt(r.VerifiedAt))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func verifiedAt(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}

//Personal.AI order the ending

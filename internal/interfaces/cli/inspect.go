package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/proteingraph/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// RunSummary is the inspect output for one stored run.
type RunSummary struct {
	RunID string                   `json:"run_id"`
	Edges int64                    `json:"edges"`
	Kinds []repositories.KindCount `json:"kinds"`
}

// TableRows renders the per-kind counts.
func (s *RunSummary) TableRows() [][]string {
	rows := make([][]string, 0, len(s.Kinds))
	for _, k := range s.Kinds {
		rows = append(rows, []string{k.Kind, strconv.FormatInt(k.Edges, 10)})
	}
	return rows
}

func newInspectCmd() *cobra.Command {
	var (
		runID  string
		output string
		drop   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a graph run stored in Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if output != "text" && output != "json" {
				return errors.InvalidParam("output must be text or json").WithDetail(output)
			}

			ctx := cmd.Context()
			store, closer, err := openGraphStore(ctx, cliCtx.Config.Neo4j, cliCtx.Logger.Named("neo4j"))
			if err != nil {
				return err
			}
			opened := &backends{logger: cliCtx.Logger}
			opened.track(closer)
			defer opened.Close(context.Background())

			if drop {
				if err := store.Delete(ctx, runID); err != nil {
					return err
				}
				PrintSuccess(cmd, "deleted run "+runID)
				return nil
			}

			summary, err := summarize(ctx, store, runID)
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d edges\n", summary.RunID, summary.Edges)
			fmt.Fprint(cmd.OutOrStdout(), FormatTable([]string{"KIND", "EDGES"}, summary.TableRows()))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "run id to inspect (required)")
	cmd.Flags().StringVar(&output, "output", "text", "output format: text|json")
	cmd.Flags().BoolVar(&drop, "delete", false, "delete the run instead of summarizing it")
	_ = cmd.MarkFlagRequired("run-id")
	return cmd
}

func summarize(ctx context.Context, store GraphStore, runID string) (*RunSummary, error) {
	edges, err := store.CountEdges(ctx, runID)
	if err != nil {
		return nil, err
	}
	kinds, err := store.KindCounts(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &RunSummary{RunID: runID, Edges: edges, Kinds: kinds}, nil
}

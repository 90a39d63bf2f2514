package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/proteingraph/internal/application/pingraph"
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/pkg/errors"
)

func newExportCmd() *cobra.Command {
	var (
		engine engineFlags
		pdb    string
		kind   string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export [structure-file]",
		Short: "Write the node or edge feature matrix as CSV",
		Long: `Build the graph of a structure file and write one CSV row per node (or edge).
The first column is the node id, or the "u-v" key for edges. No backends are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if kind != graph.FeatureKindNode && kind != graph.FeatureKindEdge {
				return errors.New(errors.ErrCodeInvalidFeatureKind, "feature kind must be node or edge").WithDetail(kind)
			}
			path, err := structurePath(pdb, args)
			if err != nil {
				return err
			}

			opts := []pingraph.Option{pingraph.WithLogger(cliCtx.Logger)}
			if cliCtx.Metrics != nil {
				opts = append(opts, pingraph.WithMetrics(cliCtx.Metrics))
			}
			svc, err := pingraph.NewService(engine.serviceConfig(cmd, cliCtx.Config.Engine), opts...)
			if err != nil {
				return err
			}
			res, err := svc.BuildFromFile(cmd.Context(), path)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := pingraph.ExportMatrix(w, res.Graph, kind); err != nil {
				_ = closeOut()
				return err
			}
			return closeOut()
		},
	}

	engine.register(cmd)
	cmd.Flags().StringVar(&pdb, "pdb", "", "structure file to read")
	cmd.Flags().StringVar(&kind, "kind", graph.FeatureKindNode, "matrix to write: node|edge")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output CSV file (- for stdout)")
	return cmd
}

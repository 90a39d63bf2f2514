package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/proteingraph/internal/application/pingraph"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
)

func newFetchCmd() *cobra.Command {
	var (
		key    string
		format string
		out    string
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a stored graph document from MinIO",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			docFormat, err := pingraph.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, closer, err := openArtifactStore(ctx, cliCtx.Config.MinIO, cliCtx.Logger.Named("minio"))
			if err != nil {
				return err
			}
			opened := &backends{logger: cliCtx.Logger}
			opened.track(closer)
			defer opened.Close(context.Background())

			doc, err := store.GetDocument(ctx, key)
			if err != nil {
				return err
			}
			if _, err := doc.Graph(); err != nil {
				cliCtx.Logger.Warn("stored document does not rebuild into a graph",
					logging.String("key", key), logging.Err(err))
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := pingraph.Export(w, doc, docFormat); err != nil {
				_ = closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}

			if remove {
				if err := store.DeleteDocument(ctx, key); err != nil {
					return err
				}
				PrintSuccess(cmd, "deleted "+key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "object key, as printed by build (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json|yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file (- for stdout)")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the stored object once written")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

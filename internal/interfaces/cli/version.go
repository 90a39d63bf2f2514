package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/proteingraph/internal/application/pingraph"
	"github.com/turtacn/proteingraph/internal/domain/graph"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "proteingraph %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newDetectorsCmd() *cobra.Command {
	var engine engineFlags

	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List the bond vocabulary and the detectors a build would run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			svc, err := pingraph.NewService(engine.serviceConfig(cmd, cliCtx.Config.Engine),
				pingraph.WithLogger(cliCtx.Logger))
			if err != nil {
				return err
			}

			vocab := make([]string, 0, len(graph.Vocabulary()))
			for _, k := range graph.Vocabulary() {
				vocab = append(vocab, k.String())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vocabulary: %s\n", strings.Join(vocab, ","))
			fmt.Fprintf(cmd.OutOrStdout(), "detectors:  %s\n", strings.Join(svc.Detectors(), ","))
			return nil
		},
	}
	engine.register(cmd)
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/proteingraph/internal/application/pingraph"
	"github.com/turtacn/proteingraph/internal/config"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// engineFlags are the detector flags shared by build, export and detectors.
type engineFlags struct {
	detectors        []string
	delaunay         bool
	parallel         bool
	keepNonCanonical bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.detectors, "detectors", nil, "comma-separated detector names (default: config or all non-delaunay detectors)")
	cmd.Flags().BoolVar(&f.delaunay, "delaunay", false, "also run the Delaunay contact detector")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "run detectors concurrently")
	cmd.Flags().BoolVar(&f.keepNonCanonical, "keep-noncanonical", false, "keep residues outside the 20 canonical amino acids")
}

// serviceConfig merges the engine section of cfg with any flags set on cmd.
func (f *engineFlags) serviceConfig(cmd *cobra.Command, cfg config.EngineConfig) pingraph.Config {
	out := pingraph.Config{
		Detectors:        cfg.Detectors,
		Delaunay:         cfg.Delaunay,
		Parallel:         cfg.Parallel,
		DropNonCanonical: cfg.DropsNonCanonical(),
		CationResidues:   cfg.CationResidues,
		PiResidues:       cfg.PiResidues,
	}
	flags := cmd.Flags()
	if flags.Changed("detectors") {
		out.Detectors = f.detectors
	}
	if flags.Changed("delaunay") {
		out.Delaunay = f.delaunay
	}
	if flags.Changed("parallel") {
		out.Parallel = f.parallel
	}
	if flags.Changed("keep-noncanonical") {
		out.DropNonCanonical = !f.keepNonCanonical
	}
	return out
}

// structurePath returns the --pdb flag or the single positional argument.
func structurePath(pdb string, args []string) (string, error) {
	switch {
	case pdb != "" && len(args) > 0:
		return "", errors.InvalidParam("pass the structure file either as --pdb or as an argument, not both")
	case pdb != "":
		return pdb, nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", errors.InvalidParam("a structure file is required (--pdb or argument)")
}

// openOutput returns stdout for "" or "-", else a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeStorageError, "create output file")
	}
	return f, f.Close, nil
}

func newBuildCmd() *cobra.Command {
	var (
		engine     engineFlags
		pdb        string
		out        string
		format     string
		useCache   bool
		storeNeo4j bool
		storeMinIO bool
	)

	cmd := &cobra.Command{
		Use:   "build [structure-file]",
		Short: "Build a residue interaction graph",
		Long: `Build the residue interaction graph of a PDB (.pdb, .pdb.gz, .ent) or atom-table
CSV file and write the encoded graph document.

Backends enabled in the config file are used automatically. The --cache,
--store-neo4j and --store-minio flags enable a backend for this run using the
connection settings of its config section.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			path, err := structurePath(pdb, args)
			if err != nil {
				return err
			}
			docFormat, err := pingraph.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg := cliCtx.Config
			sinks := sinkSelection{
				cache:     useCache || cfg.Redis.Enabled,
				neo4j:     storeNeo4j || cfg.Neo4j.Enabled,
				artifacts: storeMinIO || cfg.MinIO.Enabled,
			}
			return runBuild(cmd.Context(), cmd, cliCtx, engine.serviceConfig(cmd, cfg.Engine), sinks, path, out, docFormat)
		},
	}

	engine.register(cmd)
	cmd.Flags().StringVar(&pdb, "pdb", "", "structure file to read")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file for the graph document (- for stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "document format: json|yaml")
	cmd.Flags().BoolVar(&useCache, "cache", false, "look up and store the graph in the Redis cache")
	cmd.Flags().BoolVar(&storeNeo4j, "store-neo4j", false, "persist the graph to Neo4j")
	cmd.Flags().BoolVar(&storeMinIO, "store-minio", false, "upload the graph document to MinIO")
	return cmd
}

type sinkSelection struct {
	cache     bool
	neo4j     bool
	artifacts bool
}

func runBuild(ctx context.Context, cmd *cobra.Command, cliCtx *CLIContext, svcCfg pingraph.Config, sinks sinkSelection, path, out string, format pingraph.Format) error {
	log := cliCtx.Logger
	cfg := cliCtx.Config
	opened := &backends{logger: log}
	defer opened.Close(context.Background())

	opts := []pingraph.Option{pingraph.WithLogger(log)}
	if cliCtx.Metrics != nil {
		opts = append(opts, pingraph.WithMetrics(cliCtx.Metrics))
	}
	if sinks.cache {
		cache, closer, err := openCache(ctx, cfg.Redis, log.Named("redis"))
		if err != nil {
			log.Warn("graph cache unavailable, building without it", logging.Err(err))
		} else {
			opened.track(closer)
			opts = append(opts, pingraph.WithCache(cache))
		}
	}
	if sinks.neo4j {
		repo, closer, err := openGraphStore(ctx, cfg.Neo4j, log.Named("neo4j"))
		if err != nil {
			return err
		}
		opened.track(closer)
		opts = append(opts, pingraph.WithRepository(repo))
	}
	if sinks.artifacts {
		store, closer, err := openArtifactStore(ctx, cfg.MinIO, log.Named("minio"))
		if err != nil {
			return err
		}
		opened.track(closer)
		opts = append(opts, pingraph.WithArtifactStore(store))
	}

	svc, err := pingraph.NewService(svcCfg, opts...)
	if err != nil {
		return err
	}
	res, err := svc.BuildFromFile(ctx, path)
	if err != nil {
		return err
	}

	w, closeOut, err := openOutput(cmd, out)
	if err != nil {
		return err
	}
	if err := pingraph.Export(w, res.Document, format); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "close output file")
	}

	msg := fmt.Sprintf("run %s: %d residues, %d edges", res.RunID, res.Graph.NumNodes(), res.Graph.NumEdges())
	if res.Cached {
		msg += " (cached)"
	}
	if res.ArtifactKey != "" {
		msg += ", stored at " + res.ArtifactKey
	}
	PrintSuccess(cmd, msg)
	return nil
}

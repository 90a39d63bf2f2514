// Package cli implements the proteingraph command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/proteingraph/internal/config"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath      string
	LogLevel        string
	Verbose         bool
	MetricsTextfile string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.GraphMetrics
	Textfile  string

	stopWatch func() error
}

// NewRootCommand creates the root command with its global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "proteingraph",
		Short: "Residue-level protein interaction graphs",
		Long: "proteingraph reads protein structures (PDB or atom-table CSV) and builds\n" +
			"residue interaction graphs with typed bonds and fixed-width feature vectors.\n" +
			"Graphs can be cached in Redis and persisted to Neo4j and MinIO.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPostRun(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./proteingraph.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write metrics to this node-exporter textfile after the command")

	cmd.AddCommand(
		newBuildCmd(),
		newExportCmd(),
		newInspectCmd(),
		newFetchCmd(),
		newDetectorsCmd(),
		newVersionCmd(),
	)
	return cmd
}

// persistentPreRun loads config, logger and metrics, then stores the CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, cfgPath, err := initConfig(cmd.ErrOrStderr(), opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{Config: cfg, Logger: logger, Textfile: opts.MetricsTextfile}
	if cfgPath != "" && opts.LogLevel == "" && !opts.Verbose {
		stop, err := watchLogLevel(cfgPath, logger)
		if err != nil {
			logger.Warn("config watch unavailable", logging.String("path", cfgPath), logging.Err(err))
		}
		cliCtx.stopWatch = stop
	}
	if cliCtx.Textfile == "" {
		cliCtx.Textfile = cfg.Metrics.Textfile
	}
	if cfg.Metrics.Enabled || cliCtx.Textfile != "" {
		if err := initMetrics(cliCtx); err != nil {
			return fmt.Errorf("metrics initialization failed: %w", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// persistentPostRun flushes metrics and logs.
func persistentPostRun(cmd *cobra.Command) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil
	}
	defer func() { _ = cliCtx.Logger.Sync() }()
	if cliCtx.stopWatch != nil {
		_ = cliCtx.stopWatch()
	}

	if cliCtx.Collector == nil || cliCtx.Textfile == "" {
		return nil
	}
	if err := cliCtx.Collector.WriteTextfile(cliCtx.Textfile); err != nil {
		cliCtx.Logger.Warn("metrics textfile write failed",
			logging.String("path", cliCtx.Textfile), logging.Err(err))
		return nil
	}
	cliCtx.Logger.Debug("metrics textfile written", logging.String("path", cliCtx.Textfile))
	return nil
}

// initConfig loads the file named by --config, else the first file found on
// the search path, else the environment alone. The path of the loaded file is
// returned, or "" when none was read.
func initConfig(stderr io.Writer, opts *RootOptions) (*config.Config, string, error) {
	if opts.ConfigPath != "" {
		cfg, err := config.Load(opts.ConfigPath)
		return cfg, opts.ConfigPath, err
	}

	searchPaths := []string{"./proteingraph.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".proteingraph", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/proteingraph/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			cfg, err := config.Load(p)
			return cfg, p, err
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, "", err
	}
	if opts.Verbose {
		fmt.Fprintln(stderr, "no config file found, using defaults and environment")
	}
	return cfg, "", nil
}

// watchLogLevel applies log.level from path to logger whenever the file
// changes, for the lifetime of the command.
func watchLogLevel(path string, logger logging.Logger) (func() error, error) {
	return config.Watch(path, func(cfg *config.Config) {
		if logging.SetLevel(logger, cfg.Log.Level) {
			logger.Info("log level reloaded", logging.String("level", cfg.Log.Level))
		}
	})
}

// initLogger builds the logger from the log section, with flag overrides.
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	logCfg := cfg.Log
	if opts.LogLevel != "" {
		logCfg.Level = strings.ToLower(opts.LogLevel)
	}
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	return logging.NewLogger(logCfg)
}

func initMetrics(cliCtx *CLIContext) error {
	ns := cliCtx.Config.Metrics.Namespace
	if ns == "" {
		ns = config.DefaultMetricsNamespace
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:   ns,
		ConstLabels: map[string]string{"version": Version},
	}, cliCtx.Logger)
	if err != nil {
		return err
	}
	cliCtx.Collector = collector
	cliCtx.Metrics = prometheus.NewGraphMetrics(collector)
	return nil
}

// GetCLIContext extracts CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return ExitCode(err)
	}
	return 0
}

// Exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitInputShape = 3
)

// ExitCode maps an error to a process exit code by its error family.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	code := errors.GetCode(err)
	switch {
	case errors.IsInputShape(code):
		return ExitInputShape
	case errors.IsUsage(code):
		return ExitUsage
	}
	return ExitFailure
}

// printJSON outputs data as indented JSON.
func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a formatted success message to stderr so stdout stays
// free for documents.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.ErrOrStderr(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, colWidths[i]))
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

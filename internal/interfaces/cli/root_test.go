package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/internal/testutil"
	"github.com/turtacn/proteingraph/pkg/errors"
)

type p = geometry.Point

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeConfig writes a minimal config file with every backend disabled.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proteingraph.yaml")
	body := "log:\n  level: error\n  format: json\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writePDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.pdb")
	require.NoError(t, os.WriteFile(path, []byte(structureFixture().PDB()), 0o600))
	return path
}

func structureFixture() *testutil.StructureBuilder {
	return testutil.NewStructure().
		Residue("A", 1, "ARG", p{}, map[string]p{"CB": {Y: 1.5}, "CD": {Y: 3}, "CZ": {X: 1, Y: 4}}).
		Residue("A", 2, "ASP", p{X: 3.8}, map[string]p{"CB": {X: 3.8, Y: 1.5}, "CG": {X: 3.5, Y: 3}, "OD1": {X: 3, Y: 4}}).
		Residue("A", 3, "PHE", p{X: 7.6, Z: 3}, testutil.Ring(p{X: 7.6, Y: 3, Z: 3})).
		Het("A", 100, "HOH", "O", p{X: 40})
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "proteingraph", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"build", "export", "inspect", "fetch", "detectors", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "log-level", "verbose", "metrics-textfile"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing flag %q", flag)
	}
}

func TestVersion_SkipsConfig(t *testing.T) {
	stdout, _, err := execute(t, "version", "--config", "/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "proteingraph "+Version)
	assert.Contains(t, stdout, "commit:")
}

func TestConfig_MissingFile(t *testing.T) {
	_, _, err := execute(t, "detectors", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

func TestConfig_InvalidDetector(t *testing.T) {
	cfg := writeConfig(t, "engine:\n  detectors: [covalent]\n")
	_, _, err := execute(t, "detectors", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.detectors")
}

func TestDetectors(t *testing.T) {
	cfg := writeConfig(t, "engine:\n  detectors: [ionic, hydrophobic]\n")

	stdout, _, err := execute(t, "detectors", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "vocabulary: backbone,")
	assert.Contains(t, stdout, "detectors:  ionic,hydrophobic\n")

	stdout, _, err = execute(t, "detectors", "--config", cfg, "--detectors", "disulfide", "--delaunay")
	require.NoError(t, err)
	assert.Contains(t, stdout, "detectors:  disulfide,delaunay\n")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitInputShape, ExitCode(errors.New(errors.ErrCodeEmptySubset, "no atoms")))
	assert.Equal(t, ExitUsage, ExitCode(errors.InvalidParam("bad flag")))
	assert.Equal(t, ExitUsage, ExitCode(errors.New(errors.ErrCodeUnknownBondKind, "covalent")))
	assert.Equal(t, ExitFailure, ExitCode(errors.New(errors.ErrCodeDatabaseError, "down")))
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"KIND", "EDGES"}, [][]string{{"backbone", "2"}, {"ionic", "1"}})
	assert.Equal(t, ""+
		"KIND      EDGES\n"+
		"--------  -----\n"+
		"backbone  2    \n"+
		"ionic     1    \n", out)
	assert.Empty(t, FormatTable(nil, nil))
}

func TestMetricsTextfile(t *testing.T) {
	cfg := writeConfig(t, "")
	textfile := filepath.Join(t.TempDir(), "proteingraph.prom")

	_, _, err := execute(t, "build", "--config", cfg, "--metrics-textfile", textfile,
		"--out", filepath.Join(t.TempDir(), "g.json"), writePDB(t))
	require.NoError(t, err)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `proteingraph_builds_total{status="success",version="dev"} 1`)
	assert.Contains(t, string(data), "proteingraph_graph_nodes")
}

func TestWatchLogLevel(t *testing.T) {
	cfg := writeConfig(t, "")
	logPath := filepath.Join(t.TempDir(), "log.json")
	logger, err := logging.NewLogger(logging.LogConfig{Level: "error", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	stop, err := watchLogLevel(cfg, logger)
	require.NoError(t, err)
	defer func() { assert.NoError(t, stop()) }()

	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: debug\n"), 0o600))
	assert.Eventually(t, func() bool {
		logger.Debug("debug enabled")
		_ = logger.Sync()
		data, err := os.ReadFile(logPath)
		return err == nil && strings.Contains(string(data), "log level reloaded") &&
			strings.Contains(string(data), "debug enabled")
	}, 5*time.Second, 20*time.Millisecond)
}

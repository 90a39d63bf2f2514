package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func newTestLogger(t *testing.T, level zapcore.Level) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, level)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: "debug", Format: format, OutputPaths: []string{"stderr"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/for/sure/out.log"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.InfoLevel)

	l.Debug("hidden")
	l.Info("graph built",
		RunID("r-1"),
		Int("nodes", 12),
		Int64("edges", 30),
		Float64("seconds", 0.5),
		Bool("parallel", true),
		Duration("took", 1500*time.Millisecond),
		Strings("detectors", []string{"hydrophobic", "ionic"}),
		Err(errors.New("boom")),
	)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"graph built"`)
	assert.Contains(t, out, `"run_id":"r-1"`)
	assert.Contains(t, out, `"nodes":12`)
	assert.Contains(t, out, `"edges":30`)
	assert.Contains(t, out, `"parallel":true`)
	assert.Contains(t, out, `"detectors":["hydrophobic","ionic"]`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t, zapcore.DebugLevel)

	child := l.Named("engine").With(Detector("disulfide"))
	child.Warn("empty subset", Node("A7CYS"))

	out := buf.String()
	assert.Contains(t, out, `"logger":"engine"`)
	assert.Contains(t, out, `"detector":"disulfide"`)
	assert.Contains(t, out, `"node_id":"A7CYS"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestObservedLogger(t *testing.T) {
	l, logs := NewObservedLogger(zapcore.WarnLevel)
	l.Info("ignored")
	l.Warn("missing CA", Node("A3GLY"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "missing CA", entry.Message)
	assert.Equal(t, "A3GLY", entry.ContextMap()[KeyNode])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.Equal(t, l, l.Named("n"))
	assert.NoError(t, l.Sync())
}

func TestDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	SetDefault(nil)
	assert.Equal(t, prev, Default())

	l, _ := NewObservedLogger(zapcore.DebugLevel)
	SetDefault(l)
	assert.Equal(t, l, Default())
	assert.Equal(t, l, OrDefault(nil))

	other := NewNopLogger()
	assert.Equal(t, other, OrDefault(other))
}

func TestSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	l, err := NewLogger(LogConfig{Level: "error", OutputPaths: []string{path}})
	require.NoError(t, err)
	child := l.With(String("k", "v"))

	child.Debug("before")
	require.True(t, SetLevel(l, "debug"))
	child.Debug("after")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"before"`)
	assert.Contains(t, string(data), `"after"`)

	assert.False(t, SetLevel(NewNopLogger(), "debug"))
	observed, _ := NewObservedLogger(zapcore.InfoLevel)
	assert.False(t, SetLevel(observed, "debug"))
}

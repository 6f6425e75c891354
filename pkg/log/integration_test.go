package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scierrors "github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// TestLoggerInterface tests the TestLogger implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationTrain)
	testLogger.Warn("warning message", PhaseKey, PhaseValid)
	testLogger.Error("error message", fmt.Errorf("test error"), AttemptKey, 3)

	require.NotEmpty(t, buffer.String())

	assert.True(t, testLogger.ContainsMessage("debug message"))
	assert.True(t, testLogger.ContainsMessage("info message"))
	assert.True(t, testLogger.ContainsMessage("warning message"))
	assert.True(t, testLogger.ContainsMessage("error message"))

	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0)) // JSON numbers decode as float64
	assert.True(t, testLogger.ContainsField("error", "test error"))
	assert.True(t, testLogger.ContainsField(AttemptKey, 3.0))
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ComponentKey, "gridsearch.runner",
		DatasetKey, "sp500.csv",
	)
	contextLogger.Info("pair started", RequiredKey, 2)

	assert.True(t, testLogger.ContainsField(ComponentKey, "gridsearch.runner"))
	assert.True(t, testLogger.ContainsField(DatasetKey, "sp500.csv"))
	assert.True(t, testLogger.ContainsField(RequiredKey, 2.0))
}

// TestLoggerEnabled tests level filtering
func TestLoggerEnabled(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelWarn)

	ctx := context.Background()
	assert.False(t, testLogger.Enabled(ctx, LevelDebug))
	assert.False(t, testLogger.Enabled(ctx, LevelInfo))
	assert.True(t, testLogger.Enabled(ctx, LevelWarn))
	assert.True(t, testLogger.Enabled(ctx, LevelError))

	testLogger.Info("suppressed")
	assert.Empty(t, buffer.String())

	testLogger.Warn("kept")
	assert.True(t, testLogger.ContainsMessage("kept"))
}

func TestLoggerProviderIntegration(t *testing.T) {
	provider, _ := NewTestLoggerProvider(LevelInfo)

	previous := currentProvider()
	SetProvider(provider)
	defer SetProvider(previous)

	GetLoggerWithName("dataset").Info("scaled", NTrainKey, 96, NAllKey, 128)

	logger := provider.GetLogger().(*TestLogger)
	assert.True(t, logger.ContainsField(ComponentKey, "dataset"))
	assert.True(t, logger.ContainsField(NTrainKey, 96.0))
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelInfo)

	logger := provider.GetLoggerWithName("gridsearch.runner").With(DatasetKey, "a.csv")
	logger.Debug("hidden")
	logger.Info("attempt finished", AttemptKey, 1, LossKey, 0.25)
	logger.Error("attempt failed", scierrors.New("boom"), AttemptKey, 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "attempt finished", first["message"])
	assert.Equal(t, "gridsearch.runner", first[ComponentKey])
	assert.Equal(t, "a.csv", first[DatasetKey])
	assert.Equal(t, 1.0, first[AttemptKey])
	assert.Equal(t, 0.25, first[LossKey])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
	assert.Equal(t, "boom", second["error"])

	provider.SetLevel(LevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestWarningsRouteToProvider(t *testing.T) {
	provider, _ := NewTestLoggerProvider(LevelDebug)

	previous := currentProvider()
	SetProvider(provider)
	defer SetProvider(previous)

	scierrors.Warn(scierrors.NewConstantColumnWarning("volume", 0.001))

	logger := provider.GetLogger().(*TestLogger)
	assert.True(t, logger.ContainsMessage("column 'volume' is constant"))
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]Level{
		"debug": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func currentProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

func TestTestLoggerEntries(t *testing.T) {
	provider, buf := NewTestLoggerProvider(LevelInfo)
	logger := provider.GetLoggerWithName("gridsearch.runner")

	logger.Debug("hidden")
	logger.Warn("Attempt failed", scierrors.NewRangeError(5, 5, 10, "empty range"), AttemptKey, 1)
	logger.Info("Pair finished", StateKey, "satisfied")

	tl := provider.GetLogger().(*TestLogger)
	entries := tl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, LevelWarn, entries[0].Level)
	assert.Equal(t, "range", entries[0].Fields[ErrorKindAttrKey])
	assert.Equal(t, "gridsearch.runner", entries[1].Fields[ComponentKey])
	assert.Equal(t, 1, tl.Count(LevelInfo))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	provider.SetLevel(LevelDebug)
	logger.Debug("now visible")
	assert.True(t, tl.ContainsMessage("now visible"))

	tl.Clear()
	assert.Empty(t, tl.Entries())
	assert.Zero(t, buf.Len())
}

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scierrors "github.com/YuminosukeSato/seqgrid/pkg/errors"
)

func TestErrorKind(t *testing.T) {
	panicErr := scierrors.SafeExecute("train", func() error { panic("boom") })

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", scierrors.New("plain"), ""},
		{"canceled", scierrors.Wrap(context.Canceled, "epoch 3"), "canceled"},
		{"selector", scierrors.NewInvalidSelectorError("volume", "unknown column"), "selector"},
		{"alignment", scierrors.NewAlignmentError(0, 13, 4, 4), "alignment"},
		{"range", scierrors.NewRangeError(10, 5, 20, "empty range"), "range"},
		{"format", scierrors.NewUnsupportedFormatError("seq2seq"), "format"},
		{"validation", scierrors.NewValidationError("epochs", "must be positive", 0), "validation"},
		{"training", scierrors.NewTrainingError("prices.csv", 1, scierrors.New("diverged")), "training"},
		{"panic inside training", scierrors.NewTrainingError("prices.csv", 2, panicErr), "panic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestSetupLoggerTo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		SetProvider(NewZerologProvider(os.Stderr, LevelInfo))
	})

	var buf bytes.Buffer
	SetupLoggerTo(&buf, "warn")

	slog.Info("hidden")
	slog.Warn("Attempt failed", ErrAttr(scierrors.NewAlignmentError(0, 13, 4, 4)))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "WARN", rec["severity"])
	assert.Equal(t, "Attempt failed", rec["message"])
	assert.Equal(t, "alignment", rec[ErrorKindAttrKey])
	assert.NotEmpty(t, rec[StacktraceAttrKey])

	buf.Reset()
	GetLoggerWithName("test").Info("also hidden")
	assert.Zero(t, buf.Len())
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seqgrid/results"
)

func writeWaves(t *testing.T, path string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("a,b\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%g,%g\n", math.Sin(float64(i)/5), math.Cos(float64(i)/7))
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestRunThenReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	writeWaves(t, filepath.Join(dir, "data", "waves.csv"), 100)

	cfgPath := filepath.Join(dir, "exp.yaml")
	cfg := fmt.Sprintf(`
datasets: [waves.csv, missing.csv]
data_dir: %[1]s/data
store: %[1]s/results/linear.gob
artifacts_dir: %[1]s/artifacts
failures: %[1]s/results/failed.json
log_level: error
runner:
  trials: 2
grid:
  train_share: [[0.6, 1.0]]
  input_length: [2, 3]
  output_length: [1]
  batch_size: [4]
  epochs: [2]
`, dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	require.NoError(t, runCommand(context.Background(), []string{"-config", cfgPath}))

	store, err := results.OpenFileStore(filepath.Join(dir, "results", "linear.gob"))
	require.NoError(t, err)
	records, err := store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)

	failed, err := results.LoadUnresolved(filepath.Join(dir, "results", "failed.json"))
	require.NoError(t, err)
	require.Len(t, failed, 2)
	for _, u := range failed {
		assert.Equal(t, "missing.csv", u.Dataset)
		assert.Equal(t, 2, u.Errors)
	}

	// 2回目は満たされた組を飛ばすのでレコードは増えない
	require.NoError(t, runCommand(context.Background(), []string{"-config", cfgPath}))
	require.NoError(t, store.Reload())
	all, err := store.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	var out bytes.Buffer
	plotPath := filepath.Join(dir, "best.png")
	require.NoError(t, reportCommand([]string{
		"-store", filepath.Join(dir, "results", "linear.gob"),
		"-metric", "val_loss",
		"-plot", plotPath,
		"-log-level", "error",
	}, &out))
	assert.Contains(t, out.String(), "val_loss mean")
	assert.Contains(t, out.String(), "waves.csv")
	_, err = os.Stat(plotPath)
	assert.NoError(t, err)
}

func TestCommandFlags(t *testing.T) {
	assert.Error(t, runCommand(context.Background(), nil))
	assert.Error(t, reportCommand(nil, &bytes.Buffer{}))
	assert.Error(t, reportCommand([]string{"-store", "x.gob", "-log-level", "loud"}, &bytes.Buffer{}))
}

package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

type savedModel struct {
	State   *StateManager
	Weights *mat.Dense
	Name    string
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())
	assert.True(t, errors.Is(s.RequireFitted("Predict"), errors.ErrNotFitted))

	s.SetDimensions(4, 2)
	s.AddSamples(10)
	s.AddSamples(5)
	s.SetFitted()

	nf, no := s.GetDimensions()
	assert.Equal(t, 4, nf)
	assert.Equal(t, 2, no)
	assert.Equal(t, 15, s.NSamples)
	assert.Equal(t, 2, s.Iterations())
	assert.NoError(t, s.RequireFitted("Predict"))

	s.Reset()
	assert.False(t, s.IsFitted())
	assert.Equal(t, 0, s.Iterations())
}

func TestSaveLoadModel(t *testing.T) {
	state := NewStateManager()
	state.SetDimensions(2, 1)
	state.SetFitted()
	in := savedModel{State: state, Weights: mat.NewDense(2, 1, []float64{0.5, -1}), Name: "ridge"}

	path := filepath.Join(t.TempDir(), "m.gob")
	require.NoError(t, SaveModel(&in, path))

	var out savedModel
	require.NoError(t, LoadModel(&out, path))
	assert.Equal(t, "ridge", out.Name)
	assert.True(t, out.State.IsFitted())
	assert.True(t, mat.Equal(in.Weights, out.Weights))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveModelMissingDir(t *testing.T) {
	err := SaveModel(&savedModel{Name: "x"}, filepath.Join(t.TempDir(), "missing", "m.gob"))
	assert.Error(t, err)
}

func TestLoadModelErrors(t *testing.T) {
	var out savedModel
	assert.Error(t, LoadModel(&out, filepath.Join(t.TempDir(), "none.gob")))
	assert.Error(t, LoadModelFromReader(&out, bytes.NewBufferString("not gob")))
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveModelToWriter(&savedModel{Name: "w"}, &buf))

	var out savedModel
	require.NoError(t, LoadModelFromReader(&out, &buf))
	assert.Equal(t, "w", out.Name)
}

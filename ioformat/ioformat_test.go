package ioformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/dataset"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/tensor"
)

func newDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	rows := 40
	data := mat.NewDense(rows, 3, nil)
	for i := 0; i < rows; i++ {
		data.Set(i, 0, float64(i))
		data.Set(i, 1, float64(i*i%7))
		data.Set(i, 2, float64(-i))
	}
	table, err := dataset.NewTable([]string{"a", "b", "c"}, data)
	require.NoError(t, err)

	ds, err := dataset.New(table, dataset.Config{
		TrainShare:   [2]float64{0.5, 1.0},
		InputLength:  3,
		OutputLength: 2,
		BatchSize:    4,
	})
	require.NoError(t, err)
	return ds
}

// sequentialBatch は値が 0,1,2,... と並ぶ [bs, L, dim] のバッチ
func sequentialBatch(t *testing.T, bs, l, dim int) *tensor.Dense {
	t.Helper()
	data := make([]float64, bs*l*dim)
	for i := range data {
		data[i] = float64(i)
	}
	batch, err := tensor.New([]int{bs, l, dim}, data)
	require.NoError(t, err)
	return batch
}

func TestFormatShapes(t *testing.T) {
	ds := newDataset(t)
	batch := sequentialBatch(t, 4, 5, 3)
	opts := Options{Targets: []string{"a", "c"}}

	tests := []struct {
		kind    Kind
		inputs  map[string][]int
		outputs map[string][]int
	}{
		{FlatRegression, map[string][]int{dataset.InputKey: {4, 9}}, map[string][]int{dataset.OutputKey: {4, 4}}},
		{Regression, map[string][]int{dataset.InputKey: {4, 3, 3}}, map[string][]int{dataset.OutputKey: {4, 4}}},
		{VIRegression,
			map[string][]int{dataset.InputKey: {4, 3, 3}, dataset.ValueKey: {4, 3, 2}},
			map[string][]int{dataset.OutputKey: {4, 2, 2}}},
		{CVIRegression,
			map[string][]int{dataset.InputKey: {4, 3, 3}, dataset.ValueKey: {4, 3, 2}},
			map[string][]int{dataset.OutputKey: {4, 2, 2}, dataset.ValueKey: {4, 3, 2}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			format, err := New(tt.kind, ds, opts)
			require.NoError(t, err)
			pair, err := format(batch)
			require.NoError(t, err)

			require.Len(t, pair.Input, len(tt.inputs))
			for k, shape := range tt.inputs {
				assert.Equal(t, shape, pair.Input[k].Shape(), "input %s", k)
			}
			require.Len(t, pair.Output, len(tt.outputs))
			for k, shape := range tt.outputs {
				assert.Equal(t, shape, pair.Output[k].Shape(), "output %s", k)
			}
		})
	}
}

func TestFlatRegressionValues(t *testing.T) {
	ds := newDataset(t)
	batch := sequentialBatch(t, 1, 5, 3)

	format, err := New(FlatRegression, ds, Options{Targets: []int{1}})
	require.NoError(t, err)
	pair, err := format(batch)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}, pair.Input[dataset.InputKey].Data())
	// 出力はステップ3,4の列1
	assert.Equal(t, []float64{10, 13}, pair.Output[dataset.OutputKey].Data())
}

func TestCVIRegressionTilesFirstOutputStep(t *testing.T) {
	ds := newDataset(t)
	batch := sequentialBatch(t, 4, 5, 3)

	format, err := New(CVIRegression, ds, Options{Targets: []string{"b", "c"}})
	require.NoError(t, err)
	pair, err := format(batch)
	require.NoError(t, err)

	aux := pair.Output[dataset.ValueKey]
	il := ds.InputLength()
	for i := 0; i < 4; i++ {
		for s := 0; s < il; s++ {
			for k, col := range []int{1, 2} {
				assert.Equal(t, batch.At(i, il, col), aux.At(i, s, k), "sample %d step %d", i, s)
			}
		}
	}
}

func TestInputCols(t *testing.T) {
	ds := newDataset(t)
	batch := sequentialBatch(t, 2, 5, 3)

	format, err := New(Regression, ds, Options{InputCols: []int{2}})
	require.NoError(t, err)
	pair, err := format(batch)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, pair.Input[dataset.InputKey].Shape())
	assert.Equal(t, 2.0, pair.Input[dataset.InputKey].At(0, 0, 0))

	_, err = New(Regression, ds, Options{InputCols: []int{3}})
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestUnsupportedFormat(t *testing.T) {
	ds := newDataset(t)

	_, err := New("classification", ds, Options{})
	var fmtErr *errors.UnsupportedFormatError
	require.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, "classification", fmtErr.Kind)

	_, err = New(FlatRegression, ds, Options{Targets: "close"})
	var selErr *errors.InvalidSelectorError
	assert.True(t, errors.As(err, &selErr))
}

func TestFormatWithGenerator(t *testing.T) {
	ds := newDataset(t)
	format, err := New(FlatRegression, ds, Options{})
	require.NoError(t, err)

	gen, err := ds.Gen(dataset.GenOptions{Mode: dataset.ModeTrain, Format: format, Shuffle: true, Seed: 5})
	require.NoError(t, err)
	pair, err := gen.Next()
	require.NoError(t, err)
	assert.Equal(t, []int{4, 9}, pair.Input[dataset.InputKey].Shape())
	assert.Equal(t, []int{4, 6}, pair.Output[dataset.OutputKey].Shape())
}

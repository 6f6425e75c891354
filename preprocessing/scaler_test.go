package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
		4, 40, 5,
	})

	s := NewStandardScaler(0)
	assert.Equal(t, DefaultEpsilon, s.Epsilon)
	require.NoError(t, s.Fit(X))

	assert.Equal(t, []float64{2.5, 25, 5}, s.Mean)
	sd := math.Sqrt(5.0 / 3.0)
	assert.InDelta(t, sd, s.Scale[0], 1e-12)
	assert.InDelta(t, 10*sd, s.Scale[1], 1e-12)
	assert.Equal(t, DefaultEpsilon, s.Scale[2])
	assert.Equal(t, []bool{false, false, true}, s.Constant)

	out, err := s.Transform(X)
	require.NoError(t, err)
	assert.InDelta(t, -1.5/sd, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.5/sd, out.At(3, 1), 1e-12)
	assert.Equal(t, 0.0, out.At(2, 2))
	assert.Equal(t, 1.0, X.At(0, 0), "Transform must not modify its input")

	back, err := s.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestStandardScalerFitsOnSubsetOnly(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 2, 100, 200})
	s := NewStandardScaler(0.5)
	require.NoError(t, s.Fit(X.Slice(0, 2, 0, 1)))
	require.NoError(t, s.TransformInPlace(X))

	assert.Equal(t, 1.0, s.Mean[0])
	assert.InDelta(t, (100-1)/math.Sqrt2, X.At(2, 0), 1e-9)
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScaler(0)
	_, err := s.Transform(mat.NewDense(2, 2, nil))
	assert.True(t, errors.Is(err, errors.ErrNotFitted))
	assert.Equal(t, "StandardScaler(epsilon=0.001)", s.String())

	var valErr *errors.ValueError
	assert.True(t, errors.As(s.Fit(mat.NewDense(1, 2, nil)), &valErr))

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = s.Transform(mat.NewDense(2, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	var numErr *errors.NumericalInstabilityError
	err = s.Fit(mat.NewDense(2, 1, []float64{math.Inf(1), 1}))
	assert.True(t, errors.As(err, &numErr))
}

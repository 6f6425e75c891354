// Package tensor provides a minimal row-major N-dimensional array used for
// window batches. gonum/mat covers two dimensions only; batches carry a
// third (batch, time, feature) axis.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// Dense is a row-major N-dimensional array of float64.
type Dense struct {
	shape   []int
	strides []int
	data    []float64
}

// New creates a Dense with the given shape. When data is nil a zeroed
// backing slice is allocated; otherwise len(data) must equal the product
// of shape and the slice is used without copying.
func New(shape []int, data []float64) (*Dense, error) {
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, errors.NewValueError("tensor.New", fmt.Sprintf("negative dimension in shape %v", shape))
		}
		n *= s
	}
	if data == nil {
		data = make([]float64, n)
	}
	if len(data) != n {
		return nil, errors.NewDimensionError("tensor.New", n, len(data), 0)
	}
	sh := append([]int(nil), shape...)
	return &Dense{shape: sh, strides: stridesOf(sh), data: data}, nil
}

// Zeros allocates a zero tensor. It panics on negative dimensions.
func Zeros(shape ...int) *Dense {
	t, err := New(shape, nil)
	if err != nil {
		panic(err)
	}
	return t
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Shape returns a copy of the dimensions.
func (t *Dense) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Dims returns the number of axes.
func (t *Dense) Dims() int {
	return len(t.shape)
}

// Len returns the total number of elements.
func (t *Dense) Len() int {
	return len(t.data)
}

// Data returns the backing slice. Mutating it mutates the tensor.
func (t *Dense) Data() []float64 {
	return t.data
}

func (t *Dense) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor: index %v has %d axes, tensor has %d", idx, len(idx), len(t.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %v out of range for shape %v", idx, t.shape))
		}
		off += v * t.strides[i]
	}
	return off
}

// At returns the element at idx.
func (t *Dense) At(idx ...int) float64 {
	return t.data[t.offset(idx)]
}

// Set stores v at idx.
func (t *Dense) Set(v float64, idx ...int) {
	t.data[t.offset(idx)] = v
}

// Reshape returns a view with a new shape over the same data.
func (t *Dense) Reshape(shape ...int) (*Dense, error) {
	return New(shape, t.data)
}

// Clone returns a deep copy.
func (t *Dense) Clone() *Dense {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Dense{shape: t.Shape(), strides: append([]int(nil), t.strides...), data: data}
}

// Equal reports whether a and b have the same shape and elements within tol.
func Equal(a, b *Dense, tol float64) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return floats.EqualApprox(a.data, b.data, tol)
}

// Gather3 selects, from a rank-3 tensor [n, t, f], the time steps
// [t0, t1) and the feature columns cols (all features when cols is nil).
// The result has shape [n, t1-t0, len(cols)].
func Gather3(src *Dense, t0, t1 int, cols []int) (*Dense, error) {
	if src.Dims() != 3 {
		return nil, errors.NewDimensionError("tensor.Gather3", 3, src.Dims(), 0)
	}
	n, steps, feats := src.shape[0], src.shape[1], src.shape[2]
	if t0 < 0 || t1 > steps || t0 > t1 {
		return nil, errors.NewValueError("tensor.Gather3", fmt.Sprintf("time range [%d, %d) outside [0, %d)", t0, t1, steps))
	}
	if cols == nil {
		cols = make([]int, feats)
		for j := range cols {
			cols[j] = j
		}
	}
	for _, c := range cols {
		if c < 0 || c >= feats {
			return nil, errors.NewValueError("tensor.Gather3", fmt.Sprintf("feature %d outside [0, %d)", c, feats))
		}
	}

	out := Zeros(n, t1-t0, len(cols))
	k := 0
	for i := 0; i < n; i++ {
		for s := t0; s < t1; s++ {
			base := i*src.strides[0] + s*src.strides[1]
			for _, c := range cols {
				out.data[k] = src.data[base+c]
				k++
			}
		}
	}
	return out, nil
}

// Tile3 repeats a rank-3 tensor [n, 1, f] reps times along the time axis.
func Tile3(src *Dense, reps int) (*Dense, error) {
	if src.Dims() != 3 || src.shape[1] != 1 {
		return nil, errors.NewValueError("tensor.Tile3", fmt.Sprintf("expected shape [n, 1, f], got %v", src.shape))
	}
	n, feats := src.shape[0], src.shape[2]
	out := Zeros(n, reps, feats)
	for i := 0; i < n; i++ {
		row := src.data[i*feats : (i+1)*feats]
		for r := 0; r < reps; r++ {
			copy(out.data[(i*reps+r)*feats:], row)
		}
	}
	return out, nil
}

// Flatten2 collapses every axis after the first: [n, a, b, ...] -> [n, a*b*...].
func Flatten2(src *Dense) (*Dense, error) {
	if src.Dims() < 1 {
		return nil, errors.NewValueError("tensor.Flatten2", "scalar tensor has no batch axis")
	}
	n := src.shape[0]
	if n == 0 {
		return src.Reshape(0, 0)
	}
	return src.Reshape(n, len(src.data)/n)
}

// String implements fmt.Stringer.
func (t *Dense) String() string {
	return fmt.Sprintf("tensor.Dense(shape=%v)", t.shape)
}

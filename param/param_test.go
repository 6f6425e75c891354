package param

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

func TestExpandOrder(t *testing.T) {
	grid := MustGrid(
		Axis{Name: "a", Values: []interface{}{1, 2}},
		Axis{Name: "b", Values: []interface{}{3, 4}},
	)

	got := Expand(grid)
	want := []map[string]interface{}{
		{"a": 1, "b": 3},
		{"a": 1, "b": 4},
		{"a": 2, "b": 3},
		{"a": 2, "b": 4},
	}
	require.Len(t, got, len(want))
	for i, s := range got {
		assert.Equal(t, want[i], s.Map(), "setting %d", i)
		assert.Equal(t, []string{"a", "b"}, s.Names())
	}
	assert.Equal(t, 4, grid.Size())
}

func TestExpandKeepsDeclaredOrder(t *testing.T) {
	grid := MustGrid(
		Axis{Name: "z", Values: []interface{}{"x", "y"}},
		Axis{Name: "a", Values: []interface{}{true}},
		Axis{Name: "m", Values: []interface{}{0.1, 0.2, 0.3}},
	)

	got := Expand(grid)
	require.Len(t, got, 6)
	assert.Equal(t, []string{"z", "a", "m"}, got[0].Names())
	assert.Equal(t, "{z=x, a=true, m=0.1}", got[0].String())
	assert.Equal(t, "{z=x, a=true, m=0.3}", got[2].String())
	assert.Equal(t, "{z=y, a=true, m=0.1}", got[3].String())
}

func TestExpandEmptyGrid(t *testing.T) {
	got := Expand(MustGrid())
	require.Len(t, got, 1)
	assert.Zero(t, got[0].Len())
}

func TestNewGridValidation(t *testing.T) {
	tests := []struct {
		name string
		axes []Axis
	}{
		{"duplicate", []Axis{{Name: "a", Values: []interface{}{1}}, {Name: "a", Values: []interface{}{2}}}},
		{"empty name", []Axis{{Name: "", Values: []interface{}{1}}}},
		{"no values", []Axis{{Name: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.axes...)
			var valErr *errors.ValidationError
			assert.True(t, errors.As(err, &valErr))
		})
	}
}

func TestSettingIsImmutable(t *testing.T) {
	values := []interface{}{1, 2}
	grid := MustGrid(Axis{Name: "a", Values: values})
	values[0] = 99

	s := Expand(grid)[0]
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	params := s.Params()
	params[0].Value = 42
	v, _ = s.Get("a")
	assert.Equal(t, 1, v)

	changed := s.With("a", 5).With("b", "x")
	v, _ = s.Get("a")
	assert.Equal(t, 1, v)
	assert.Equal(t, map[string]interface{}{"a": 5, "b": "x"}, changed.Map())
	assert.Equal(t, []string{"b"}, changed.Without("a").Names())
}

func TestTypedAccessors(t *testing.T) {
	s, err := NewSetting(
		Param{Name: "epochs", Value: 5},
		Param{Name: "lr", Value: 0.01},
		Param{Name: "name", Value: "lin"},
		Param{Name: "diffs", Value: true},
		Param{Name: "share", Value: []interface{}{0.8, 1}},
		Param{Name: "cols", Value: []interface{}{"a", "b"}},
	)
	require.NoError(t, err)

	epochs, err := s.Int("epochs")
	require.NoError(t, err)
	assert.Equal(t, 5, epochs)

	lr, err := s.Float("lr")
	require.NoError(t, err)
	assert.Equal(t, 0.01, lr)

	asFloat, err := s.Float("epochs")
	require.NoError(t, err)
	assert.Equal(t, 5.0, asFloat)

	name, err := s.Str("name")
	require.NoError(t, err)
	assert.Equal(t, "lin", name)

	diffs, err := s.Bool("diffs")
	require.NoError(t, err)
	assert.True(t, diffs)

	share, err := s.Floats("share")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.8, 1}, share)

	cols, err := s.Strings("cols")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cols)

	l2, err := s.FloatOr("l2", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, l2)

	// intへの暗黙の変換はしない
	_, err = s.Int("lr")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = s.Int("missing")
	assert.True(t, errors.As(err, &valErr))

	_, err = NewSetting(Param{Name: "a"}, Param{Name: "a"})
	assert.Error(t, err)
}

func TestSettingJSONKeepsOrder(t *testing.T) {
	s, err := NewSetting(Param{Name: "z", Value: 1}, Param{Name: "a", Value: []interface{}{"x"}})
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":["x"]}`, string(data))

	var decoded Setting
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"z", "a"}, decoded.Names())
}

func TestSettingGobKeepsTypes(t *testing.T) {
	s, err := NewSetting(
		Param{Name: "n", Value: 3},
		Param{Name: "f", Value: 3.0},
		Param{Name: "list", Value: []interface{}{0.8, 1.0}},
		Param{Name: "none", Value: nil},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(s))
	var decoded Setting
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))

	assert.Equal(t, s.Params(), decoded.Params())
	n, _ := decoded.Get("n")
	assert.IsType(t, 0, n)
}

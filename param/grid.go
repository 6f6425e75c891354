package param

import (
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// Axis はグリッドの1軸（パラメータ名と候補値）
type Axis struct {
	Name   string
	Values []interface{}
}

// Grid は宣言順の軸を持つパラメータグリッド
type Grid struct {
	axes []Axis
}

// NewGrid は軸の宣言順を保ったGridを作成する
//
// パラメータ:
//   - axes: 宣言順の軸。名前の重複、空の名前、候補の無い軸はエラー
//
// 使用例:
//
//	grid, err := param.NewGrid(
//	    param.Axis{Name: "input_length", Values: []interface{}{8, 16}},
//	    param.Axis{Name: "batch_size", Values: []interface{}{32}},
//	)
func NewGrid(axes ...Axis) (*Grid, error) {
	seen := make(map[string]bool, len(axes))
	g := &Grid{axes: make([]Axis, len(axes))}
	for i, a := range axes {
		if a.Name == "" {
			return nil, errors.NewValidationError("grid", "axis name must not be empty", a.Values)
		}
		if seen[a.Name] {
			return nil, errors.NewValidationError(a.Name, "duplicate grid axis", a.Values)
		}
		if len(a.Values) == 0 {
			return nil, errors.NewValidationError(a.Name, "grid axis has no candidate values", a.Values)
		}
		seen[a.Name] = true
		g.axes[i] = Axis{Name: a.Name, Values: append([]interface{}(nil), a.Values...)}
	}
	return g, nil
}

// MustGrid はNewGridがエラーを返した場合にpanicする
func MustGrid(axes ...Axis) *Grid {
	g, err := NewGrid(axes...)
	if err != nil {
		panic(err)
	}
	return g
}

// Axes は軸のコピーを返す
func (g *Grid) Axes() []Axis {
	out := make([]Axis, len(g.axes))
	for i, a := range g.axes {
		out[i] = Axis{Name: a.Name, Values: append([]interface{}(nil), a.Values...)}
	}
	return out
}

// Names は宣言順の軸名を返す
func (g *Grid) Names() []string {
	names := make([]string, len(g.axes))
	for i, a := range g.axes {
		names[i] = a.Name
	}
	return names
}

// Size は展開後のSetting数を返す
func (g *Grid) Size() int {
	n := 1
	for _, a := range g.axes {
		n *= len(a.Values)
	}
	return n
}

// Expand はグリッドの直積を宣言順に展開する
// 先頭の軸が最も遅く、末尾の軸が最も速く変化する。軸の無いグリッドは空のSetting1つを返す。
//
// 使用例:
//
//	// {"a": [1, 2], "b": [3, 4]}
//	settings := param.Expand(grid)
//	// → {a=1, b=3}, {a=1, b=4}, {a=2, b=3}, {a=2, b=4}
func Expand(g *Grid) []Setting {
	if g == nil {
		return []Setting{{}}
	}
	out := make([]Setting, 0, g.Size())
	idx := make([]int, len(g.axes))
	for {
		params := make([]Param, len(g.axes))
		for i, a := range g.axes {
			params[i] = Param{Name: a.Name, Value: a.Values[idx[i]]}
		}
		out = append(out, Setting{params: params})

		// 末尾の軸から繰り上げる
		k := len(idx) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(g.axes[k].Values) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return out
		}
	}
}

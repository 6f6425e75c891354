package dataset

import (
	"math"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// TargetColumnIDs はセレクタを除外されていない列の位置のリストに解決する
//
// 受け付けるセレクタ:
//   - nil, "default", "all": 全列
//   - []string（または文字列のみの[]any）: 名前で指定。結果はテーブルの列順
//   - []int, []float64（整数値のみ）、数値のみの[]any: 位置で指定。結果は指定順
//
// それ以外の形式、未知の列名、範囲外の位置は InvalidSelectorError を返す。
func (d *Dataset) TargetColumnIDs(selector interface{}) ([]int, error) {
	switch sel := selector.(type) {
	case nil:
		return d.allIDs(), nil
	case string:
		if sel == "default" || sel == "all" {
			return d.allIDs(), nil
		}
		return nil, errors.NewInvalidSelectorError(selector, "only \"default\" or \"all\" are accepted as a single string")
	case []string:
		return d.idsByName(selector, sel)
	case []int:
		return d.idsByIndex(selector, sel)
	case []float64:
		ids := make([]int, len(sel))
		for i, v := range sel {
			if v != math.Trunc(v) {
				return nil, errors.NewInvalidSelectorError(selector, "column indices must be integral")
			}
			ids[i] = int(v)
		}
		return d.idsByIndex(selector, ids)
	case []interface{}:
		return d.idsFromAny(sel)
	default:
		return nil, errors.NewInvalidSelectorError(selector, "expected \"default\", \"all\", a list of names or a list of indices")
	}
}

// TargetColumns はセレクタを列名のリストに解決する
func (d *Dataset) TargetColumns(selector interface{}) ([]string, error) {
	ids, err := d.TargetColumnIDs(selector)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = d.cols[id]
	}
	return names, nil
}

func (d *Dataset) allIDs() []int {
	ids := make([]int, len(d.cols))
	for i := range ids {
		ids[i] = i
	}
	return ids
}

func (d *Dataset) idsByName(selector interface{}, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, errors.NewInvalidSelectorError(selector, "empty column list")
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var ids []int
	for i, c := range d.cols {
		if wanted[c] {
			ids = append(ids, i)
			delete(wanted, c)
		}
	}
	if len(wanted) > 0 {
		for _, n := range names {
			if wanted[n] {
				return nil, errors.NewInvalidSelectorError(selector, "unknown or excluded column '"+n+"'")
			}
		}
	}
	return ids, nil
}

func (d *Dataset) idsByIndex(selector interface{}, idx []int) ([]int, error) {
	if len(idx) == 0 {
		return nil, errors.NewInvalidSelectorError(selector, "empty column list")
	}
	ids := make([]int, len(idx))
	for i, v := range idx {
		if v < 0 || v >= len(d.cols) {
			return nil, errors.NewInvalidSelectorError(selector, "column index out of range")
		}
		ids[i] = v
	}
	return ids, nil
}

// idsFromAny はYAML等から得た[]anyを先頭要素の型で名前指定か位置指定かに振り分ける
func (d *Dataset) idsFromAny(sel []interface{}) ([]int, error) {
	if len(sel) == 0 {
		return nil, errors.NewInvalidSelectorError(sel, "empty column list")
	}
	switch sel[0].(type) {
	case string:
		names := make([]string, len(sel))
		for i, v := range sel {
			s, ok := v.(string)
			if !ok {
				return nil, errors.NewInvalidSelectorError(sel, "mixed names and non-names")
			}
			names[i] = s
		}
		return d.idsByName(sel, names)
	case int, float64:
		idx := make([]int, len(sel))
		for i, v := range sel {
			switch n := v.(type) {
			case int:
				idx[i] = n
			case float64:
				if n != math.Trunc(n) {
					return nil, errors.NewInvalidSelectorError(sel, "column indices must be integral")
				}
				idx[i] = int(n)
			default:
				return nil, errors.NewInvalidSelectorError(sel, "mixed indices and non-indices")
			}
		}
		return d.idsByIndex(sel, idx)
	default:
		return nil, errors.NewInvalidSelectorError(sel, "list elements must be names or integer indices")
	}
}

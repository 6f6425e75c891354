package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// Table は時刻順に並んだ数値テーブル
// 行が時刻ステップ、列が名前付きの系列を表す。作成後は変更されない。
type Table struct {
	columns []string
	index   map[string]int
	data    *mat.Dense
}

// NewTable は列名と行列からTableを作成する
//
// パラメータ:
//   - columns: 列名（重複不可）
//   - data: rows × len(columns) の行列（コピーされる）
//
// 戻り値:
//   - *Table: 新しいTable
//   - error: 列数の不一致、重複した列名、NaN/Infを含む場合
func NewTable(columns []string, data mat.Matrix) (*Table, error) {
	r, c := data.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("NewTable", "empty data", errors.ErrEmptyData)
	}
	if c != len(columns) {
		return nil, errors.NewDimensionError("NewTable", len(columns), c, 1)
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column name", name)
		}
		index[name] = i
	}

	if err := errors.CheckMatrix("NewTable", data); err != nil {
		return nil, err
	}

	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		data:    mat.DenseCopyOf(data),
	}, nil
}

// Columns は列名のコピーを返す
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Rows は行数を返す
func (t *Table) Rows() int {
	r, _ := t.data.Dims()
	return r
}

// ColumnIndex は列名に対応する位置を返す
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Matrix はテーブルの行列を読み取り専用ビューとして返す
func (t *Table) Matrix() mat.Matrix {
	return t.data
}

// Head は先頭n行のみを持つTableを返す
func (t *Table) Head(n int) *Table {
	r, c := t.data.Dims()
	if n >= r {
		return t
	}
	return &Table{
		columns: t.columns,
		index:   t.index,
		data:    mat.DenseCopyOf(t.data.Slice(0, n, 0, c)),
	}
}

// String はテーブルの文字列表現を返す
func (t *Table) String() string {
	return fmt.Sprintf("Table(rows=%d, columns=%v)", t.Rows(), t.columns)
}

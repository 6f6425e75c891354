// Package ioformat はウィンドウのバッチをモデルの入出力形式に変換するフォーマット関数を提供する。
package ioformat

import (
	"fmt"

	"github.com/YuminosukeSato/seqgrid/dataset"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/tensor"
)

// Kind はフォーマットの種類
type Kind string

const (
	// FlatRegression は入力 [bs, il*w] と出力 [bs, ol*t] の2次元ペア（線形回帰向け）
	FlatRegression Kind = "flat_regression"
	// Regression は入力 [bs, il, w] と出力 [bs, ol*t]（系列モデル向け）
	Regression Kind = "regression"
	// VIRegression は入力 {primary, value} と出力 [bs, ol, t]
	VIRegression Kind = "vi_regression"
	// CVIRegression は VIRegression に補助出力 value を加えたもの
	CVIRegression Kind = "cvi_regression"
)

// Kinds は対応しているフォーマットの一覧を返す
func Kinds() []Kind {
	return []Kind{FlatRegression, Regression, VIRegression, CVIRegression}
}

// Options はフォーマット関数の列指定
type Options struct {
	// Targets は出力列のセレクタ（Dataset.TargetColumnIDs に渡される）。nilは全列
	Targets interface{}

	// InputCols は主入力に使う列の位置。nilは全列
	InputCols []int
}

// New はフォーマット関数を作成する
//
// パラメータ:
//   - kind: フォーマットの種類
//   - ds: 列と input_length の解決に使うDataset
//   - opts: ターゲット列と入力列の指定
//
// 戻り値:
//   - dataset.FormatFunc: Generator に渡すフォーマット関数
//   - error: 未知のフォーマット（UnsupportedFormatError）、またはセレクタが不正な場合
//
// 使用例:
//
//	format, err := ioformat.New(ioformat.FlatRegression, ds, ioformat.Options{Targets: []string{"close"}})
//	gen, err := ds.Gen(dataset.GenOptions{Mode: dataset.ModeTrain, Format: format, Shuffle: true})
func New(kind Kind, ds *dataset.Dataset, opts Options) (dataset.FormatFunc, error) {
	targets, err := ds.TargetColumnIDs(opts.Targets)
	if err != nil {
		return nil, err
	}
	inputCols := opts.InputCols
	for _, c := range inputCols {
		if c < 0 || c >= ds.Dim() {
			return nil, errors.NewValidationError("input_cols", fmt.Sprintf("column index outside [0, %d)", ds.Dim()), inputCols)
		}
	}

	f := &formatter{il: ds.InputLength(), targets: targets, inputCols: inputCols}
	switch kind {
	case FlatRegression:
		return f.flatRegression, nil
	case Regression:
		return f.regression, nil
	case VIRegression:
		return f.viRegression, nil
	case CVIRegression:
		return f.cviRegression, nil
	default:
		return nil, errors.NewUnsupportedFormatError(string(kind))
	}
}

type formatter struct {
	il        int
	targets   []int
	inputCols []int
}

func (f *formatter) input(batch *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Gather3(batch, 0, f.il, f.inputCols)
}

func (f *formatter) valueInput(batch *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Gather3(batch, 0, f.il, f.targets)
}

func (f *formatter) output(batch *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Gather3(batch, f.il, batch.Shape()[1], f.targets)
}

func (f *formatter) flatRegression(batch *tensor.Dense) (dataset.Pair, error) {
	in, err := f.input(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	if in, err = tensor.Flatten2(in); err != nil {
		return dataset.Pair{}, err
	}
	out, err := f.output(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	if out, err = tensor.Flatten2(out); err != nil {
		return dataset.Pair{}, err
	}
	return single(in, out), nil
}

func (f *formatter) regression(batch *tensor.Dense) (dataset.Pair, error) {
	in, err := f.input(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	out, err := f.output(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	if out, err = tensor.Flatten2(out); err != nil {
		return dataset.Pair{}, err
	}
	return single(in, out), nil
}

func (f *formatter) viRegression(batch *tensor.Dense) (dataset.Pair, error) {
	in, err := f.input(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	value, err := f.valueInput(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	out, err := f.output(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	return dataset.Pair{
		Input:  map[string]*tensor.Dense{dataset.InputKey: in, dataset.ValueKey: value},
		Output: map[string]*tensor.Dense{dataset.OutputKey: out},
	}, nil
}

// cviRegression の補助出力は最初の出力ステップのターゲット値を input_length 回繰り返したもの
func (f *formatter) cviRegression(batch *tensor.Dense) (dataset.Pair, error) {
	pair, err := f.viRegression(batch)
	if err != nil {
		return dataset.Pair{}, err
	}
	first, err := tensor.Gather3(batch, f.il, f.il+1, f.targets)
	if err != nil {
		return dataset.Pair{}, err
	}
	aux, err := tensor.Tile3(first, f.il)
	if err != nil {
		return dataset.Pair{}, err
	}
	pair.Output[dataset.ValueKey] = aux
	return pair, nil
}

func single(in, out *tensor.Dense) dataset.Pair {
	return dataset.Pair{
		Input:  map[string]*tensor.Dense{dataset.InputKey: in},
		Output: map[string]*tensor.Dense{dataset.OutputKey: out},
	}
}

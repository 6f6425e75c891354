// Package dataset は時系列テーブルから固定長ウィンドウのサンプルを生成する。
//
// Dataset は訓練区間のみから計算した統計量で標準化を行い、訓練・検証の境界を
// バッチサイズに揃えて計算する。Generator はそのDatasetからシャッフル順または
// 状態を持つ系列モデル向けの順序付きでバッチを遅延生成する。
package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
)

// Config はDatasetの構築パラメータ
type Config struct {
	// TrainShare は (訓練割合, 訓練+検証割合)。どちらも (0, 1]
	TrainShare [2]float64

	// InputLength は入力ウィンドウの時刻ステップ数
	InputLength int

	// OutputLength は出力ウィンドウの時刻ステップ数
	OutputLength int

	// BatchSize はバッチあたりのウィンドウ数
	BatchSize int

	// Excluded はスケーリング・差分・サンプルから除外する列名
	Excluded []string

	// Diffs がtrueの場合、除外されていない列を1階差分に置き換え先頭行を削除する
	Diffs bool

	// Limit が正の場合、変換前に先頭Limit行のみを使用する
	Limit int
}

// DefaultConfig はよく使われる既定値のConfigを返す
func DefaultConfig() Config {
	return Config{
		TrainShare:   [2]float64{0.8, 1.0},
		InputLength:  1,
		OutputLength: 1,
		BatchSize:    16,
	}
}

// WindowLength は input_length + output_length を返す
func (c Config) WindowLength() int {
	return c.InputLength + c.OutputLength
}

// Validate は構築パラメータを検証する
func (c Config) Validate() error {
	for i, s := range c.TrainShare {
		if !(s > 0 && s <= 1) {
			return errors.NewValidationError(fmt.Sprintf("train_share[%d]", i), "must be in (0, 1]", s)
		}
	}
	if c.TrainShare[1] < c.TrainShare[0] {
		return errors.NewValidationError("train_share", "validation bound must not precede training bound", c.TrainShare)
	}
	if c.InputLength < 1 {
		return errors.NewValidationError("input_length", "must be positive", c.InputLength)
	}
	if c.OutputLength < 1 {
		return errors.NewValidationError("output_length", "must be positive", c.OutputLength)
	}
	if c.BatchSize < 1 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	if c.Limit < 0 {
		return errors.NewValidationError("limit", "must not be negative", c.Limit)
	}
	return nil
}

// Dataset は時系列テーブルとスケーリング統計、ウィンドウの境界を保持する
type Dataset struct {
	cfg Config

	// data は差分・スケーリング適用後のテーブル（全列）
	data    *mat.Dense
	columns []string

	// cols は除外されていない列名（テーブル順）、colIdx はそのテーブル上の位置
	cols   []string
	colIdx []int

	nTrain int
	nAll   int

	stats  *ScalingStats
	logger log.Logger
}

// New はTableからDatasetを作成する
// 差分変換（Diffs指定時）と訓練区間に基づく標準化は構築時に一度だけ適用される。
//
// パラメータ:
//   - table: 入力テーブル（変更されない）
//   - cfg: 構築パラメータ
//
// 戻り値:
//   - *Dataset: 新しいDataset
//   - error: パラメータ不正、または行数がウィンドウに足りない場合
//
// 使用例:
//
//	cfg := dataset.DefaultConfig()
//	cfg.InputLength, cfg.OutputLength = 60, 1
//	ds, err := dataset.New(table, cfg)
//	gen, err := ds.Gen(dataset.GenOptions{Mode: dataset.ModeTrain, Shuffle: true})
func New(table *Table, cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, errors.NewModelError("dataset.New", "nil table", errors.ErrEmptyData)
	}
	if cfg.Limit > 0 {
		table = table.Head(cfg.Limit)
	}

	excluded := make(map[string]bool, len(cfg.Excluded))
	for _, name := range cfg.Excluded {
		if _, ok := table.ColumnIndex(name); !ok {
			return nil, errors.NewValidationError("excluded", "unknown column", name)
		}
		excluded[name] = true
	}

	d := &Dataset{
		cfg:     cfg,
		data:    mat.DenseCopyOf(table.Matrix()),
		columns: table.Columns(),
		logger:  log.GetLoggerWithName("dataset"),
	}
	for j, name := range d.columns {
		if !excluded[name] {
			d.cols = append(d.cols, name)
			d.colIdx = append(d.colIdx, j)
		}
	}
	if len(d.cols) == 0 {
		return nil, errors.NewValidationError("excluded", "every column is excluded", cfg.Excluded)
	}

	if cfg.Diffs {
		if err := d.difference(); err != nil {
			return nil, err
		}
	}

	if err := d.computeBounds(); err != nil {
		return nil, err
	}

	if _, err := d.Scale(); err != nil {
		return nil, err
	}

	d.logger.Debug("Dataset constructed",
		log.SamplesKey, d.Rows(),
		log.FeaturesKey, len(d.cols),
		log.WindowLengthKey, cfg.WindowLength(),
		log.BatchSizeKey, cfg.BatchSize,
		log.NTrainKey, d.nTrain,
		log.NAllKey, d.nAll,
	)
	return d, nil
}

// difference は除外されていない列を1階差分に置き換え、未定義になる先頭行を削除する
func (d *Dataset) difference() error {
	r, c := d.data.Dims()
	if r < 2 {
		return errors.NewValidationError("diffs", "differencing needs at least two rows", r)
	}

	out := mat.NewDense(r-1, c, nil)
	out.Copy(d.data.Slice(1, r, 0, c))

	col := make([]float64, r)
	for _, j := range d.colIdx {
		mat.Col(col, j, d.data)
		diff := make([]float64, r-1)
		floats.SubTo(diff, col[1:], col[:r-1])
		out.SetCol(j, diff)
	}
	d.data = out
	return nil
}

// computeBounds は n_train と n_all を計算する
// どちらも (境界 - L) がバッチサイズの倍数になるように切り下げる。
func (d *Dataset) computeBounds() error {
	rows := float64(d.Rows())
	l := d.cfg.WindowLength()
	bs := d.cfg.BatchSize

	trainSpan := rows*d.cfg.TrainShare[0] - float64(l)
	if trainSpan < 0 {
		return errors.NewValidationError("train_share",
			fmt.Sprintf("training partition of %.1f rows is shorter than one window (%d rows)", rows*d.cfg.TrainShare[0], l),
			d.cfg.TrainShare)
	}
	d.nTrain = int(math.Floor(trainSpan/float64(bs)))*bs + l

	validBatches := int(math.Floor((rows*d.cfg.TrainShare[1] - float64(d.nTrain) - float64(l)) / float64(bs)))
	if validBatches < 0 {
		// 検証区間にウィンドウが1つも入らない場合は空の検証区間とする
		d.nAll = d.nTrain
	} else {
		d.nAll = d.nTrain + validBatches*bs + l
	}
	return nil
}

// Rows は変換後のテーブルの行数を返す
func (d *Dataset) Rows() int {
	r, _ := d.data.Dims()
	return r
}

// NTrain は訓練区間の終端（排他的）を返す
func (d *Dataset) NTrain() int { return d.nTrain }

// NAll は訓練+検証区間の終端（排他的）を返す
func (d *Dataset) NAll() int { return d.nAll }

// Config は構築パラメータのコピーを返す
func (d *Dataset) Config() Config {
	cfg := d.cfg
	cfg.Excluded = append([]string(nil), d.cfg.Excluded...)
	return cfg
}

// InputLength は入力ウィンドウ長を返す
func (d *Dataset) InputLength() int { return d.cfg.InputLength }

// OutputLength は出力ウィンドウ長を返す
func (d *Dataset) OutputLength() int { return d.cfg.OutputLength }

// WindowLength は L = input_length + output_length を返す
func (d *Dataset) WindowLength() int { return d.cfg.WindowLength() }

// BatchSize は既定のバッチサイズを返す
func (d *Dataset) BatchSize() int { return d.cfg.BatchSize }

// Columns は除外されていない列名を返す
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.cols...)
}

// Dim は除外されていない列の数を返す
func (d *Dataset) Dim() int {
	return len(d.cols)
}

// Dims は (入力次元, ターゲット列数) を返す
func (d *Dataset) Dims(selector interface{}) (int, int, error) {
	ids, err := d.TargetColumnIDs(selector)
	if err != nil {
		return 0, 0, err
	}
	return d.Dim(), len(ids), nil
}

// AsArray は指定した列の行列（行優先、float64）を返す
// columns がnilの場合は除外されていない全列を返す。空のリストはエラー。返り値はコピー。
func (d *Dataset) AsArray(columns []string) (*mat.Dense, error) {
	if columns == nil {
		columns = d.cols
	}
	if len(columns) == 0 {
		return nil, errors.NewValidationError("columns", "must select at least one column", columns)
	}
	r, _ := d.data.Dims()
	out := mat.NewDense(r, len(columns), nil)
	col := make([]float64, r)
	for k, name := range columns {
		j := -1
		for i, c := range d.columns {
			if c == name {
				j = i
				break
			}
		}
		if j < 0 {
			return nil, errors.NewValidationError("columns", "unknown column", name)
		}
		mat.Col(col, j, d.data)
		out.SetCol(k, col)
	}
	return out, nil
}

// String はDatasetの文字列表現を返す
func (d *Dataset) String() string {
	return fmt.Sprintf("Dataset(rows=%d, dim=%d, L=%d, batch_size=%d, n_train=%d, n_all=%d)",
		d.Rows(), d.Dim(), d.WindowLength(), d.cfg.BatchSize, d.nTrain, d.nAll)
}

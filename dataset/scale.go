package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
	"github.com/YuminosukeSato/seqgrid/preprocessing"
)

// ScaleEpsilon は標準偏差が0の列に使われる下限値
const ScaleEpsilon = 0.001

// ScalingStats は訓練区間 [0, n_train) から計算した列ごとの平均と標準偏差
type ScalingStats struct {
	// Columns は統計量を持つ列名（除外列を含まない）
	Columns []string

	// Mean は各列の平均値
	Mean []float64

	// Std は各列の標準偏差（不偏）。0の場合はScaleEpsilonに置き換え済み
	Std []float64

	// Constant は元の標準偏差が0だった列を示す
	Constant []bool

	// Rows は統計量の計算に使った行数（= n_train）
	Rows int
}

// Inverse は標準化された値を元のスケールに戻す
func (s *ScalingStats) Inverse(col int, v float64) float64 {
	return v*s.Std[col] + s.Mean[col]
}

// Scale は訓練区間の統計量で除外されていない全列を標準化する
// 検証区間以降の行は統計量の計算に一切使わない。変換は一度だけ適用され、
// 2回目以降の呼び出しは既存の統計量を返す。
//
// 戻り値:
//   - *ScalingStats: 計算された統計量
//   - error: 統計量にNaN/Infが含まれる場合
func (d *Dataset) Scale() (*ScalingStats, error) {
	if d.stats != nil {
		return d.stats, nil
	}

	// 除外されていない列だけを取り出し、訓練区間の行で学習して全行を変換する
	r, _ := d.data.Dims()
	values := mat.NewDense(r, len(d.colIdx), nil)
	for k, j := range d.colIdx {
		values.SetCol(k, mat.Col(nil, j, d.data))
	}

	scaler := preprocessing.NewStandardScaler(ScaleEpsilon)
	if err := scaler.Fit(values.Slice(0, d.nTrain, 0, len(d.colIdx))); err != nil {
		return nil, err
	}
	if err := scaler.TransformInPlace(values); err != nil {
		return nil, err
	}
	for k, j := range d.colIdx {
		d.data.SetCol(j, mat.Col(nil, k, values))
		if scaler.Constant[k] {
			errors.Warn(errors.NewConstantColumnWarning(d.cols[k], ScaleEpsilon))
		}
	}

	stats := &ScalingStats{
		Columns:  append([]string(nil), d.cols...),
		Mean:     scaler.Mean,
		Std:      scaler.Scale,
		Constant: scaler.Constant,
		Rows:     d.nTrain,
	}
	d.stats = stats
	d.logger.Debug("Scaled columns with training statistics",
		log.OperationKey, log.OperationScale,
		log.FeaturesKey, len(d.cols),
		log.NTrainKey, d.nTrain,
	)
	return stats, nil
}

// Stats は計算済みの統計量を返す
func (d *Dataset) Stats() *ScalingStats {
	return d.stats
}

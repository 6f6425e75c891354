// Package preprocessing は列ごとの標準化を提供する。
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seqgrid/core/model"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// DefaultEpsilon は標準偏差が0の列に使うスケールの既定値
const DefaultEpsilon = 0.001

// StandardScaler はデータを列ごとに平均0、標準偏差1に変換する
// 標準偏差は不偏推定量（n-1で割る）を使う。
type StandardScaler struct {
	State *model.StateManager

	// Mean は各列の平均値
	Mean []float64

	// Scale は各列の標準偏差。0だった列は Epsilon に置き換える
	Scale []float64

	// Constant は標準偏差が0だった列を示す
	Constant []bool

	// Epsilon は標準偏差が0の列に使うスケール
	Epsilon float64
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// パラメータ:
//   - epsilon: 標準偏差が0の列に使うスケール（0以下の場合は DefaultEpsilon）
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(0)
//	err := scaler.Fit(train)            // 訓練区間の行のみ
//	err = scaler.TransformInPlace(all)  // 全ての行を同じ統計量で変換
func NewStandardScaler(epsilon float64) *StandardScaler {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &StandardScaler{
		State:   model.NewStateManager(),
		Epsilon: epsilon,
	}
}

// Fit は列ごとの平均と標準偏差を計算する
//
// 戻り値:
//   - error: 行が2行未満、または統計量にNaN/Infが含まれる場合
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if r < 2 {
		return errors.NewValueError("StandardScaler.Fit", "at least two rows are needed for a sample standard deviation")
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	s.Constant = make([]bool, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			s.Constant[j] = true
			std = s.Epsilon
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}

	if err := errors.CheckNumericalStability("StandardScaler.Fit", s.Mean, 0); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("StandardScaler.Fit", s.Scale, 0); err != nil {
		return err
	}

	s.State.Reset()
	s.State.SetDimensions(c, c)
	s.State.AddSamples(r)
	s.State.SetFitted()
	return nil
}

// Transform は標準化した新しい行列を返す
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	out := mat.DenseCopyOf(X)
	if err := s.TransformInPlace(out); err != nil {
		return nil, err
	}
	return out, nil
}

// TransformInPlace はXを直接標準化する
func (s *StandardScaler) TransformInPlace(X *mat.Dense) error {
	if err := s.check("StandardScaler.Transform", X); err != nil {
		return err
	}
	X.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return nil
}

// FitTransform はXで学習し、同じXを変換した行列を返す
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.check("StandardScaler.InverseTransform", X); err != nil {
		return nil, err
	}
	out := mat.DenseCopyOf(X)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, out)
	return out, nil
}

func (s *StandardScaler) check(op string, X mat.Matrix) error {
	if err := s.State.RequireFitted(op); err != nil {
		return err
	}
	_, c := X.Dims()
	if c != len(s.Mean) {
		return errors.NewDimensionError(op, len(s.Mean), c, 1)
	}
	return nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.State.IsFitted() {
		return fmt.Sprintf("StandardScaler(epsilon=%g)", s.Epsilon)
	}
	return fmt.Sprintf("StandardScaler(epsilon=%g, n_features=%d)", s.Epsilon, len(s.Mean))
}

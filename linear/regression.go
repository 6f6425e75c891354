// Package linear は複数出力の線形回帰（リッジ正則化付き）を提供する。
//
// Fit は正規方程式による閉形式の解、PartialFit はミニバッチの勾配降下による
// 逐次学習を行う。どちらも同じ係数を共有するので、閉形式で初期化してから
// 逐次学習を続けることもできる。
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/core/model"
	"github.com/YuminosukeSato/seqgrid/core/parallel"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

var _ model.OnlineRegressor = (*LinearRegression)(nil)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// LinearRegression は複数出力の線形回帰モデル
// Y = X * Coef + Intercept
type LinearRegression struct {
	State *model.StateManager

	// Coef は係数行列 [特徴量数, 出力数]
	Coef *mat.Dense

	// Intercept は出力ごとの切片
	Intercept []float64

	// L2 は係数（切片を除く）に対するリッジ正則化の強さ
	L2 float64

	// LearningRate はPartialFitの学習率
	LearningRate float64

	// MaxGradNorm が正の場合、PartialFitの勾配をこのノルムで切り詰める
	MaxGradNorm float64
}

// NewLinearRegression は新しい線形回帰モデルを作成する
//
// 使用例:
//
//	reg := linear.NewLinearRegression(linear.WithL2(1e-3), linear.WithLearningRate(0.05))
//	if err := reg.Fit(X, Y); err != nil {
//	    return err
//	}
//	pred, err := reg.Predict(Xtest)
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		State:        model.NewStateManager(),
		LearningRate: 0.01,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// IsFitted はモデルが学習済みかどうかを返す
func (lr *LinearRegression) IsFitted() bool {
	return lr.State != nil && lr.State.IsFitted()
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 W = (A^T A + λD)^(-1) A^T Y を解く（A = [1, X]、D は切片を除く単位行列）
func (lr *LinearRegression) Fit(X, Y mat.Matrix) error {
	r, c, k, err := checkXY("LinearRegression.Fit", X, Y)
	if err != nil {
		return err
	}

	// 切片項のために X に 1 の列を追加
	A := mat.NewDense(r, c+1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			A.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				A.Set(i, j+1, X.At(i, j))
			}
		}
	})

	var ATA mat.Dense
	ATA.Mul(A.T(), A)
	for j := 1; j <= c; j++ {
		ATA.Set(j, j, ATA.At(j, j)+lr.L2)
	}

	var ATY mat.Dense
	ATY.Mul(A.T(), Y)

	var W mat.Dense
	if err := W.Solve(&ATA, &ATY); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", &W); err != nil {
		return err
	}

	lr.ensureState()
	lr.State.Reset()
	lr.State.SetDimensions(c, k)
	lr.Intercept = mat.Row(nil, 0, &W)
	lr.Coef = mat.DenseCopyOf(W.Slice(1, c+1, 0, k))
	lr.State.SetFitted()
	return nil
}

// PartialFit はミニバッチで1ステップの勾配降下を行う
// 最初の呼び出しで係数を0で初期化する。損失は (1/(n*k)) Σ(pred - y)² + λ||Coef||²。
//
// 戻り値:
//   - float64: 更新前のミニバッチの損失
//   - error: 次元の不一致、または係数が発散した場合
func (lr *LinearRegression) PartialFit(X, Y mat.Matrix) (float64, error) {
	r, c, k, err := checkXY("LinearRegression.PartialFit", X, Y)
	if err != nil {
		return 0, err
	}

	lr.ensureState()
	if !lr.State.IsFitted() {
		lr.State.SetDimensions(c, k)
		lr.Coef = mat.NewDense(c, k, nil)
		lr.Intercept = make([]float64, k)
		lr.State.SetFitted()
	}
	if nf, no := lr.State.GetDimensions(); nf != c || no != k {
		if nf != c {
			return 0, errors.NewDimensionError("LinearRegression.PartialFit", nf, c, 1)
		}
		return 0, errors.NewDimensionError("LinearRegression.PartialFit", no, k, 1)
	}

	// 勾配の和: [c*k 個の係数の勾配, k 個の切片の勾配, 二乗誤差の和]
	width := c*k + k + 1
	sums := parallel.SumWithThreshold(r, parallelThreshold, width, func(start, end int) []float64 {
		out := make([]float64, width)
		x := make([]float64, c)
		res := make([]float64, k)
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				x[j] = X.At(i, j)
			}
			for o := 0; o < k; o++ {
				p := lr.Intercept[o]
				for j := 0; j < c; j++ {
					p += x[j] * lr.Coef.At(j, o)
				}
				res[o] = p - Y.At(i, o)
				out[c*k+k] += res[o] * res[o]
			}
			for j := 0; j < c; j++ {
				for o := 0; o < k; o++ {
					out[j*k+o] += x[j] * res[o]
				}
			}
			floats.Add(out[c*k:c*k+k], res)
		}
		return out
	})

	scale := 2 / float64(r*k)
	grad := sums[:c*k+k]
	floats.Scale(scale, grad)
	coef := lr.Coef.RawMatrix()
	for j := 0; j < c; j++ {
		for o := 0; o < k; o++ {
			grad[j*k+o] += 2 * lr.L2 * coef.Data[j*coef.Stride+o]
		}
	}
	if lr.MaxGradNorm > 0 {
		errors.ClipGradient(grad, lr.MaxGradNorm)
	}

	loss := sums[c*k+k]/float64(r*k) + lr.L2*floats.Dot(lr.Coef.RawMatrix().Data, lr.Coef.RawMatrix().Data)

	for j := 0; j < c; j++ {
		for o := 0; o < k; o++ {
			lr.Coef.Set(j, o, lr.Coef.At(j, o)-lr.LearningRate*grad[j*k+o])
		}
	}
	floats.AddScaled(lr.Intercept, -lr.LearningRate, grad[c*k:])
	lr.State.AddSamples(r)

	if err := errors.CheckMatrix("LinearRegression.PartialFit", lr.Coef); err != nil {
		return loss, err
	}
	if err := errors.CheckNumericalStability("LinearRegression.PartialFit", lr.Intercept, lr.State.Iterations()); err != nil {
		return loss, err
	}
	return loss, nil
}

// Predict は入力データに対する予測 [行数, 出力数] を返す
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewModelError("LinearRegression.Predict", "not fitted", errors.ErrNotFitted)
	}

	r, c := X.Dims()
	nf, k := lr.State.GetDimensions()
	if c != nf {
		return nil, errors.NewDimensionError("LinearRegression.Predict", nf, c, 1)
	}

	pred := mat.NewDense(r, k, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		if start == end {
			return
		}
		var block mat.Dense
		block.Mul(rowSlice(X, start, end, c), lr.Coef)
		for i := start; i < end; i++ {
			for o := 0; o < k; o++ {
				pred.Set(i, o, block.At(i-start, o)+lr.Intercept[o])
			}
		}
	})
	return pred, nil
}

// Score は出力列ごとの決定係数の平均を返す
func (lr *LinearRegression) Score(X, Y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	r, k := Y.Dims()
	if pr, pk := pred.Dims(); pr != r || pk != k {
		return 0, errors.NewDimensionError("LinearRegression.Score", k, pk, 1)
	}

	var total float64
	used := 0
	col := make([]float64, r)
	for o := 0; o < k; o++ {
		mat.Col(col, o, Y)
		mean := floats.Sum(col) / float64(r)
		var tss, rss float64
		for i := 0; i < r; i++ {
			d := col[i] - mean
			tss += d * d
			e := col[i] - pred.At(i, o)
			rss += e * e
		}
		if tss == 0 {
			continue
		}
		total += 1 - rss/tss
		used++
	}
	if used == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}
	return total / float64(used), nil
}

// ParamCount は学習可能なパラメータ数（係数と切片）を返す
func (lr *LinearRegression) ParamCount() int {
	if !lr.IsFitted() {
		return 0
	}
	nf, k := lr.State.GetDimensions()
	return (nf + 1) * k
}

// Save はモデルをgob形式で保存する
func (lr *LinearRegression) Save(path string) error {
	if !lr.IsFitted() {
		return errors.NewModelError("LinearRegression.Save", "not fitted", errors.ErrNotFitted)
	}
	return model.SaveModel(lr, path)
}

// Load はSaveで保存したモデルを読み込む
func (lr *LinearRegression) Load(path string) error {
	var loaded LinearRegression
	if err := model.LoadModel(&loaded, path); err != nil {
		return err
	}
	if loaded.State == nil || !loaded.State.IsFitted() || loaded.Coef == nil {
		return errors.NewModelError("LinearRegression.Load", fmt.Sprintf("%s holds no fitted model", path), errors.ErrNotFitted)
	}
	*lr = loaded
	return nil
}

// String はモデルの文字列表現を返す
func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return "LinearRegression(not fitted)"
	}
	nf, k := lr.State.GetDimensions()
	return fmt.Sprintf("LinearRegression(features=%d, outputs=%d, l2=%g)", nf, k, lr.L2)
}

func (lr *LinearRegression) ensureState() {
	if lr.State == nil {
		lr.State = model.NewStateManager()
	}
}

func checkXY(op string, X, Y mat.Matrix) (int, int, int, error) {
	r, c := X.Dims()
	ry, k := Y.Dims()
	if r == 0 || c == 0 || k == 0 {
		return 0, 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return 0, 0, 0, errors.NewDimensionError(op, r, ry, 0)
	}
	return r, c, k, nil
}

// rowSlice は X の行 [start, end) を返す。*mat.Dense の場合はコピーしない
func rowSlice(X mat.Matrix, start, end, cols int) mat.Matrix {
	if d, ok := X.(*mat.Dense); ok {
		return d.Slice(start, end, 0, cols)
	}
	out := mat.NewDense(end-start, cols, nil)
	for i := start; i < end; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i-start, j, X.At(i, j))
		}
	}
	return out
}

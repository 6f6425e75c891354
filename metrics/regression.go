// Package metrics は回帰の評価指標を提供する。
// 行列版は複数の出力列をまとめて評価し、全要素の平均を返す。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seqgrid/pkg/errors"
)

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVec("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVec("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVec("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = yTrue.AtVec(i)
	}
	yMean := stat.Mean(values, nil)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		v := values[i]
		tss += (v - yMean) * (v - yMean)
		d := v - yPred.AtVec(i)
		rss += d * d
	}

	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

func checkVec(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSEMatrix は行列の全要素についての平均二乗誤差を計算する
// 複数の出力列（ターゲット列 × 出力ステップ）を持つ予測をまとめて評価する。
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	diff, err := residuals("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// RMSEMatrix はMSEMatrixの平方根を返す
func RMSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSEMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAEMatrix は行列の全要素についての平均絶対誤差を計算する
func MAEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	diff, err := residuals("MAEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, 1) / float64(len(diff)), nil
}

// R2Matrix は列ごとの決定係数の平均を返す
// 分散が0の列は平均から除外する。全ての列の分散が0の場合はエラー。
func R2Matrix(yTrue, yPred mat.Matrix) (float64, error) {
	if _, err := residuals("R2Matrix", yTrue, yPred); err != nil {
		return 0, err
	}
	r, c := yTrue.Dims()

	var sum float64
	used := 0
	for j := 0; j < c; j++ {
		t := mat.NewVecDense(r, mat.Col(nil, j, yTrue))
		p := mat.NewVecDense(r, mat.Col(nil, j, yPred))
		score, err := R2Score(t, p)
		if err != nil {
			continue
		}
		sum += score
		used++
	}
	if used == 0 {
		return 0, errors.Newf("R2Matrix: no column of yTrue has variance")
	}
	return sum / float64(used), nil
}

// residuals は yTrue - yPred を行優先で返す
func residuals(op string, yTrue, yPred mat.Matrix) ([]float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return nil, errors.NewDimensionError(op, cTrue, cPred, 1)
	}

	diff := make([]float64, 0, rTrue*cTrue)
	for i := 0; i < rTrue; i++ {
		for j := 0; j < cTrue; j++ {
			diff = append(diff, yTrue.At(i, j)-yPred.At(i, j))
		}
	}
	if err := errors.CheckNumericalStability(op, diff, 0); err != nil {
		return nil, err
	}
	return diff, nil
}

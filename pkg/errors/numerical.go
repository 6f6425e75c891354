package errors

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// エラーに保持する不安定値の上限
const maxReportedValues = 10

func unstable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// CheckNumericalStability はvaluesにNaNまたはInfが含まれる場合に
// NumericalInstabilityError を返す。
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	var bad []float64
	for _, v := range values {
		if unstable(v) {
			bad = append(bad, v)
			if len(bad) == maxReportedValues {
				break
			}
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return NewNumericalInstabilityError(operation, bad, iteration)
}

// CheckMatrix は行列の全要素を検査する。
// 最初に不安定値が見つかった行の番号を Iteration として報告する。
func CheckMatrix(operation string, m mat.Matrix) error {
	r, c := m.Dims()
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		if err := CheckNumericalStability(operation, row, i); err != nil {
			return err
		}
	}
	return nil
}

// ClipGradient はL2ノルムがmaxNormを超える勾配をその場で縮小し、
// 縮小前のノルムを返す。maxNormが0以下の場合は何もしない。
func ClipGradient(gradient []float64, maxNorm float64) float64 {
	norm := floats.Norm(gradient, 2)
	if maxNorm > 0 && norm > maxNorm {
		floats.Scale(maxNorm/norm, gradient)
	}
	return norm
}

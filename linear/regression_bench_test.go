package linear

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// createBenchmarkData は outputs 列の目的変数を持つデータを生成する
// 出力 o の真の重みは (j+1)*0.5*(o+1)、切片は o+1
func createBenchmarkData(rows, cols, outputs int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2.0-1.0)
		}
	}

	Y := mat.NewDense(rows, outputs, nil)
	for i := 0; i < rows; i++ {
		for o := 0; o < outputs; o++ {
			sum := float64(o + 1)
			for j := 0; j < cols; j++ {
				sum += X.At(i, j) * float64(j+1) * 0.5 * float64(o+1)
			}
			sum += (rng.Float64() - 0.5) * 0.1
			Y.Set(i, o, sum)
		}
	}

	return X, Y
}

var benchSizes = []struct {
	name string
	rows int
	cols int
}{
	{"Small_100x10", 100, 10},
	{"Small_900x10", 900, 10}, // 並列処理の閾値未満
	{"Medium_2000x10", 2000, 10},
	{"Large_10000x20", 10000, 20},
	{"XLarge_50000x50", 50000, 50},
}

func BenchmarkLinearRegressionFit(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(size.name, func(b *testing.B) {
			X, Y := createBenchmarkData(size.rows, size.cols, 3)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, Y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLinearRegressionPartialFit(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(size.name, func(b *testing.B) {
			X, Y := createBenchmarkData(size.rows, size.cols, 3)
			lr := NewLinearRegression(WithLearningRate(1e-3))

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := lr.PartialFit(X, Y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLinearRegressionPredict(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(size.name, func(b *testing.B) {
			X, Y := createBenchmarkData(size.rows, size.cols, 3)
			lr := NewLinearRegression()
			if err := lr.Fit(X, Y); err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := lr.Predict(X); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

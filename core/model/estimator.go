// Package model はモデルの共通インターフェースと、学習状態・保存の仕組みを提供する。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, Y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は予測の決定係数 R² を返す
	Score(X, Y mat.Matrix) (float64, error)
}

// IncrementalLearner はミニバッチで逐次学習できるモデルのインターフェース
type IncrementalLearner interface {
	// PartialFit はミニバッチで1ステップ学習し、更新前の損失を返す
	PartialFit(X, Y mat.Matrix) (float64, error)
}

// Persistable はファイルに保存できるモデルのインターフェース
type Persistable interface {
	Save(path string) error
	Load(path string) error
}

// Regressor は回帰モデルのインターフェース
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// OnlineRegressor は逐次学習できる回帰モデルのインターフェース
type OnlineRegressor interface {
	Regressor
	IncrementalLearner
	Persistable

	// ParamCount は学習可能なパラメータ数を返す
	ParamCount() int
}

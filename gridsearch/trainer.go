package gridsearch

import (
	"context"

	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/results"
)

// Artifact は学習済みの成果物（モデル）
type Artifact interface {
	// Save は成果物をファイルに保存する
	Save(path string) error
}

// ParamCounter は学習可能なパラメータ数を報告する成果物
type ParamCounter interface {
	ParamCount() int
}

// Trainer は1つの (dataset, setting) で1回の学習を行う外部の学習処理
// エラーまたはpanicは再試行可能な失敗として扱われる。
// ctx は試行の間のキャンセルに使われ、Train自体にタイムアウトは設けない。
type Trainer interface {
	Train(ctx context.Context, dataset string, setting param.Setting) (results.History, Artifact, error)
}

// TrainerFunc は関数をTrainerとして使うためのアダプタ
type TrainerFunc func(ctx context.Context, dataset string, setting param.Setting) (results.History, Artifact, error)

// Train は f(ctx, dataset, setting) を呼ぶ
func (f TrainerFunc) Train(ctx context.Context, dataset string, setting param.Setting) (results.History, Artifact, error) {
	return f(ctx, dataset, setting)
}

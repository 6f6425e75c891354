// Package forecast は gridsearch から呼び出せる学習器を提供する。
//
// LinearTrainer はSettingからDatasetを構築し、flat_regression形式のバッチで
// 複数出力の線形回帰をミニバッチ勾配降下で学習する。エポックごとの
// 訓練損失 (loss) と検証損失 (val_loss) を履歴として返す。
package forecast

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/dataset"
	"github.com/YuminosukeSato/seqgrid/gridsearch"
	"github.com/YuminosukeSato/seqgrid/ioformat"
	"github.com/YuminosukeSato/seqgrid/linear"
	"github.com/YuminosukeSato/seqgrid/metrics"
	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
	"github.com/YuminosukeSato/seqgrid/results"
	"github.com/YuminosukeSato/seqgrid/tensor"
)

// 履歴のメトリクス名
const (
	LossMetric    = "loss"
	ValLossMetric = "val_loss"
)

// Settingから読むキー
const (
	KeyTrainShare   = "train_share"
	KeyInputLength  = "input_length"
	KeyOutputLength = "output_length"
	KeyBatchSize    = "batch_size"
	KeyEpochs       = "epochs"
	KeyLearningRate = "learning_rate"
	KeyDiffs        = "diffs"
	KeyTargetCols   = "target_cols"
	KeyExcluded     = "excluded"
	KeyL2           = "l2"
	KeySeed         = "seed"
	KeyLimit        = "limit"
)

var _ gridsearch.Trainer = (*LinearTrainer)(nil)

// LinearTrainer は linear.LinearRegression を学習する gridsearch.Trainer
// seed がSettingにない場合は Train ごとに新しいシードを引き、
// 使ったシードを "Training started" のログに残す。
type LinearTrainer struct {
	loader dataset.Loader
	logger log.Logger
	seeds  func() uint64
}

// NewLinearTrainer は新しいLinearTrainerを作成する
//
// パラメータ:
//   - loader: データセット識別子からTableを解決するLoader
//
// 使用例:
//
//	trainer := forecast.NewLinearTrainer(dataset.NewCSVLoader("data"))
//	runner, err := gridsearch.New(grid, []string{"a.csv"}, trainer, store)
func NewLinearTrainer(loader dataset.Loader) *LinearTrainer {
	return &LinearTrainer{
		loader: loader,
		logger: log.GetLoggerWithName("forecast.linear"),
		seeds:  rand.Uint64,
	}
}

// SetLogger はロガーを差し替える
func (t *LinearTrainer) SetLogger(logger log.Logger) {
	t.logger = logger
}

// seed はSettingのシードを返す。ない場合は新しいシードを引く
func (t *LinearTrainer) seed(setting param.Setting) (uint64, error) {
	if !setting.Has(KeySeed) {
		return t.seeds(), nil
	}
	seed, err := setting.Int(KeySeed)
	if err != nil {
		return 0, err
	}
	if seed < 0 {
		return 0, errors.NewValidationError(KeySeed, "must not be negative", seed)
	}
	return uint64(seed), nil
}

// DatasetConfig はSettingからDatasetの構築パラメータを読み取る
// train_share, input_length, output_length, batch_size は必須。
func DatasetConfig(setting param.Setting) (dataset.Config, error) {
	cfg := dataset.DefaultConfig()

	share, err := setting.Floats(KeyTrainShare)
	if err != nil {
		return cfg, err
	}
	if len(share) != 2 {
		return cfg, errors.NewValidationError(KeyTrainShare, "must hold exactly two fractions", share)
	}
	cfg.TrainShare = [2]float64{share[0], share[1]}

	if cfg.InputLength, err = setting.Int(KeyInputLength); err != nil {
		return cfg, err
	}
	if cfg.OutputLength, err = setting.Int(KeyOutputLength); err != nil {
		return cfg, err
	}
	if cfg.BatchSize, err = setting.Int(KeyBatchSize); err != nil {
		return cfg, err
	}
	if cfg.Diffs, err = setting.BoolOr(KeyDiffs, false); err != nil {
		return cfg, err
	}
	if cfg.Limit, err = setting.IntOr(KeyLimit, 0); err != nil {
		return cfg, err
	}
	if setting.Has(KeyExcluded) {
		if cfg.Excluded, err = setting.Strings(KeyExcluded); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// Train はデータセットを読み込んでモデルを学習する
// ctxはステップごとに確認し、キャンセルされた場合はctx.Err()を返す。
func (t *LinearTrainer) Train(ctx context.Context, id string, setting param.Setting) (results.History, gridsearch.Artifact, error) {
	cfg, err := DatasetConfig(setting)
	if err != nil {
		return nil, nil, err
	}
	epochs, err := setting.IntOr(KeyEpochs, 1)
	if err != nil {
		return nil, nil, err
	}
	if epochs < 1 {
		return nil, nil, errors.NewValidationError(KeyEpochs, "must be positive", epochs)
	}
	rate, err := setting.FloatOr(KeyLearningRate, 0.01)
	if err != nil {
		return nil, nil, err
	}
	l2, err := setting.FloatOr(KeyL2, 0)
	if err != nil {
		return nil, nil, err
	}
	seed, err := t.seed(setting)
	if err != nil {
		return nil, nil, err
	}
	targets, _ := setting.Get(KeyTargetCols)

	table, err := t.loader.Load(id)
	if err != nil {
		return nil, nil, err
	}
	ds, err := dataset.New(table, cfg)
	if err != nil {
		return nil, nil, err
	}
	format, err := ioformat.New(ioformat.FlatRegression, ds, ioformat.Options{Targets: targets})
	if err != nil {
		return nil, nil, err
	}

	train, err := ds.Gen(dataset.GenOptions{
		Mode:    dataset.ModeTrain,
		Format:  format,
		Shuffle: true,
		Seed:    seed,
	})
	if err != nil {
		return nil, nil, err
	}
	valid, err := ds.Gen(dataset.GenOptions{Mode: dataset.ModeValid, Format: format})
	if err != nil {
		var rangeErr *errors.RangeError
		if !errors.As(err, &rangeErr) {
			return nil, nil, err
		}
		// 検証区間にウィンドウがない場合は val_loss を記録しない
		valid = nil
	}

	logger := t.logger.With(log.DatasetKey, id, log.SettingKey, setting.String())
	logger.Info("Training started",
		log.NTrainKey, ds.NTrain(),
		log.NAllKey, ds.NAll(),
		log.StepsPerEpochKey, train.StepsPerEpoch(),
		log.EpochKey, epochs,
		log.RandomSeedKey, seed,
	)

	reg := linear.NewLinearRegression(linear.WithLearningRate(rate), linear.WithL2(l2))
	history := results.History{}
	for epoch := 0; epoch < epochs; epoch++ {
		loss, err := trainEpoch(ctx, reg, train)
		if err != nil {
			return nil, nil, err
		}
		history[LossMetric] = append(history[LossMetric], loss)

		fields := []any{log.EpochKey, epoch + 1, log.LossKey, loss}
		if valid != nil {
			valLoss, err := evaluate(ctx, reg, valid)
			if err != nil {
				return nil, nil, err
			}
			history[ValLossMetric] = append(history[ValLossMetric], valLoss)
			fields = append(fields, log.ValLossKey, valLoss)
		}
		logger.Debug("Epoch finished", fields...)
	}
	return history, reg, nil
}

// trainEpoch は1エポック分のステップを実行し、ステップ損失の平均を返す
func trainEpoch(ctx context.Context, reg *linear.LinearRegression, gen *dataset.Generator) (float64, error) {
	steps := gen.StepsPerEpoch()
	var total float64
	for s := 0; s < steps; s++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		X, Y, err := nextXY(gen)
		if err != nil {
			return 0, err
		}
		loss, err := reg.PartialFit(X, Y)
		if err != nil {
			return 0, err
		}
		total += loss
	}
	return total / float64(steps), nil
}

// evaluate は検証区間を1周してバッチごとのMSEの平均を返す
func evaluate(ctx context.Context, reg *linear.LinearRegression, gen *dataset.Generator) (float64, error) {
	steps := gen.StepsPerEpoch()
	var total float64
	for s := 0; s < steps; s++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		X, Y, err := nextXY(gen)
		if err != nil {
			return 0, err
		}
		pred, err := reg.Predict(X)
		if err != nil {
			return 0, err
		}
		mse, err := metrics.MSEMatrix(Y, pred)
		if err != nil {
			return 0, err
		}
		total += mse
	}
	return total / float64(steps), nil
}

func nextXY(gen *dataset.Generator) (*mat.Dense, *mat.Dense, error) {
	pair, err := gen.Next()
	if err != nil {
		return nil, nil, err
	}
	X, err := asMatrix(pair.Input[dataset.InputKey])
	if err != nil {
		return nil, nil, err
	}
	Y, err := asMatrix(pair.Output[dataset.OutputKey])
	if err != nil {
		return nil, nil, err
	}
	return X, Y, nil
}

// asMatrix は2次元のテンソルをコピーせずに行列として扱う
func asMatrix(t *tensor.Dense) (*mat.Dense, error) {
	if t == nil {
		return nil, errors.NewValueError("forecast.asMatrix", "missing batch part")
	}
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, errors.NewValueError("forecast.asMatrix", "flat batches must be two-dimensional")
	}
	return mat.NewDense(shape[0], shape[1], t.Data()), nil
}

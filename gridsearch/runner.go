// Package gridsearch はパラメータグリッドとデータセットの全ての組について、
// 外部の学習処理を必要な成功数に達するまで逐次実行する。
//
// 各組の状態は RunOutcome で管理され、学習の失敗は試行予算の範囲で再試行される。
// 1つの組の失敗がグリッド全体を中断することはなく、予算を使い切った組は
// 未解決リスト（Runner.Unresolved）に記録される。成功した結果は学習の直後に
// results.Store へ同期的に追記される。
package gridsearch

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
	"github.com/YuminosukeSato/seqgrid/results"
)

// Options はRunの制御パラメータ
type Options struct {
	// Trials は1つの組で許される失敗の回数
	Trials int

	// RequiredSuccesses は1つの組に必要な成功レコード数
	RequiredSuccesses int

	// IgnoredParams は既存レコードとの照合で無視するパラメータ名
	IgnoredParams []string

	// ResumeFrom が指定された場合、既存の成功数をこのストアから数える
	ResumeFrom results.Store
}

// DefaultOptions は既定のOptionsを返す
func DefaultOptions() Options {
	return Options{Trials: 3, RequiredSuccesses: 1}
}

// Validate はOptionsを検証する
func (o Options) Validate() error {
	if o.Trials < 1 {
		return errors.NewValidationError("trials", "must be positive", o.Trials)
	}
	if o.RequiredSuccesses < 1 {
		return errors.NewValidationError("required_successes", "must be positive", o.RequiredSuccesses)
	}
	return nil
}

// Runner はグリッドサーチを実行する
type Runner struct {
	grid     *param.Grid
	datasets []string
	trainer  Trainer
	store    results.Store

	artifactsDir string
	now          func() time.Time
	logger       log.Logger

	outcomes   []*RunOutcome
	unresolved []results.Unresolved
}

// RunnerOption はRunnerの任意設定
type RunnerOption func(*Runner)

// WithArtifactsDir は成果物の保存先ディレクトリを設定する
// 設定しない場合、成果物は保存されない。
func WithArtifactsDir(dir string) RunnerOption {
	return func(r *Runner) { r.artifactsDir = dir }
}

// WithClock はタイムスタンプに使う時計を差し替える
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithLogger はロガーを差し替える
func WithLogger(logger log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// New はRunnerを作成する
//
// パラメータ:
//   - grid: パラメータグリッド
//   - datasets: データセットの識別子（Trainerに渡される）
//   - trainer: 学習処理
//   - store: 成功した結果の追記先
//
// 使用例:
//
//	runner, err := gridsearch.New(grid, []string{"data/a.csv"}, trainer, store,
//	    gridsearch.WithArtifactsDir("artifacts"))
//	records, err := runner.Run(ctx, gridsearch.Options{Trials: 3, RequiredSuccesses: 1})
//	for _, u := range runner.Unresolved() {
//	    fmt.Println(u.Dataset, u.Setting)
//	}
func New(grid *param.Grid, datasets []string, trainer Trainer, store results.Store, opts ...RunnerOption) (*Runner, error) {
	if grid == nil {
		return nil, errors.NewValidationError("grid", "must not be nil", nil)
	}
	if len(datasets) == 0 {
		return nil, errors.NewValidationError("datasets", "at least one dataset is required", datasets)
	}
	if trainer == nil {
		return nil, errors.NewValidationError("trainer", "must not be nil", nil)
	}
	if store == nil {
		return nil, errors.NewValidationError("store", "must not be nil", nil)
	}
	r := &Runner{
		grid:     grid,
		datasets: append([]string(nil), datasets...),
		trainer:  trainer,
		store:    store,
		now:      time.Now,
		logger:   log.GetLoggerWithName("gridsearch.runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Pairs は実行順の (setting, dataset) の組の数を返す
func (r *Runner) Pairs() int {
	return r.grid.Size() * len(r.datasets)
}

// Run はグリッドの全ての組を順に実行し、ストアの全レコードを返す
//
// 組は Expand(grid) の順に、各Settingの中でデータセットの順に処理される。
// 学習の失敗とpanicは組ごとに回復されて再試行に回される。ストアへの追記の失敗、
// ストアの照合の失敗、ctxのキャンセルは実行を中断してエラーを返す。
// 中断した場合も、それまでに追記されたレコードはストアに残る。
func (r *Runner) Run(ctx context.Context, opts Options) ([]results.Record, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	lookup := r.store
	if opts.ResumeFrom != nil {
		lookup = opts.ResumeFrom
	}

	var namer *artifactNamer
	if r.artifactsDir != "" {
		var err error
		if namer, err = newArtifactNamer(r.artifactsDir); err != nil {
			return nil, err
		}
	}

	r.outcomes = r.outcomes[:0]
	r.unresolved = nil

	settings := param.Expand(r.grid)
	r.logger.Info("Grid search started",
		"settings", len(settings),
		"datasets", len(r.datasets),
		"trials", opts.Trials,
		log.RequiredKey, opts.RequiredSuccesses,
	)
	start := r.now()

	for _, setting := range settings {
		for _, dataset := range r.datasets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			found, err := lookup.Lookup(setting, dataset, opts.IgnoredParams)
			if err != nil {
				return nil, errors.Wrapf(err, "gridsearch: lookup %s", dataset)
			}

			o := NewRunOutcome(dataset, setting, found, opts.RequiredSuccesses, opts.Trials)
			r.outcomes = append(r.outcomes, o)
			if err := r.runPair(ctx, o, namer); err != nil {
				return nil, err
			}
		}
	}

	all, err := r.store.LoadAll()
	if err != nil {
		return nil, err
	}
	r.logger.Info("Grid search finished",
		"records", len(all),
		"unresolved", len(r.unresolved),
		log.DurationSecondsKey, r.now().Sub(start).Seconds(),
	)
	return all, nil
}

func (r *Runner) runPair(ctx context.Context, o *RunOutcome, namer *artifactNamer) error {
	logger := r.logger.With(log.DatasetKey, o.Dataset, log.SettingKey, o.Setting.String())

	if o.Skipped() {
		logger.Debug("Pair already satisfied", log.FoundKey, o.Found, log.RequiredKey, o.Required)
		return nil
	}

	for o.NeedsAttempt() {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.Begin()
		attempt := o.Attempts() + 1

		rec, err := r.attempt(ctx, o, attempt, namer)
		if err != nil {
			o.Fail(err)
			logger.Warn("Attempt failed",
				log.AttemptKey, attempt,
				log.ErrorsKey, o.Errors,
				"error", err.Error(),
			)
			continue
		}

		if err := r.store.Append(rec); err != nil {
			err = errors.Wrapf(err, "gridsearch: append result for %s", o.Dataset)
			if rec.Artifact != "" {
				// 参照するレコードのない成果物は残さない
				if rmErr := os.Remove(rec.Artifact); rmErr != nil && !os.IsNotExist(rmErr) {
					err = errors.CombineErrors(err, rmErr)
				}
			}
			return err
		}
		o.Succeed()
		logger.Info("Attempt succeeded",
			log.AttemptKey, attempt,
			log.SuccessesKey, o.Found+o.Successes,
			log.RequiredKey, o.Required,
			log.ArtifactKey, rec.Artifact,
			log.DurationSecondsKey, rec.TrainingTime.Seconds(),
		)
	}

	if o.State() == StateExhausted {
		r.unresolved = append(r.unresolved, o.Unresolved())
		logger.Warn("Pair unresolved",
			log.StateKey, o.State().String(),
			log.SuccessesKey, o.Found+o.Successes,
			log.ErrorsKey, o.Errors,
			log.RequiredKey, o.Required,
		)
	}
	return nil
}

// attempt は1回の学習と成果物の保存を行う
// 戻り値のエラーは全て再試行可能な TrainingError。
func (r *Runner) attempt(ctx context.Context, o *RunOutcome, attempt int, namer *artifactNamer) (results.Record, error) {
	var (
		history  results.History
		artifact Artifact
	)
	started := r.now()
	err := errors.SafeExecute("gridsearch.Train", func() error {
		var err error
		history, artifact, err = r.trainer.Train(ctx, o.Dataset, o.Setting)
		return err
	})
	finished := r.now()
	if err != nil {
		return results.Record{}, errors.NewTrainingError(o.Dataset, attempt, err)
	}

	rec := results.Record{
		ID:           uuid.NewString(),
		Dataset:      o.Dataset,
		Setting:      o.Setting,
		History:      history.Clone(),
		TrainingTime: finished.Sub(started),
		StartedAt:    started,
		FinishedAt:   finished,
	}
	if artifact == nil {
		return rec, nil
	}
	if pc, ok := artifact.(ParamCounter); ok {
		rec.ParamCount = pc.ParamCount()
	}
	if namer != nil {
		path := namer.Next(finished)
		if err := artifact.Save(path); err != nil {
			return results.Record{}, errors.NewTrainingError(o.Dataset, attempt, errors.Wrapf(err, "save artifact %s", path))
		}
		rec.Artifact = path
	}
	return rec, nil
}

// Unresolved は直前のRunで試行予算を使い切った組を実行順に返す
func (r *Runner) Unresolved() []results.Unresolved {
	return append([]results.Unresolved(nil), r.unresolved...)
}

// Outcomes は直前のRunで処理した全ての組の状態を実行順に返す
func (r *Runner) Outcomes() []*RunOutcome {
	return append([]*RunOutcome(nil), r.outcomes...)
}

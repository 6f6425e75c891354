package forecast

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seqgrid/dataset"
	"github.com/YuminosukeSato/seqgrid/gridsearch"
	"github.com/YuminosukeSato/seqgrid/linear"
	"github.com/YuminosukeSato/seqgrid/param"
	"github.com/YuminosukeSato/seqgrid/pkg/errors"
	"github.com/YuminosukeSato/seqgrid/pkg/log"
	"github.com/YuminosukeSato/seqgrid/results"
)

type memLoader map[string]*dataset.Table

func (m memLoader) Load(id string) (*dataset.Table, error) {
	t, ok := m[id]
	if !ok {
		return nil, errors.Newf("unknown dataset %q", id)
	}
	return t, nil
}

func waveTable(t *testing.T, rows int) *dataset.Table {
	t.Helper()
	data := mat.NewDense(rows, 3, nil)
	for i := 0; i < rows; i++ {
		a := math.Sin(float64(i) / 5)
		b := math.Cos(float64(i) / 7)
		data.Set(i, 0, a)
		data.Set(i, 1, b)
		data.Set(i, 2, 0.5*a-0.25*b)
	}
	table, err := dataset.NewTable([]string{"a", "b", "c"}, data)
	require.NoError(t, err)
	return table
}

func baseSetting() param.Setting {
	return param.FromMap(map[string]interface{}{
		KeyTrainShare:   []float64{0.6, 1.0},
		KeyInputLength:  4,
		KeyOutputLength: 1,
		KeyBatchSize:    4,
		KeyEpochs:       3,
		KeyLearningRate: 0.05,
		KeySeed:         1,
	})
}

func newTrainer(t *testing.T) *LinearTrainer {
	return NewLinearTrainer(memLoader{"waves": waveTable(t, 120)})
}

func TestDatasetConfig(t *testing.T) {
	cfg, err := DatasetConfig(baseSetting().With(KeyExcluded, []string{"c"}).With(KeyDiffs, true))
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.6, 1.0}, cfg.TrainShare)
	assert.Equal(t, 4, cfg.InputLength)
	assert.Equal(t, 1, cfg.OutputLength)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, []string{"c"}, cfg.Excluded)
	assert.True(t, cfg.Diffs)

	tests := []struct {
		name    string
		setting param.Setting
		param   string
	}{
		{"missing input length", baseSetting().Without(KeyInputLength), KeyInputLength},
		{"one share", baseSetting().With(KeyTrainShare, []float64{0.6}), KeyTrainShare},
		{"float batch size", baseSetting().With(KeyBatchSize, 4.0), KeyBatchSize},
		{"zero output length", baseSetting().With(KeyOutputLength, 0), "output_length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DatasetConfig(tt.setting)
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.param, vErr.ParamName)
		})
	}
}

func TestTrainRecordsLossAndValLoss(t *testing.T) {
	history, artifact, err := newTrainer(t).Train(context.Background(), "waves", baseSetting())
	require.NoError(t, err)

	assert.Equal(t, []string{LossMetric, ValLossMetric}, history.Metrics())
	assert.Equal(t, 3, history.Epochs())
	assert.Less(t, history[LossMetric][2], history[LossMetric][0])
	for _, v := range history[ValLossMetric] {
		assert.False(t, math.IsNaN(v))
	}

	reg, ok := artifact.(*linear.LinearRegression)
	require.True(t, ok)
	// (input_length*dim + 1) * output_length*targets
	assert.Equal(t, (4*3+1)*3, reg.ParamCount())
}

func TestTrainTargetColumns(t *testing.T) {
	setting := baseSetting().With(KeyTargetCols, []string{"c"}).With(KeyOutputLength, 2)
	_, artifact, err := newTrainer(t).Train(context.Background(), "waves", setting)
	require.NoError(t, err)
	assert.Equal(t, (4*3+1)*2, artifact.(gridsearch.ParamCounter).ParamCount())

	_, _, err = newTrainer(t).Train(context.Background(), "waves", baseSetting().With(KeyTargetCols, []string{"missing"}))
	var selErr *errors.InvalidSelectorError
	assert.True(t, errors.As(err, &selErr))
}

func TestTrainIsReproducible(t *testing.T) {
	first, _, err := newTrainer(t).Train(context.Background(), "waves", baseSetting())
	require.NoError(t, err)
	second, _, err := newTrainer(t).Train(context.Background(), "waves", baseSetting())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, _, err := newTrainer(t).Train(context.Background(), "waves", baseSetting().With(KeySeed, 2))
	require.NoError(t, err)
	assert.NotEqual(t, first[LossMetric], other[LossMetric])
}

func TestTrainWithoutSeedDrawsFreshSeeds(t *testing.T) {
	unseeded := baseSetting().Without(KeySeed)
	tr := newTrainer(t)

	first, _, err := tr.Train(context.Background(), "waves", unseeded)
	require.NoError(t, err)
	second, _, err := tr.Train(context.Background(), "waves", unseeded)
	require.NoError(t, err)
	assert.NotEqual(t, first[LossMetric], second[LossMetric])
}

func TestTrainLogsSeedUsed(t *testing.T) {
	tr := newTrainer(t)
	tr.seeds = func() uint64 { return 1 }
	logger, _ := log.NewTestLogger(log.LevelInfo)
	tr.SetLogger(logger)

	drawn, _, err := tr.Train(context.Background(), "waves", baseSetting().Without(KeySeed))
	require.NoError(t, err)
	assert.True(t, logger.ContainsField(log.RandomSeedKey, 1.0))

	// ログに残したシードを指定すれば同じ学習を再現できる
	replay, _, err := newTrainer(t).Train(context.Background(), "waves", baseSetting())
	require.NoError(t, err)
	assert.Equal(t, replay, drawn)

	_, _, err = newTrainer(t).Train(context.Background(), "waves", baseSetting().With(KeySeed, -1))
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestTrainWithoutValidationPartition(t *testing.T) {
	setting := baseSetting().With(KeyTrainShare, []float64{1.0, 1.0})
	history, _, err := newTrainer(t).Train(context.Background(), "waves", setting)
	require.NoError(t, err)
	assert.Equal(t, []string{LossMetric}, history.Metrics())
}

func TestTrainErrors(t *testing.T) {
	trainer := newTrainer(t)

	_, _, err := trainer.Train(context.Background(), "unknown", baseSetting())
	assert.Error(t, err)

	_, _, err = trainer.Train(context.Background(), "waves", baseSetting().With(KeyEpochs, 0))
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = trainer.Train(ctx, "waves", baseSetting())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainerInGridSearch(t *testing.T) {
	grid := param.MustGrid(
		param.Axis{Name: KeyTrainShare, Values: []interface{}{[]float64{0.6, 1.0}}},
		param.Axis{Name: KeyInputLength, Values: []interface{}{2, 4}},
		param.Axis{Name: KeyOutputLength, Values: []interface{}{1}},
		param.Axis{Name: KeyBatchSize, Values: []interface{}{4}},
		param.Axis{Name: KeyEpochs, Values: []interface{}{2}},
	)
	dir := t.TempDir()
	store, err := results.OpenFileStore(filepath.Join(dir, "results.gob"))
	require.NoError(t, err)

	runner, err := gridsearch.New(grid, []string{"waves"}, newTrainer(t), store,
		gridsearch.WithArtifactsDir(filepath.Join(dir, "artifacts")))
	require.NoError(t, err)

	records, err := runner.Run(context.Background(), gridsearch.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, runner.Unresolved())

	for _, rec := range records {
		assert.Equal(t, 2, rec.History.Epochs())
		_, err := os.Stat(rec.Artifact)
		require.NoError(t, err)

		loaded := linear.NewLinearRegression()
		require.NoError(t, loaded.Load(rec.Artifact))
		assert.Equal(t, rec.ParamCount, loaded.ParamCount())
	}
}

// Package log defines standard attribute keys for seqgrid operations.
//
// Using these keys keeps dataset, generator and grid-search logs filterable
// with the same field names. Keys follow a hierarchical naming convention
// (e.g. "data.n_train", "grid.dataset").

package log

// Operation Context
const (
	// ComponentKey identifies which component or package is performing the operation.
	// Examples: "dataset", "gridsearch.runner", "forecast.linear"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	// Standard values: "scale", "generate", "train", "persist"
	OperationKey = "ml.operation"

	// PhaseKey indicates the data phase: "train", "valid" or "manual".
	PhaseKey = "ml.phase"

	// ModelNameKey identifies the model family trained for a setting.
	ModelNameKey = "model.name"
)

// Data Shape and Windows
const (
	// SamplesKey indicates the number of rows in the table.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of non-excluded columns.
	FeaturesKey = "data.features"

	// TargetsKey indicates the number of target columns.
	TargetsKey = "data.targets"

	// BatchSizeKey indicates the number of windows per batch.
	BatchSizeKey = "data.batch_size"

	// WindowLengthKey is input_length + output_length.
	WindowLengthKey = "data.window_length"

	// NTrainKey is the exclusive end row of the training partition.
	NTrainKey = "data.n_train"

	// NAllKey is the exclusive end row of the validation partition.
	NAllKey = "data.n_all"

	// StepsPerEpochKey is the number of batches in one pass over the anchor range.
	StepsPerEpochKey = "data.steps_per_epoch"
)

// Grid Search
const (
	// DatasetKey identifies the dataset of a (setting, dataset) pair.
	DatasetKey = "grid.dataset"

	// SettingKey carries the parameter setting of a pair.
	SettingKey = "grid.setting"

	// AttemptKey is the 1-based attempt number for a pair.
	AttemptKey = "grid.attempt"

	// SuccessesKey counts successful attempts for a pair in the current run.
	SuccessesKey = "grid.successes"

	// ErrorsKey counts failed attempts for a pair in the current run.
	ErrorsKey = "grid.errors"

	// FoundKey counts matching records found before the pair started.
	FoundKey = "grid.found"

	// RequiredKey is the number of successes a pair needs.
	RequiredKey = "grid.required"

	// StateKey is the terminal RunOutcome state of a pair.
	StateKey = "grid.state"

	// ArtifactKey is the path of a saved model artifact.
	ArtifactKey = "grid.artifact"
)

// Performance Metrics
const (
	// DurationSecondsKey records the execution time in seconds.
	DurationSecondsKey = "perf.duration_seconds"

	// LossKey records training loss.
	LossKey = "metrics.loss"

	// ValLossKey records validation loss.
	ValLossKey = "metrics.val_loss"

	// EpochKey records the current epoch number during training.
	EpochKey = "training.epoch"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Populated automatically by the zerolog provider.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationScale    = "scale"
	OperationGenerate = "generate"
	OperationTrain    = "train"
	OperationPersist  = "persist"

	PhaseTrain  = "train"
	PhaseValid  = "valid"
	PhaseManual = "manual"
)

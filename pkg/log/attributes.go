// Standard attribute keys for pipeline logging.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so records from the loader, the preprocessor, and the estimators can be
// filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model or transformer.
	// Examples: "RandomForestRegressor", "ColumnTransformer", "Pipeline"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific fitted instance (a UUID).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "load", "split"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns (or encoded width).
	FeaturesKey = "data.features"

	// ColumnsKey lists column names.
	ColumnsKey = "data.columns"

	// RowsDroppedKey is the number of rows removed by a filter.
	RowsDroppedKey = "data.rows_dropped"

	// SourceKey is the path or name of the input table.
	SourceKey = "data.source"

	// TrainSamplesKey and TestSamplesKey are the partition sizes after a split.
	TrainSamplesKey = "split.train_samples"
	TestSamplesKey  = "split.test_samples"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	MAEKey     = "metrics.mae"
	RMSEKey    = "metrics.rmse"
	R2ScoreKey = "metrics.r2_score"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	TestSizeKey    = "config.test_size"
	NEstimatorsKey = "hyperparams.n_estimators"
	MaxFeaturesKey = "hyperparams.max_features"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationLoad      = "load"
	OperationSplit     = "split"
	OperationScore     = "score"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted      = "NOT_FITTED"
	ErrorSchemaMismatch = "SCHEMA_MISMATCH"
	ErrorDataLoad       = "DATA_LOAD"
	ErrorSchema         = "SCHEMA"
)

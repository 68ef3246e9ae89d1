// Package pricing is the car price workflow: load a table, build the
// preprocessing plan, train and evaluate a random forest pipeline, and
// predict prices for new rows.
package pricing

import (
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/dataset"
	"github.com/YuminosukeSato/carprice/metrics"
	"github.com/YuminosukeSato/carprice/pipeline"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/preprocessing"
	"github.com/YuminosukeSato/carprice/sklearn/ensemble"
	"github.com/YuminosukeSato/carprice/sklearn/model_selection"
)

// DefaultTarget is the column holding the price.
const DefaultTarget = "price"

// LoadData reads the training table at path.
func LoadData(path string, opts ...dataset.LoadOption) (*dataset.Dataset, error) {
	return dataset.Load(path, opts...)
}

// Preprocessed is the output of PreprocessData.
type Preprocessed struct {
	// Plan is the unfitted column-wise transformation.
	Plan *preprocessing.ColumnTransformer
	// X holds the feature columns, Y the target, row-aligned.
	X *dataset.Dataset
	Y []float64
	// Dropped is the number of rows removed for a missing target.
	Dropped int
}

type preprocessConfig struct {
	target  string
	numeric preprocessing.ColumnEncoder
}

// PreprocessOption configures PreprocessData.
type PreprocessOption func(*preprocessConfig)

// WithTarget sets the target column. Default "price".
func WithTarget(name string) PreprocessOption {
	return func(c *preprocessConfig) { c.target = name }
}

// WithNumericEncoder replaces the standardization of numeric columns.
func WithNumericEncoder(enc preprocessing.ColumnEncoder) PreprocessOption {
	return func(c *preprocessConfig) { c.numeric = enc }
}

// PreprocessData drops rows with a missing target, splits features from the
// target and builds the plan: numeric columns are standardized, categorical
// columns are one-hot encoded with unseen categories ignored.
func PreprocessData(ds *dataset.Dataset, opts ...PreprocessOption) (*Preprocessed, error) {
	cfg := &preprocessConfig{target: DefaultTarget, numeric: preprocessing.Standardize{}}
	for _, opt := range opts {
		opt(cfg)
	}

	clean, dropped, err := ds.DropMissing(cfg.target)
	if err != nil {
		return nil, err
	}
	X, y, err := clean.SplitXY(cfg.target)
	if err != nil {
		return nil, err
	}

	plan := preprocessing.ForSchema(X.Schema(), cfg.numeric,
		preprocessing.OneHot{HandleUnknown: preprocessing.HandleUnknownIgnore})

	log.GetLoggerWithName("pricing").Info("data preprocessed",
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, len(y),
		log.RowsDroppedKey, dropped,
		log.ColumnsKey, X.Schema().Names(),
	)
	return &Preprocessed{Plan: plan, X: X, Y: y, Dropped: dropped}, nil
}

// Metrics are the test-partition scores of a trained pipeline.
type Metrics struct {
	MAE  float64
	RMSE float64
	R2   float64
	// MAPE is NaN when every test target is zero.
	MAPE float64

	TrainSamples int
	TestSamples  int
}

// TrainResult is the output of TrainModel.
type TrainResult struct {
	Pipeline *pipeline.Pipeline
	Metrics  Metrics
	// YTest and YPred are the test targets and their predictions.
	YTest []float64
	YPred []float64
}

type trainConfig struct {
	testSize    float64
	randomState int64
	nEstimators int
	maxDepth    int
	maxFeatures int
	nJobs       int
	out         io.Writer
}

// TrainOption configures TrainModel.
type TrainOption func(*trainConfig)

// WithTestSize sets the test fraction. Default 0.2.
func WithTestSize(f float64) TrainOption {
	return func(c *trainConfig) { c.testSize = f }
}

// WithRandomState seeds both the split and the forest. Default 42.
func WithRandomState(seed int64) TrainOption {
	return func(c *trainConfig) { c.randomState = seed }
}

// WithNEstimators sets the number of trees. Default 100.
func WithNEstimators(n int) TrainOption {
	return func(c *trainConfig) { c.nEstimators = n }
}

// WithMaxDepth limits tree depth. Default 0, unlimited.
func WithMaxDepth(d int) TrainOption {
	return func(c *trainConfig) { c.maxDepth = d }
}

// WithMaxFeatures sets the split candidates per node. Default 0, all.
func WithMaxFeatures(n int) TrainOption {
	return func(c *trainConfig) { c.maxFeatures = n }
}

// WithNJobs sets the number of trees fitted concurrently. Default -1, one
// per CPU.
func WithNJobs(n int) TrainOption {
	return func(c *trainConfig) { c.nJobs = n }
}

// WithReport sets where the metric lines are printed. Default os.Stdout.
func WithReport(w io.Writer) TrainOption {
	return func(c *trainConfig) { c.out = w }
}

// TrainModel splits X and y into train and test partitions, fits plan plus a
// random forest on the train partition, scores the test partition and prints
//
//	Mean Absolute Error: <mae>
//	Root Mean Squared Error: <rmse>
//
// with two decimals. plan is left unfitted; the returned pipeline fits its
// own copy, so the same plan can be passed to several calls.
func TrainModel(X *dataset.Dataset, y []float64, plan *preprocessing.ColumnTransformer, opts ...TrainOption) (*TrainResult, error) {
	cfg := &trainConfig{
		testSize:    0.2,
		randomState: 42,
		nEstimators: 100,
		nJobs:       -1,
		out:         os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := log.GetLoggerWithName("pricing")

	if X.Nrow() != len(y) {
		return nil, errors.NewDimensionError("TrainModel", X.Nrow(), len(y), 0)
	}
	trainIdx, testIdx, err := model_selection.TrainTestSplit(len(y), cfg.testSize, cfg.randomState)
	if err != nil {
		return nil, err
	}
	XTrain, err := X.Subset(trainIdx)
	if err != nil {
		return nil, err
	}
	XTest, err := X.Subset(testIdx)
	if err != nil {
		return nil, err
	}
	yTrain := model_selection.Take(y, trainIdx)
	yTest := model_selection.Take(y, testIdx)

	logger.Debug("train/test split",
		log.OperationKey, log.OperationSplit,
		log.TrainSamplesKey, len(trainIdx),
		log.TestSamplesKey, len(testIdx),
		log.TestSizeKey, cfg.testSize,
		log.RandomSeedKey, cfg.randomState,
	)

	forest := ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(cfg.nEstimators),
		ensemble.WithRandomState(cfg.randomState),
		ensemble.WithMaxDepth(cfg.maxDepth),
		ensemble.WithMaxFeatures(cfg.maxFeatures),
		ensemble.WithNJobs(cfg.nJobs),
	)
	p := pipeline.New(plan,
		pipeline.Step{Name: "regressor", Estimator: forest},
	)
	if err := p.Fit(XTrain.Frame(), yTrain); err != nil {
		return nil, err
	}

	yPred, err := p.Predict(XTest.Frame())
	if err != nil {
		return nil, err
	}
	m, err := evaluate(yTest, yPred)
	if err != nil {
		return nil, err
	}
	m.TrainSamples, m.TestSamples = len(trainIdx), len(testIdx)

	if _, err := fmt.Fprintf(cfg.out, "Mean Absolute Error: %.2f\nRoot Mean Squared Error: %.2f\n", m.MAE, m.RMSE); err != nil {
		return nil, errors.Wrap(err, "carprice: write metrics")
	}
	logger.Info("model evaluated",
		log.PhaseKey, log.PhaseTesting,
		log.OperationKey, log.OperationScore,
		log.EstimatorIDKey, p.ID(),
		log.MAEKey, m.MAE,
		log.RMSEKey, m.RMSE,
		log.R2ScoreKey, m.R2,
		log.TestSamplesKey, m.TestSamples,
	)

	return &TrainResult{Pipeline: p, Metrics: m, YTest: yTest, YPred: yPred}, nil
}

func evaluate(yTrue, yPred []float64) (Metrics, error) {
	t := mat.NewVecDense(len(yTrue), yTrue)
	p := mat.NewVecDense(len(yPred), yPred)

	var m Metrics
	var err error
	if m.MAE, err = metrics.MAE(t, p); err != nil {
		return m, err
	}
	if m.RMSE, err = metrics.RMSE(t, p); err != nil {
		return m, err
	}
	if m.R2, err = metrics.R2Score(t, p); err != nil {
		return m, err
	}
	if m.MAPE, err = metrics.MAPE(t, p); err != nil {
		m.MAPE = math.NaN()
	}
	return m, nil
}

// PredictPrice returns one predicted price per row of newData, in row order.
// Columns the pipeline was not trained on are ignored; a missing training
// column or a non-numeric value in a numeric column is a
// *errors.SchemaMismatchError. Feature columns are read with the kinds the
// pipeline was trained with, whatever types newData inferred for them.
func PredictPrice(p *pipeline.Pipeline, newData *dataset.Dataset) ([]float64, error) {
	if p == nil {
		return nil, errors.NewValidationError("pipeline", "must not be nil", nil)
	}
	if newData == nil {
		return nil, errors.NewValidationError("newData", "must not be nil", nil)
	}
	if ct, ok := p.Preprocessor().(*preprocessing.ColumnTransformer); ok {
		conformed, err := newData.Conform(ct.InputSchema())
		if err != nil {
			return nil, err
		}
		newData = conformed
	}
	preds, err := p.Predict(newData.Frame())
	if err != nil {
		return nil, err
	}
	log.GetLoggerWithName("pricing").Info("prices predicted",
		log.PhaseKey, log.PhaseInference,
		log.EstimatorIDKey, p.ID(),
		log.PredsKey, len(preds),
	)
	return preds, nil
}

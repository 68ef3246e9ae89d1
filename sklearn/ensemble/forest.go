// Package ensemble implements bagged tree ensembles.
package ensemble

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/core/parallel"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
	"github.com/YuminosukeSato/carprice/sklearn/tree"
)

// RandomForestRegressor averages the predictions of decision trees, each
// fitted on a bootstrap sample of the training rows.
//
// The seeds of every tree are drawn up front from one generator seeded with
// the random state, so the fitted forest does not depend on how trees are
// scheduled across workers.
type RandomForestRegressor struct {
	state  *model.StateManager
	logger log.Logger

	nEstimators     int
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	bootstrap       bool
	randomState     int64
	nJobs           int

	estimators []*tree.DecisionTreeRegressor
}

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees. Default 100.
func WithNEstimators(n int) Option {
	return func(rf *RandomForestRegressor) { rf.nEstimators = n }
}

// WithMaxDepth limits the depth of every tree. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestRegressor) { rf.maxDepth = depth }
}

// WithMinSamplesSplit sets min_samples_split of every tree. Default 2.
func WithMinSamplesSplit(n int) Option {
	return func(rf *RandomForestRegressor) { rf.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets min_samples_leaf of every tree. Default 1.
func WithMinSamplesLeaf(n int) Option {
	return func(rf *RandomForestRegressor) { rf.minSamplesLeaf = n }
}

// WithMaxFeatures sets the number of split candidates per node. 0, the
// default, considers every feature.
func WithMaxFeatures(n int) Option {
	return func(rf *RandomForestRegressor) { rf.maxFeatures = n }
}

// WithBootstrap toggles bootstrap sampling. Default true.
func WithBootstrap(b bool) Option {
	return func(rf *RandomForestRegressor) { rf.bootstrap = b }
}

// WithRandomState fixes the seed. Without it the forest is seeded from the
// clock.
func WithRandomState(seed int64) Option {
	return func(rf *RandomForestRegressor) { rf.randomState = seed }
}

// WithNJobs sets the number of trees fitted concurrently. Values <= 0 use
// one worker per CPU.
func WithNJobs(n int) Option {
	return func(rf *RandomForestRegressor) { rf.nJobs = n }
}

// NewRandomForestRegressor creates a forest with 100 fully grown trees.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		state:           model.NewStateManager(),
		logger:          log.GetLoggerWithName("ensemble"),
		nEstimators:     100,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		bootstrap:       true,
		randomState:     time.Now().UnixNano(),
		nJobs:           -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Fit grows the trees on X (n × features) and y (n × 1).
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")
	start := time.Now()

	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", rf.nEstimators)
	}
	n, nFeatures := X.Dims()
	if n == 0 || nFeatures == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewDimensionError("RandomForestRegressor.Fit", 1, yCols, 1)
	}
	if yRows != n {
		return errors.NewDimensionError("RandomForestRegressor.Fit", n, yRows, 0)
	}
	target := mat.Col(nil, 0, y)

	// 木ごとに (bootstrap用, 特徴量サンプリング用) の2つのシードを順番に引く
	master := rand.New(rand.NewSource(rf.randomState))
	seeds := make([][2]int64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = [2]int64{master.Int63(), master.Int63()}
	}

	estimators := make([]*tree.DecisionTreeRegressor, rf.nEstimators)
	err = parallel.ForEach(rf.nEstimators, rf.nJobs, "RandomForestRegressor.Fit", func(i int) error {
		sample := make([]int, n)
		if rf.bootstrap {
			rng := rand.New(rand.NewSource(seeds[i][0]))
			for j := range sample {
				sample[j] = rng.Intn(n)
			}
		} else {
			for j := range sample {
				sample[j] = j
			}
		}

		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(rf.maxDepth),
			tree.WithMinSamplesSplit(rf.minSamplesSplit),
			tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
			tree.WithMaxFeatures(rf.maxFeatures),
			tree.WithRandomState(seeds[i][1]),
		)
		if err := t.FitSample(X, target, sample); err != nil {
			return errors.Wrapf(err, "carprice: fit tree %d", i)
		}
		estimators[i] = t
		return nil
	})
	if err != nil {
		return err
	}

	rf.estimators = estimators
	rf.state.SetDimensions(nFeatures, n)
	rf.state.SetFitted()

	rf.logger.Info("random forest fitted",
		log.ModelNameKey, "RandomForestRegressor",
		log.EstimatorIDKey, rf.state.ID(),
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, nFeatures,
		log.NEstimatorsKey, rf.nEstimators,
		log.RandomSeedKey, rf.randomState,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns the mean of the tree predictions as an n × 1 matrix.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	nFeatures, _ := rf.state.GetDimensions()
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", nFeatures, c, 1)
	}
	if err := errors.CheckMatrix("RandomForestRegressor.Predict", X, r, c); err != nil {
		return nil, err
	}

	perTree := make([][]float64, len(rf.estimators))
	err := parallel.ForEach(len(rf.estimators), rf.nJobs, "RandomForestRegressor.Predict", func(i int) error {
		p, err := rf.estimators[i].Predict(X)
		if err != nil {
			return err
		}
		perTree[i] = mat.Col(nil, 0, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 合計は木の順番で行うので結果はスケジューリングに依存しない
	sum := make([]float64, r)
	for _, p := range perTree {
		floats.Add(sum, p)
	}
	floats.Scale(1/float64(len(perTree)), sum)

	rf.logger.Debug("random forest predicted",
		log.EstimatorIDKey, rf.state.ID(),
		log.OperationKey, log.OperationPredict,
		log.PredsKey, r,
	)
	return mat.NewVecDense(r, sum), nil
}

// FeatureImportances returns the mean of the per-tree importances.
func (rf *RandomForestRegressor) FeatureImportances() ([]float64, error) {
	if err := rf.state.RequireFitted("RandomForestRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	nFeatures, _ := rf.state.GetDimensions()
	out := make([]float64, nFeatures)
	for _, t := range rf.estimators {
		imp, err := t.FeatureImportances()
		if err != nil {
			return nil, err
		}
		floats.Add(out, imp)
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out, nil
}

// Estimators returns the fitted trees.
func (rf *RandomForestRegressor) Estimators() []*tree.DecisionTreeRegressor {
	return rf.estimators
}

// ID returns the estimator ID of the current fit.
func (rf *RandomForestRegressor) ID() string { return rf.state.ID() }

// IsFitted reports whether Fit has succeeded.
func (rf *RandomForestRegressor) IsFitted() bool { return rf.state.IsFitted() }

// GetParams returns the hyperparameters.
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"max_features":      rf.maxFeatures,
		"bootstrap":         rf.bootstrap,
		"random_state":      rf.randomState,
		"n_jobs":            rf.nJobs,
	}
}

func (rf *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, random_state=%d)", rf.nEstimators, rf.randomState)
}

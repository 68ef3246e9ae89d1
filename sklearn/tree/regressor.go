// Package tree implements CART decision trees for regression.
package tree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// 分割後の不純度がこれ以下のノードは葉にする
const impurityTolerance = 1e-12

// node is one node of a fitted tree. Leaves have left == nil.
type node struct {
	feature   int
	threshold float64
	value     float64
	samples   int
	impurity  float64
	left      *node
	right     *node
}

func (n *node) isLeaf() bool { return n.left == nil }

// DecisionTreeRegressor is a CART regression tree that splits on the mean
// squared error criterion.
type DecisionTreeRegressor struct {
	state *model.StateManager

	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	randomState     int64

	root        *node
	importances []float64
	depth       int
	leaves      int
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits the depth of the tree. 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(t *DecisionTreeRegressor) { t.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.minSamplesLeaf = n }
}

// WithMaxFeatures sets how many features are drawn as split candidates at
// each node. 0 means all features.
func WithMaxFeatures(n int) Option {
	return func(t *DecisionTreeRegressor) { t.maxFeatures = n }
}

// WithRandomState seeds the feature sampling.
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) { t.randomState = seed }
}

// NewDecisionTreeRegressor creates a tree with scikit-learn's defaults:
// unlimited depth, min_samples_split=2, min_samples_leaf=1, all features.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		state:           model.NewStateManager(),
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *DecisionTreeRegressor) validate(nFeatures int) error {
	switch {
	case t.maxDepth < 0:
		return errors.NewValidationError("max_depth", "must be >= 0", t.maxDepth)
	case t.minSamplesSplit < 2:
		return errors.NewValidationError("min_samples_split", "must be >= 2", t.minSamplesSplit)
	case t.minSamplesLeaf < 1:
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", t.minSamplesLeaf)
	case t.maxFeatures < 0 || t.maxFeatures > nFeatures:
		return errors.NewValidationError("max_features",
			fmt.Sprintf("must be between 0 and %d", nFeatures), t.maxFeatures)
	}
	return nil
}

// Fit builds the tree on all rows of X. y must be an n × 1 matrix.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	n, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", 1, yCols, 1)
	}
	if yRows != n {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", n, yRows, 0)
	}
	sample := make([]int, n)
	for i := range sample {
		sample[i] = i
	}
	return t.FitSample(X, mat.Col(nil, 0, y), sample)
}

// FitSample builds the tree on the rows of X listed in sample. Rows may
// repeat, as in a bootstrap sample.
func (t *DecisionTreeRegressor) FitSample(X mat.Matrix, y []float64, sample []int) error {
	n, nFeatures := X.Dims()
	if n == 0 || nFeatures == 0 || len(sample) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != n {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", n, len(y), 0)
	}
	if err := t.validate(nFeatures); err != nil {
		return err
	}
	if err := errors.CheckMatrix("DecisionTreeRegressor.Fit", X, n, nFeatures); err != nil {
		return err
	}
	if err := errors.CheckValues("DecisionTreeRegressor.Fit", y); err != nil {
		return err
	}

	cols := make([][]float64, nFeatures)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
	}

	b := &builder{
		tree:        t,
		cols:        cols,
		y:           y,
		rng:         rand.New(rand.NewSource(t.randomState)),
		importances: make([]float64, nFeatures),
		features:    make([]int, nFeatures),
	}
	for j := range b.features {
		b.features[j] = j
	}

	idx := append([]int(nil), sample...)
	t.depth, t.leaves = 0, 0
	t.root = b.build(idx, 0)
	t.importances = normalize(b.importances)

	t.state.SetDimensions(nFeatures, len(sample))
	t.state.SetFitted()
	return nil
}

// Predict returns an n × 1 matrix of predictions.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.state.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	nFeatures, _ := t.state.GetDimensions()
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", nFeatures, c, 1)
	}

	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, t.predictRow(X, i))
	}
	return out, nil
}

func (t *DecisionTreeRegressor) predictRow(X mat.Matrix, i int) float64 {
	n := t.root
	for !n.isLeaf() {
		if X.At(i, n.feature) <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// FeatureImportances returns the normalized total impurity decrease per
// feature.
func (t *DecisionTreeRegressor) FeatureImportances() ([]float64, error) {
	if err := t.state.RequireFitted("DecisionTreeRegressor", "FeatureImportances"); err != nil {
		return nil, err
	}
	return append([]float64(nil), t.importances...), nil
}

// Depth returns the depth of the fitted tree. A single leaf has depth 0.
func (t *DecisionTreeRegressor) Depth() int { return t.depth }

// NLeaves returns the number of leaves of the fitted tree.
func (t *DecisionTreeRegressor) NLeaves() int { return t.leaves }

// IsFitted reports whether Fit has succeeded.
func (t *DecisionTreeRegressor) IsFitted() bool { return t.state.IsFitted() }

// GetParams returns the hyperparameters.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.maxDepth,
		"min_samples_split": t.minSamplesSplit,
		"min_samples_leaf":  t.minSamplesLeaf,
		"max_features":      t.maxFeatures,
		"random_state":      t.randomState,
	}
}

type builder struct {
	tree        *DecisionTreeRegressor
	cols        [][]float64
	y           []float64
	rng         *rand.Rand
	importances []float64
	features    []int
}

type split struct {
	feature   int
	threshold float64
	pos       int // rows [0, pos) of the sorted index go left
	score     float64
	order     []int
}

func (b *builder) build(idx []int, depth int) *node {
	t := b.tree
	mean, impurity := meanImpurity(b.y, idx)
	nd := &node{value: mean, samples: len(idx), impurity: impurity}
	if depth > t.depth {
		t.depth = depth
	}

	if (t.maxDepth > 0 && depth >= t.maxDepth) ||
		len(idx) < t.minSamplesSplit ||
		len(idx) < 2*t.minSamplesLeaf ||
		impurity <= impurityTolerance {
		t.leaves++
		return nd
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		t.leaves++
		return nd
	}

	left := append([]int(nil), best.order[:best.pos]...)
	right := append([]int(nil), best.order[best.pos:]...)
	_, impL := meanImpurity(b.y, left)
	_, impR := meanImpurity(b.y, right)
	b.importances[best.feature] += float64(len(idx))*impurity -
		float64(len(left))*impL - float64(len(right))*impR

	nd.feature = best.feature
	nd.threshold = best.threshold
	nd.left = b.build(left, depth+1)
	nd.right = b.build(right, depth+1)
	return nd
}

// bestSplit maximizes sumL²/nL + sumR²/nR, which is equivalent to minimizing
// the weighted child MSE.
func (b *builder) bestSplit(idx []int) (split, bool) {
	t := b.tree
	candidates := b.features
	if t.maxFeatures > 0 && t.maxFeatures < len(b.features) {
		perm := b.rng.Perm(len(b.features))[:t.maxFeatures]
		sort.Ints(perm)
		candidates = perm
	}

	total := 0.0
	for _, i := range idx {
		total += b.y[i]
	}
	n := len(idx)
	minLeaf := t.minSamplesLeaf

	best := split{score: math.Inf(-1)}
	found := false
	order := make([]int, n)
	for _, f := range candidates {
		col := b.cols[f]
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool { return col[order[a]] < col[order[c]] })
		if col[order[0]] == col[order[n-1]] {
			continue
		}

		sumL := 0.0
		for pos := 1; pos < n; pos++ {
			sumL += b.y[order[pos-1]]
			if pos < minLeaf || n-pos < minLeaf {
				continue
			}
			lo, hi := col[order[pos-1]], col[order[pos]]
			if lo == hi {
				continue
			}
			sumR := total - sumL
			score := sumL*sumL/float64(pos) + sumR*sumR/float64(n-pos)
			if score > best.score {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, pos: pos, score: score}
				best.order = append(best.order[:0], order...)
				found = true
			}
		}
	}
	return best, found
}

func meanImpurity(y []float64, idx []int) (mean, impurity float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := y[i] - mean
		impurity += d * d
	}
	return mean, impurity / float64(len(idx))
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	if sum <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

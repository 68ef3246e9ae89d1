// Package pipeline chains a table preprocessor, optional matrix transformers
// and a final regressor into one fit/predict unit.
package pipeline

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/metrics"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// TablePreprocessor turns a table into a feature matrix.
type TablePreprocessor = model.TablePreprocessor

// Step is one named matrix step. Every step but the last must be a
// model.Transformer; the last must be a model.Regressor.
type Step struct {
	Name      string
	Estimator interface{}
}

// Pipeline fits the preprocessor on the input table, feeds the encoded
// matrix through the steps and fits the final regressor.
//
// The plan given to New is never fitted itself: every Fit works on a fresh
// copy that only this pipeline holds, so one plan can seed many pipelines.
type Pipeline struct {
	state  *model.StateManager
	logger log.Logger

	plan         TablePreprocessor
	preprocessor TablePreprocessor
	steps        []Step
}

// New creates a pipeline. At least one step, the regressor, is required.
func New(plan TablePreprocessor, steps ...Step) *Pipeline {
	return &Pipeline{
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("pipeline"),
		plan:   plan,
		steps:  steps,
	}
}

func (p *Pipeline) validate() error {
	if p.plan == nil {
		return errors.NewValidationError("preprocessor", "must not be nil", nil)
	}
	if len(p.steps) == 0 {
		return errors.NewValidationError("steps", "a final regressor is required", nil)
	}
	for _, s := range p.steps[:len(p.steps)-1] {
		if _, ok := s.Estimator.(model.Transformer); !ok {
			return errors.NewValidationError("pipeline step",
				"all intermediate steps must be transformers", s.Name)
		}
	}
	last := p.steps[len(p.steps)-1]
	if _, ok := last.Estimator.(model.Regressor); !ok {
		return errors.NewValidationError("pipeline final step",
			"final step must implement Fit and Predict", last.Name)
	}
	return nil
}

// Fit fits the preprocessor and every step on X and y.
func (p *Pipeline) Fit(X dataframe.DataFrame, y []float64) error {
	start := time.Now()
	if err := p.validate(); err != nil {
		return err
	}
	if X.Nrow() != len(y) {
		return errors.NewDimensionError("Pipeline.Fit", X.Nrow(), len(y), 0)
	}
	if err := errors.CheckValues("Pipeline.Fit", y); err != nil {
		return err
	}

	pre := p.plan.Clone()
	if err := pre.Fit(X); err != nil {
		return errors.Wrap(err, "carprice: failed to fit preprocessor")
	}
	encoded, err := pre.Transform(X)
	if err != nil {
		return errors.Wrap(err, "carprice: failed to transform training data")
	}

	var Xt mat.Matrix = encoded
	for _, s := range p.steps[:len(p.steps)-1] {
		tr := s.Estimator.(model.Transformer)
		if Xt, err = tr.FitTransform(Xt); err != nil {
			return errors.Wrapf(err, "carprice: failed to fit step %q", s.Name)
		}
	}

	last := p.steps[len(p.steps)-1]
	if err := last.Estimator.(model.Regressor).Fit(Xt, mat.NewDense(len(y), 1, append([]float64(nil), y...))); err != nil {
		return errors.Wrapf(err, "carprice: failed to fit final step %q", last.Name)
	}

	_, nFeatures := Xt.Dims()
	p.preprocessor = pre
	p.state.SetDimensions(nFeatures, len(y))
	p.state.SetFitted()

	p.logger.Info("pipeline fitted",
		log.ModelNameKey, "Pipeline",
		log.EstimatorIDKey, p.state.ID(),
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(y),
		log.FeaturesKey, nFeatures,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns one prediction per row of X, in row order.
func (p *Pipeline) Predict(X dataframe.DataFrame) ([]float64, error) {
	if err := p.state.RequireFitted("Pipeline", "Predict"); err != nil {
		return nil, err
	}

	encoded, err := p.preprocessor.Transform(X)
	if err != nil {
		return nil, err
	}
	var Xt mat.Matrix = encoded
	for _, s := range p.steps[:len(p.steps)-1] {
		if Xt, err = s.Estimator.(model.Transformer).Transform(Xt); err != nil {
			return nil, errors.Wrapf(err, "carprice: failed to transform at step %q", s.Name)
		}
	}

	preds, err := p.steps[len(p.steps)-1].Estimator.(model.Regressor).Predict(Xt)
	if err != nil {
		return nil, err
	}
	out := mat.Col(nil, 0, preds)

	p.logger.Debug("pipeline predicted",
		log.EstimatorIDKey, p.state.ID(),
		log.OperationKey, log.OperationPredict,
		log.PredsKey, len(out),
	)
	return out, nil
}

// Score returns the R² of the predictions on X against y.
func (p *Pipeline) Score(X dataframe.DataFrame, y []float64) (float64, error) {
	preds, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	if len(preds) != len(y) {
		return 0, errors.NewDimensionError("Pipeline.Score", len(preds), len(y), 0)
	}
	return metrics.R2Score(mat.NewVecDense(len(y), append([]float64(nil), y...)), mat.NewVecDense(len(preds), preds))
}

// NamedStep returns the estimator of the step with the given name.
func (p *Pipeline) NamedStep(name string) (interface{}, bool) {
	for _, s := range p.steps {
		if s.Name == name {
			return s.Estimator, true
		}
	}
	return nil, false
}

// Preprocessor returns the fitted table preprocessor, or the unfitted plan
// before Fit.
func (p *Pipeline) Preprocessor() TablePreprocessor {
	if p.preprocessor != nil {
		return p.preprocessor
	}
	return p.plan
}

// RequiredColumns returns the input columns Predict needs.
func (p *Pipeline) RequiredColumns() []string { return p.plan.RequiredColumns() }

// ID returns the estimator ID of the current fit.
func (p *Pipeline) ID() string { return p.state.ID() }

// IsFitted reports whether Fit has succeeded.
func (p *Pipeline) IsFitted() bool { return p.state.IsFitted() }

func (p *Pipeline) String() string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return fmt.Sprintf("Pipeline(steps=%v)", names)
}

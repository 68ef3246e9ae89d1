package preprocessing

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/dataset"
	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// ColumnSpec assigns an encoder to a named group of columns.
type ColumnSpec struct {
	Name    string
	Encoder ColumnEncoder
	Columns []string
}

// ColumnTransformer applies one encoder per column group and concatenates the
// outputs side by side in spec order. Columns not named by any spec are
// ignored.
type ColumnTransformer struct {
	state  *model.StateManager
	logger log.Logger

	specs  []ColumnSpec
	fitted []FittedColumns
	width  int
}

// NewColumnTransformer creates a transformer over the given column groups.
// Groups with no columns are skipped.
func NewColumnTransformer(specs ...ColumnSpec) *ColumnTransformer {
	return &ColumnTransformer{
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("preprocessing"),
		specs:  append([]ColumnSpec(nil), specs...),
	}
}

// ForSchema builds the standard plan for a feature schema: the numeric
// encoder over the numeric columns and the categorical encoder over the
// categorical ones.
func ForSchema(schema dataset.Schema, numeric, categorical ColumnEncoder) *ColumnTransformer {
	return NewColumnTransformer(
		ColumnSpec{Name: "num", Encoder: numeric, Columns: schema.NamesOf(dataset.Numeric)},
		ColumnSpec{Name: "cat", Encoder: categorical, Columns: schema.NamesOf(dataset.Categorical)},
	)
}

// Specs returns the column groups.
func (ct *ColumnTransformer) Specs() []ColumnSpec { return ct.specs }

// RequiredColumns returns every input column the transformer reads.
func (ct *ColumnTransformer) RequiredColumns() []string {
	var cols []string
	for _, s := range ct.specs {
		cols = append(cols, s.Columns...)
	}
	return cols
}

// InputSchema returns every required column with the kind its encoder reads.
func (ct *ColumnTransformer) InputSchema() dataset.Schema {
	var cols []dataset.Column
	for _, s := range ct.specs {
		if s.Encoder == nil {
			continue
		}
		for _, c := range s.Columns {
			cols = append(cols, dataset.Column{Name: c, Kind: s.Encoder.Kind()})
		}
	}
	return dataset.NewSchema(cols...)
}

// Clone returns an unfitted transformer over the same column groups.
func (ct *ColumnTransformer) Clone() model.TablePreprocessor {
	specs := make([]ColumnSpec, len(ct.specs))
	for i, s := range ct.specs {
		s.Columns = append([]string(nil), s.Columns...)
		specs[i] = s
	}
	return NewColumnTransformer(specs...)
}

func (ct *ColumnTransformer) validate() error {
	seen := make(map[string]string)
	for _, s := range ct.specs {
		if s.Encoder == nil {
			return errors.NewValidationError("encoder", "must not be nil", s.Name)
		}
		for _, c := range s.Columns {
			if other, dup := seen[c]; dup {
				return errors.NewValidationError("columns",
					fmt.Sprintf("column %q assigned to both %q and %q", c, other, s.Name), c)
			}
			seen[c] = s.Name
		}
	}
	if len(seen) == 0 {
		return errors.NewValidationError("columns", "no columns to transform", nil)
	}
	return nil
}

// Fit fits every column group on df.
func (ct *ColumnTransformer) Fit(df dataframe.DataFrame) error {
	if err := ct.validate(); err != nil {
		return err
	}
	if missing := missingColumns(df, ct.RequiredColumns()); len(missing) > 0 {
		return errors.NewSchemaMismatchError("ColumnTransformer.Fit", missing, nil)
	}
	if df.Nrow() == 0 {
		return errors.NewModelError("ColumnTransformer.Fit", "empty data", errors.ErrEmptyData)
	}

	fitted := make([]FittedColumns, 0, len(ct.specs))
	width := 0
	for _, s := range ct.specs {
		if len(s.Columns) == 0 {
			continue
		}
		f, err := s.Encoder.Fit(df, s.Columns)
		if err != nil {
			return errors.Wrapf(err, "carprice: fit column group %q", s.Name)
		}
		fitted = append(fitted, f)
		width += f.Width()
	}

	ct.fitted = fitted
	ct.width = width
	ct.state.SetDimensions(width, df.Nrow())
	ct.state.SetFitted()

	ct.logger.Debug("column transformer fitted",
		log.ModelNameKey, "ColumnTransformer",
		log.EstimatorIDKey, ct.state.ID(),
		log.OperationKey, log.OperationFit,
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, width,
	)
	return nil
}

// Transform encodes df into an n × Width() matrix. Every required column must
// be present; missing ones are reported together in a SchemaMismatchError.
func (ct *ColumnTransformer) Transform(df dataframe.DataFrame) (*mat.Dense, error) {
	if err := ct.state.RequireFitted("ColumnTransformer", "Transform"); err != nil {
		return nil, err
	}
	if missing := missingColumns(df, ct.RequiredColumns()); len(missing) > 0 {
		return nil, errors.NewSchemaMismatchError("ColumnTransformer.Transform", missing, nil)
	}
	n := df.Nrow()
	if n == 0 {
		return nil, errors.NewModelError("ColumnTransformer.Transform", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(n, ct.width, nil)
	offset := 0
	for _, f := range ct.fitted {
		block, err := f.Transform(df)
		if err != nil {
			return nil, err
		}
		w := f.Width()
		out.Slice(0, n, offset, offset+w).(*mat.Dense).Copy(block)
		offset += w
	}

	if err := errors.CheckMatrix("ColumnTransformer.Transform", out, n, ct.width); err != nil {
		return nil, err
	}
	return out, nil
}

// FitTransform fits on df and encodes it.
func (ct *ColumnTransformer) FitTransform(df dataframe.DataFrame) (*mat.Dense, error) {
	if err := ct.Fit(df); err != nil {
		return nil, err
	}
	return ct.Transform(df)
}

// Width returns the number of output columns after Fit.
func (ct *ColumnTransformer) Width() int { return ct.width }

// IsFitted reports whether Fit has succeeded.
func (ct *ColumnTransformer) IsFitted() bool { return ct.state.IsFitted() }

// FeatureNamesOut returns the output column names after Fit.
func (ct *ColumnTransformer) FeatureNamesOut() []string {
	names := make([]string, 0, ct.width)
	for _, f := range ct.fitted {
		names = append(names, f.FeatureNames()...)
	}
	return names
}

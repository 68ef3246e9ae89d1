package preprocessing

import (
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/dataset"
)

// ColumnEncoder is an unfitted transformation for one group of columns.
// Fit never mutates the encoder, so one value can be reused across pipelines.
type ColumnEncoder interface {
	Name() string
	// Kind is the column kind the encoder reads.
	Kind() dataset.Kind
	Fit(df dataframe.DataFrame, columns []string) (FittedColumns, error)
}

// FittedColumns is the learned, read-only state of a ColumnEncoder.
type FittedColumns interface {
	// Columns are the input columns, in the order they were fitted.
	Columns() []string
	// Width is the number of output columns.
	Width() int
	FeatureNames() []string
	Transform(df dataframe.DataFrame) (*mat.Dense, error)
}

// Standardize scales numeric columns to zero mean and unit variance.
type Standardize struct{}

// Name implements ColumnEncoder.
func (Standardize) Name() string { return "standard_scaler" }

// Kind implements ColumnEncoder.
func (Standardize) Kind() dataset.Kind { return dataset.Numeric }

// Fit implements ColumnEncoder.
func (Standardize) Fit(df dataframe.DataFrame, columns []string) (FittedColumns, error) {
	return fitNumeric("StandardScaler.Fit", NewStandardScalerDefault(), df, columns)
}

// MinMax scales numeric columns into Range. A zero Range means [0, 1].
type MinMax struct {
	Range [2]float64
}

// Name implements ColumnEncoder.
func (MinMax) Name() string { return "minmax_scaler" }

// Kind implements ColumnEncoder.
func (MinMax) Kind() dataset.Kind { return dataset.Numeric }

// Fit implements ColumnEncoder.
func (m MinMax) Fit(df dataframe.DataFrame, columns []string) (FittedColumns, error) {
	r := m.Range
	if r == [2]float64{} {
		r = [2]float64{0, 1}
	}
	return fitNumeric("MinMaxScaler.Fit", NewMinMaxScaler(r), df, columns)
}

type fittedNumeric struct {
	columns []string
	scaler  model.Transformer
}

func fitNumeric(op string, scaler model.Transformer, df dataframe.DataFrame, columns []string) (FittedColumns, error) {
	X, err := numericMatrix(op, df, columns)
	if err != nil {
		return nil, err
	}
	if err := scaler.Fit(X); err != nil {
		return nil, err
	}
	return &fittedNumeric{columns: append([]string(nil), columns...), scaler: scaler}, nil
}

func (f *fittedNumeric) Columns() []string { return f.columns }

func (f *fittedNumeric) Width() int { return len(f.columns) }

func (f *fittedNumeric) FeatureNames() []string { return f.columns }

func (f *fittedNumeric) Transform(df dataframe.DataFrame) (*mat.Dense, error) {
	X, err := numericMatrix("ColumnTransformer.Transform", df, f.columns)
	if err != nil {
		return nil, err
	}
	out, err := f.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(out), nil
}

// OneHot one-hot encodes categorical columns. An empty HandleUnknown means
// HandleUnknownIgnore.
type OneHot struct {
	HandleUnknown string
}

// Name implements ColumnEncoder.
func (OneHot) Name() string { return "onehot_encoder" }

// Kind implements ColumnEncoder.
func (OneHot) Kind() dataset.Kind { return dataset.Categorical }

// Fit implements ColumnEncoder.
func (o OneHot) Fit(df dataframe.DataFrame, columns []string) (FittedColumns, error) {
	policy := o.HandleUnknown
	if policy == "" {
		policy = HandleUnknownIgnore
	}
	rows, err := categoricalRows("OneHotEncoder.Fit", df, columns)
	if err != nil {
		return nil, err
	}
	enc := NewOneHotEncoder(policy)
	if err := enc.Fit(rows); err != nil {
		return nil, err
	}
	return &fittedOneHot{columns: append([]string(nil), columns...), encoder: enc}, nil
}

type fittedOneHot struct {
	columns []string
	encoder *OneHotEncoder
}

func (f *fittedOneHot) Columns() []string { return f.columns }

func (f *fittedOneHot) Width() int { return f.encoder.Width() }

func (f *fittedOneHot) FeatureNames() []string { return f.encoder.FeatureNamesOut(f.columns) }

func (f *fittedOneHot) Transform(df dataframe.DataFrame) (*mat.Dense, error) {
	rows, err := categoricalRows("ColumnTransformer.Transform", df, f.columns)
	if err != nil {
		return nil, err
	}
	return f.encoder.Transform(rows)
}

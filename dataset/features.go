package dataset

import (
	"math"

	"github.com/YuminosukeSato/carprice/pkg/errors"
	"github.com/YuminosukeSato/carprice/pkg/log"
)

// DropMissing returns the rows whose target value is present, and the number
// of rows removed. The target column must exist.
func (d *Dataset) DropMissing(target string) (*Dataset, int, error) {
	c, ok := d.schema.Lookup(target)
	if !ok {
		return nil, 0, errors.NewSchemaError(target, "target column not found")
	}

	col := d.frame.Col(target)
	keep := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		el := col.Elem(i)
		if el.IsNA() {
			continue
		}
		if c.Kind == Numeric && math.IsNaN(el.Float()) {
			continue
		}
		keep = append(keep, i)
	}

	dropped := col.Len() - len(keep)
	if len(keep) == 0 {
		return nil, dropped, errors.NewModelError("Dataset.DropMissing", "empty data",
			errors.Wrapf(errors.ErrEmptyData, "every value of %q is missing", target))
	}
	if dropped == 0 {
		return d, 0, nil
	}

	out, err := d.Subset(keep)
	if err != nil {
		return nil, 0, err
	}

	log.GetLoggerWithName("dataset").Info("rows with missing target dropped",
		log.SourceKey, d.source,
		log.RowsDroppedKey, dropped,
		log.SamplesKey, out.Nrow(),
	)
	return out, dropped, nil
}

// SplitXY separates the feature columns from the numeric target column.
func (d *Dataset) SplitXY(target string) (*Dataset, []float64, error) {
	c, ok := d.schema.Lookup(target)
	if !ok {
		return nil, nil, errors.NewSchemaError(target, "target column not found")
	}
	if c.Kind != Numeric {
		return nil, nil, errors.NewSchemaError(target, "target column must be numeric")
	}

	y := d.frame.Col(target).Float()
	for _, v := range y {
		if math.IsNaN(v) {
			return nil, nil, errors.NewSchemaError(target, "target column has missing values; drop them first")
		}
	}

	features := d.schema.Without(target)
	if features.Len() == 0 {
		return nil, nil, errors.NewSchemaError(target, "no feature columns besides the target")
	}
	X := d.frame.Select(features.Names())
	if X.Err != nil {
		return nil, nil, errors.Wrap(X.Err, "carprice: Dataset.SplitXY")
	}
	text := d.text.Select(features.Names())
	if text.Err != nil {
		return nil, nil, errors.Wrap(text.Err, "carprice: Dataset.SplitXY")
	}
	return &Dataset{frame: X, text: text, schema: features, source: d.source}, y, nil
}

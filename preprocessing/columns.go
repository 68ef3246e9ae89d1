package preprocessing

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// MissingCategory is the category a missing categorical cell is encoded as.
const MissingCategory = "NaN"

func missingColumns(df dataframe.DataFrame, columns []string) []string {
	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	var missing []string
	for _, c := range columns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// numericMatrix reads columns as float64. Missing cells become NaN; cells that
// are present but not numbers make the column invalid.
func numericMatrix(op string, df dataframe.DataFrame, columns []string) (*mat.Dense, error) {
	if missing := missingColumns(df, columns); len(missing) > 0 {
		return nil, errors.NewSchemaMismatchError(op, missing, nil)
	}

	n := df.Nrow()
	out := mat.NewDense(n, len(columns), nil)
	var invalid []string
	for j, name := range columns {
		s := df.Col(name)
		if s.Type() == series.String {
			errors.Warn(errors.NewDataConversionWarning("string", "float64",
				"column "+name+" holds text; parsing it as numbers"))
		}
		for i := 0; i < n; i++ {
			el := s.Elem(i)
			if el.IsNA() {
				out.Set(i, j, math.NaN())
				continue
			}
			v := el.Float()
			if math.IsNaN(v) || math.IsInf(v, 0) {
				invalid = append(invalid, name)
				break
			}
			out.Set(i, j, v)
		}
	}
	if len(invalid) > 0 {
		return nil, errors.NewSchemaMismatchError(op, nil, invalid)
	}
	return out, nil
}

// categoricalRows reads columns as strings, row-major.
func categoricalRows(op string, df dataframe.DataFrame, columns []string) ([][]string, error) {
	if missing := missingColumns(df, columns); len(missing) > 0 {
		return nil, errors.NewSchemaMismatchError(op, missing, nil)
	}

	n := df.Nrow()
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = make([]string, len(columns))
	}
	for j, name := range columns {
		s := df.Col(name)
		for i := 0; i < n; i++ {
			el := s.Elem(i)
			if el.IsNA() {
				rows[i][j] = MissingCategory
				continue
			}
			rows[i][j] = el.String()
		}
	}
	return rows, nil
}

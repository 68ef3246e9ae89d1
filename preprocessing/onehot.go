package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/carprice/core/model"
	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// HandleUnknown values for OneHotEncoder.
const (
	// HandleUnknownIgnore encodes an unseen category as all zeros.
	HandleUnknownIgnore = "ignore"
	// HandleUnknownError rejects rows with an unseen category.
	HandleUnknownError = "error"
)

// OneHotEncoder はカテゴリ列を0/1の指示列に展開する。
// カテゴリは列ごとに昇順で並ぶ。
type OneHotEncoder struct {
	state *model.StateManager

	HandleUnknown string

	// Categories は列ごとの学習済みカテゴリ
	Categories [][]string
	index      []map[string]int
	offsets    []int
	width      int
}

// NewOneHotEncoder creates an encoder with the given unknown-category policy.
func NewOneHotEncoder(handleUnknown string) *OneHotEncoder {
	return &OneHotEncoder{
		state:         model.NewStateManager(),
		HandleUnknown: handleUnknown,
	}
}

// Fit learns the categories of each column. X is row-major: X[i][j] is the
// value of column j in row i.
func (e *OneHotEncoder) Fit(X [][]string) error {
	if e.HandleUnknown != HandleUnknownIgnore && e.HandleUnknown != HandleUnknownError {
		return errors.NewValidationError("handle_unknown", "must be ignore or error", e.HandleUnknown)
	}
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	nCols := len(X[0])
	e.Categories = make([][]string, nCols)
	e.index = make([]map[string]int, nCols)
	e.offsets = make([]int, nCols)
	e.width = 0
	for j := 0; j < nCols; j++ {
		seen := make(map[string]struct{})
		for _, row := range X {
			if len(row) != nCols {
				return errors.NewDimensionError("OneHotEncoder.Fit", nCols, len(row), 1)
			}
			seen[row[j]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)

		e.Categories[j] = cats
		e.index[j] = make(map[string]int, len(cats))
		for k, v := range cats {
			e.index[j][v] = k
		}
		e.offsets[j] = e.width
		e.width += len(cats)
	}

	e.state.SetDimensions(nCols, len(X))
	e.state.SetFitted()
	return nil
}

// Transform encodes X into a len(X) × Width() indicator matrix.
func (e *OneHotEncoder) Transform(X [][]string) (*mat.Dense, error) {
	if err := e.state.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(X) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}
	nCols, _ := e.state.GetDimensions()

	out := mat.NewDense(len(X), e.width, nil)
	for i, row := range X {
		if len(row) != nCols {
			return nil, errors.NewDimensionError("OneHotEncoder.Transform", nCols, len(row), 1)
		}
		for j, v := range row {
			k, ok := e.index[j][v]
			if !ok {
				if e.HandleUnknown == HandleUnknownError {
					return nil, errors.NewValueError("OneHotEncoder.Transform",
						fmt.Sprintf("unknown category %q in column %d", v, j))
				}
				continue
			}
			out.Set(i, e.offsets[j]+k, 1)
		}
	}
	return out, nil
}

// FitTransform fits the encoder and encodes X.
func (e *OneHotEncoder) FitTransform(X [][]string) (*mat.Dense, error) {
	if err := e.Fit(X); err != nil {
		return nil, err
	}
	return e.Transform(X)
}

// Width returns the number of output columns.
func (e *OneHotEncoder) Width() int { return e.width }

// IsFitted reports whether Fit has succeeded.
func (e *OneHotEncoder) IsFitted() bool { return e.state.IsFitted() }

// FeatureNamesOut returns "<column>_<category>" for every output column.
func (e *OneHotEncoder) FeatureNamesOut(inputNames []string) []string {
	names := make([]string, 0, e.width)
	for j, cats := range e.Categories {
		prefix := fmt.Sprintf("x%d", j)
		if j < len(inputNames) {
			prefix = inputNames[j]
		}
		for _, c := range cats {
			names = append(names, prefix+"_"+c)
		}
	}
	return names
}

// GetParams returns the encoder parameters.
func (e *OneHotEncoder) GetParams() map[string]interface{} {
	return map[string]interface{}{"handle_unknown": e.HandleUnknown}
}

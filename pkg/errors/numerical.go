package errors

import (
	"math"
)

// CheckMatrix checks all values in a matrix for NaN or Inf and returns
// a NumericalInstabilityError describing the first offending row.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		var unstable []float64
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				unstable = append(unstable, v)
			}
		}
		if len(unstable) > 0 {
			return NewNumericalInstabilityError(operation, unstable, i)
		}
	}
	return nil
}

// CheckValues checks a slice for NaN or Inf.
func CheckValues(operation string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, []float64{v}, i)
		}
	}
	return nil
}

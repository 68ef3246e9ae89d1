// Package model_selection splits samples into train and test partitions.
package model_selection

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// TrainTestSplit shuffles the row indexes [0, nSamples) with a generator
// seeded by randomState and returns the first ceil(testSize*nSamples) of them
// as the test partition and the rest as the train partition.
//
// testSize must lie in (0, 1) and both partitions must be non-empty.
func TrainTestSplit(nSamples int, testSize float64, randomState int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	if nSamples <= 0 {
		return nil, nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}

	nTest := int(math.Ceil(testSize * float64(nSamples)))
	nTrain := nSamples - nTest
	if nTest == 0 || nTrain == 0 {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			"with n_samples and test_size the train or test partition would be empty")
	}

	perm := rand.New(rand.NewSource(randomState)).Perm(nSamples)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}

// Take returns values[idx[0]], values[idx[1]], ...
func Take(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

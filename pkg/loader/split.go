package loader

import (
	"errors"
	"math/rand"
)

// TrainTestSplit shuffles items and their targets in unison and holds out
// testRatio of them. At least one item stays on each side when n >= 2.
func TrainTestSplit[T any](items []T, y []float64, testRatio float64, rng *rand.Rand) (train, test []T, yTrain, yTest []float64, err error) {
	n := len(items)
	if n != len(y) {
		return nil, nil, nil, nil, errors.New("loader: items and targets length mismatch")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, nil, nil, errors.New("loader: test ratio must be in (0,1)")
	}
	if n < 2 {
		return nil, nil, nil, nil, errors.New("loader: need at least 2 items to split")
	}
	nTest := int(float64(n) * testRatio)
	nTest = max(1, min(nTest, n-1))

	indices := rng.Perm(n)
	for i, idx := range indices {
		if i < nTest {
			test = append(test, items[idx])
			yTest = append(yTest, y[idx])
		} else {
			train = append(train, items[idx])
			yTrain = append(yTrain, y[idx])
		}
	}
	return train, test, yTrain, yTest, nil
}

// KFoldSplit assigns shuffled indices 0..n-1 to k folds round-robin.
func KFoldSplit(n, k int, rng *rand.Rand) [][]int {
	if k < 2 || n < k {
		return nil
	}
	indices := rng.Perm(n)
	folds := make([][]int, k)
	for i := 0; i < n; i++ {
		folds[i%k] = append(folds[i%k], indices[i])
	}
	return folds
}

// Gather picks items by index.
func Gather[T any](items []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}

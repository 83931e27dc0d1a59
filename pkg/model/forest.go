package model

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
)

// RandomForestRegressor averages bootstrapped regression trees.
type RandomForestRegressor struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Bootstrap       bool
	RandomState     int64

	NFeatures int
	Trees     []*DecisionTreeRegressor
}

// ForestOption configures a RandomForestRegressor.
type ForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}
func WithMaxDepth(d int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}
func WithMinSamplesSplit(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = k }
}
func WithBootstrap(b bool) ForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}
func WithRandomState(seed int64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

// NewRandomForestRegressor initializes the forest with sensible defaults.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains every tree concurrently. Each tree draws its bootstrap sample
// from its own source seeded with RandomState + tree index, so a fixed
// RandomState gives a reproducible forest.
func (rf *RandomForestRegressor) Fit(X mat.Matrix, y []float64) error {
	n, c, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if rf.NEstimators < 1 {
		return errors.New("forest: NEstimators must be positive")
	}
	rows := rowsOf(X)
	rf.NFeatures = c
	rf.Trees = make([]*DecisionTreeRegressor, rf.NEstimators)

	var wg sync.WaitGroup
	errCh := make(chan error, rf.NEstimators)
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for i := 0; i < rf.NEstimators; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			seed := rf.RandomState + int64(idx)
			treeRand := rand.New(rand.NewSource(seed))
			sample := make([]int, n)
			for j := range sample {
				if rf.Bootstrap {
					sample[j] = treeRand.Intn(n)
				} else {
					sample[j] = j
				}
			}

			tree := NewDecisionTreeRegressor(
				WithTreeMaxDepth(rf.MaxDepth),
				WithTreeMinSamplesSplit(rf.MinSamplesSplit),
				WithTreeMinSamplesLeaf(rf.MinSamplesLeaf),
				WithTreeMaxFeatures(rf.MaxFeatures),
				WithTreeRandomState(seed),
			)
			if err := tree.fitRows(rows, y, sample); err != nil {
				errCh <- err
				return
			}
			rf.Trees[idx] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict returns the mean of the tree predictions for each row of X.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, errors.New("forest: not trained")
	}
	r, c := X.Dims()
	if c != rf.NFeatures {
		return nil, fmt.Errorf("forest: expected %d features, got %d", rf.NFeatures, c)
	}

	preds := make([][]float64, len(rf.Trees))
	errs := make([]error, len(rf.Trees))
	var wg sync.WaitGroup
	for i, tree := range rf.Trees {
		wg.Add(1)
		go func(i int, t *DecisionTreeRegressor) {
			defer wg.Done()
			preds[i], errs[i] = t.Predict(X)
		}(i, tree)
	}
	wg.Wait()

	// summed in tree order so results do not depend on scheduling
	out := make([]float64, r)
	for i, p := range preds {
		if errs[i] != nil {
			return nil, errs[i]
		}
		for j, v := range p {
			out[j] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out, nil
}

package model

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/data"
	"github.com/Luddachan/RepoSpotify-AnnaAntoRosy/pkg/optim"
)

// LinearRegression is trained with mini-batch gradient descent. It serves
// as the baseline the forest is compared against.
type LinearRegression struct {
	W         []float64
	B         float64
	Lr        float64
	Epochs    int
	BatchSize int
	Seed      int64
}

// NewLinearRegression returns an untrained model; weights are sized on Fit.
func NewLinearRegression(lr float64, epochs, batchSize int, seed int64) *LinearRegression {
	return &LinearRegression{Lr: lr, Epochs: epochs, BatchSize: batchSize, Seed: seed}
}

// Fit streams shuffled samples through the batcher each epoch and applies
// one SGD step per batch.
func (m *LinearRegression) Fit(X mat.Matrix, y []float64) error {
	n, c, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if m.Epochs < 1 {
		return errors.New("linear: Epochs must be positive")
	}
	rows := rowsOf(X)
	rnd := rand.New(rand.NewSource(m.Seed))
	m.W = make([]float64, c)
	for i := range m.W {
		m.W[i] = rnd.NormFloat64() * 0.01
	}
	m.B = 0
	opt := optim.NewSGD(m.Lr)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	xs := make([][]float64, n)
	ys := make([]float64, n)
	for ep := 0; ep < m.Epochs; ep++ {
		rnd.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for i, k := range order {
			xs[i], ys[i] = rows[k], y[k]
		}

		samples := make(chan data.Sample)
		batches := make(chan data.Batch)
		data.Stream(xs, ys, samples)
		data.Batcher(samples, m.BatchSize, batches)
		for batch := range batches {
			m.step(opt, batch)
		}
	}
	return nil
}

func (m *LinearRegression) step(opt *optim.SGD, batch data.Batch) {
	yhat := make([]float64, len(batch.X))
	for i, row := range batch.X {
		yhat[i] = m.predictRow(row)
	}
	_, dy := optim.MSE(batch.Y, yhat)
	gW := make([]float64, len(m.W))
	gb := 0.0
	for i, row := range batch.X {
		for j, xij := range row {
			gW[j] += dy[i] * xij
		}
		gb += dy[i]
	}
	opt.Step(m.W, gW)
	m.B = opt.StepScalar(m.B, gb)
}

func (m *LinearRegression) predictRow(row []float64) float64 {
	sum := m.B
	for j, v := range row {
		sum += m.W[j] * v
	}
	return sum
}

// Predict splits rows across workers.
func (m *LinearRegression) Predict(X mat.Matrix) ([]float64, error) {
	if m.W == nil {
		return nil, errors.New("linear: not trained")
	}
	r, c := X.Dims()
	if c != len(m.W) {
		return nil, fmt.Errorf("linear: expected %d features, got %d", len(m.W), c)
	}
	pred := make([]float64, r)
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (r + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, r)
		if s >= e {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			row := make([]float64, c)
			for i := s; i < e; i++ {
				mat.Row(row, i, X)
				pred[i] = m.predictRow(row)
			}
		}(s, e)
	}
	wg.Wait()
	return pred, nil
}

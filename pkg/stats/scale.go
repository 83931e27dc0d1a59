package stats

import (
	"errors"
	"math"
)

// StandardScaler standardizes each column to zero mean and unit variance.
// Fields are exported so the fitted scaler survives gob encoding.
type StandardScaler struct {
	Mean   []float64
	Std    []float64
	Fitted bool
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit learns per-column mean and population standard deviation. Constant
// columns get a unit deviation so they transform to zero.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("scaler: empty X")
	}
	r, c := len(X), len(X[0])
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	for i := 0; i < r; i++ {
		if len(X[i]) != c {
			return errors.New("scaler: inconsistent number of columns")
		}
		for j := 0; j < c; j++ {
			s.Mean[j] += X[i][j]
		}
	}
	for j := 0; j < c; j++ {
		s.Mean[j] /= float64(r)
		v := 0.0
		for i := 0; i < r; i++ {
			d := X[i][j] - s.Mean[j]
			v += d * d
		}
		v /= float64(r)
		s.Std[j] = math.Sqrt(v)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	s.Fitted = true
	return nil
}

// TransformRow writes the standardized row into dst, which must have the
// same length as row. An unfitted scaler copies the row through.
func (s *StandardScaler) TransformRow(row, dst []float64) {
	if !s.Fitted {
		copy(dst, row)
		return
	}
	for j, v := range row {
		dst[j] = (v - s.Mean[j]) / s.Std[j]
	}
}

// Transform standardizes every row of X.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = make([]float64, len(row))
		s.TransformRow(row, out[i])
	}
	return out
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X), nil
}

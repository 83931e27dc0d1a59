package model

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Regressor is a supervised model predicting one continuous target.
type Regressor interface {
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
}

var (
	_ Regressor = (*DecisionTreeRegressor)(nil)
	_ Regressor = (*RandomForestRegressor)(nil)
	_ Regressor = (*LinearRegression)(nil)
)

// rowsOf copies the rows of X into a nested slice.
func rowsOf(X mat.Matrix) [][]float64 {
	r, _ := X.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = mat.Row(nil, i, X)
	}
	return out
}

func checkXY(X mat.Matrix, y []float64) (int, int, error) {
	if X == nil {
		return 0, 0, errors.New("model: nil X")
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.New("model: empty X")
	}
	if len(y) != r {
		return 0, 0, errors.New("model: X and y length mismatch")
	}
	return r, c, nil
}

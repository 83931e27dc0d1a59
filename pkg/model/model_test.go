package model

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// stepData has y = 10 when x0 > 0.5 and 0 otherwise; x1 is noise.
func stepData(n int, seed int64) (*mat.Dense, []float64) {
	rnd := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x0 := rnd.Float64()
		X.Set(i, 0, x0)
		X.Set(i, 1, rnd.Float64())
		if x0 > 0.5 {
			y[i] = 10
		}
	}
	return X, y
}

func TestDecisionTree_LearnsStep(t *testing.T) {
	X, y := stepData(200, 1)
	tree := NewDecisionTreeRegressor(WithTreeRandomState(7))
	require.NoError(t, tree.Fit(X, y))

	test := mat.NewDense(2, 2, []float64{0.2, 0.9, 0.8, 0.1})
	pred, err := tree.Predict(test)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10}, pred)
	assert.Equal(t, 1, tree.Depth(), "one split separates the classes")
	assert.Equal(t, 0, tree.Root.Feature)
}

func TestDecisionTree_MaxDepthAndLeafSize(t *testing.T) {
	X, _ := stepData(100, 2)
	y := make([]float64, 100)
	for i := range y {
		y[i] = X.At(i, 0) * 100
	}
	tree := NewDecisionTreeRegressor(WithTreeMaxDepth(3), WithTreeMinSamplesLeaf(5), WithTreeRandomState(1))
	require.NoError(t, tree.Fit(X, y))
	assert.LessOrEqual(t, tree.Depth(), 3)

	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Leaf {
			assert.GreaterOrEqual(t, n.N, 5)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(tree.Root)
}

func TestDecisionTree_Errors(t *testing.T) {
	tree := NewDecisionTreeRegressor()
	_, err := tree.Predict(mat.NewDense(1, 1, nil))
	assert.Error(t, err)
	assert.Error(t, tree.Fit(mat.NewDense(2, 1, nil), []float64{1}))

	X, y := stepData(10, 3)
	require.NoError(t, tree.Fit(X, y))
	_, err = tree.Predict(mat.NewDense(1, 3, nil))
	assert.Error(t, err)
}

func TestRandomForest_FitsAndIsReproducible(t *testing.T) {
	X, y := stepData(300, 4)
	fit := func() []float64 {
		rf := NewRandomForestRegressor(WithNEstimators(20), WithRandomState(42), WithMaxFeatures(1))
		require.NoError(t, rf.Fit(X, y))
		require.Len(t, rf.Trees, 20)
		pred, err := rf.Predict(X)
		require.NoError(t, err)
		return pred
	}
	a, b := fit(), fit()

	assert.Equal(t, a, b)
	assert.Greater(t, R2(y, a), 0.8)
}

func TestRandomForest_NoBootstrapMatchesSingleTree(t *testing.T) {
	X, y := stepData(50, 5)
	rf := NewRandomForestRegressor(WithNEstimators(3), WithBootstrap(false), WithRandomState(1))
	require.NoError(t, rf.Fit(X, y))
	pred, err := rf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred)
}

func TestRandomForest_Errors(t *testing.T) {
	rf := NewRandomForestRegressor(WithNEstimators(0))
	X, y := stepData(10, 6)
	assert.Error(t, rf.Fit(X, y))
	_, err := NewRandomForestRegressor().Predict(X)
	assert.Error(t, err)
}

func TestRandomForest_GobRoundTrip(t *testing.T) {
	X, y := stepData(80, 8)
	rf := NewRandomForestRegressor(WithNEstimators(5), WithRandomState(3))
	require.NoError(t, rf.Fit(X, y))
	want, err := rf.Predict(X)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(rf))
	var back RandomForestRegressor
	require.NoError(t, gob.NewDecoder(&buf).Decode(&back))

	got, err := back.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLinearRegression_FitsLine(t *testing.T) {
	n := 200
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i)/float64(n) - 0.5
		X.Set(i, 0, x)
		y[i] = 2*x + 1
	}
	m := NewLinearRegression(0.1, 300, 16, 1)
	require.NoError(t, m.Fit(X, y))

	assert.InDelta(t, 2, m.W[0], 0.05)
	assert.InDelta(t, 1, m.B, 0.05)
	pred, err := m.Predict(X)
	require.NoError(t, err)
	assert.Less(t, RMSE(y, pred), 0.05)
}

func TestLinearRegression_Errors(t *testing.T) {
	m := NewLinearRegression(0.1, 0, 4, 1)
	assert.Error(t, m.Fit(mat.NewDense(2, 1, []float64{1, 2}), []float64{1, 2}))
	_, err := m.Predict(mat.NewDense(1, 1, nil))
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{1, 2, 3, 6}

	m := Evaluate(yTrue, yPred)
	assert.Equal(t, 1.0, m.MSE)
	assert.Equal(t, 1.0, m.RMSE)
	assert.Equal(t, 0.5, m.MAE)
	assert.InDelta(t, 1-4/5.0, m.R2, 1e-12)
	assert.Contains(t, m.String(), "RMSE=1.000")

	assert.Equal(t, 1.0, R2(yTrue, yTrue))
	assert.Zero(t, R2([]float64{3, 3}, []float64{1, 5}))
	assert.Zero(t, MSE(nil, nil))
	assert.False(t, math.IsNaN(RMSE(nil, nil)))
}

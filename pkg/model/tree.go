package model

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
)

// DecisionTreeRegressor is a CART regression tree splitting on variance
// reduction.
type DecisionTreeRegressor struct {
	MaxDepth            int     // 0 => no limit (root depth = 0)
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	MaxFeatures         int     // 0 => all features, >0 => features sampled per split
	MinImpurityDecrease float64 // minimal SSE decrease to accept a split
	RandomState         int64

	NFeatures int
	Root      *Node
}

// Node is a tree node. Exported for gob.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x <= Threshold => Left
	Left      *Node
	Right     *Node
	N         int
	Value     float64 // mean target of the samples that reached the node
}

// TreeOption configures a DecisionTreeRegressor.
type TreeOption func(*DecisionTreeRegressor)

func WithTreeMaxDepth(d int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = d }
}
func WithTreeMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithTreeMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithTreeMaxFeatures(k int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MaxFeatures = k }
}
func WithTreeRandomState(seed int64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a tree with sensible defaults.
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		MinImpurityDecrease: 1e-12,
		RandomState:         time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit trains the tree on every row of X.
func (t *DecisionTreeRegressor) Fit(X mat.Matrix, y []float64) error {
	n, _, err := checkXY(X, y)
	if err != nil {
		return err
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.fitRows(rowsOf(X), y, idx)
}

// fitRows trains on the samples listed in idx. Repeated indices (bootstrap
// draws) are allowed.
func (t *DecisionTreeRegressor) fitRows(X [][]float64, y []float64, idx []int) error {
	if len(idx) == 0 {
		return errors.New("tree: no samples")
	}
	t.NFeatures = len(X[0])
	rnd := rand.New(rand.NewSource(t.RandomState))
	t.Root = t.buildNode(X, y, idx, 0, rnd)
	return nil
}

// Predict returns the leaf mean for each row of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if t.Root == nil {
		return nil, errors.New("tree: not trained")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, fmt.Errorf("tree: expected %d features, got %d", t.NFeatures, c)
	}
	out := make([]float64, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out[i] = t.predictRow(row)
	}
	return out, nil
}

func (t *DecisionTreeRegressor) predictRow(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type split struct {
	gain      float64
	feature   int
	threshold float64
	leftIdx   []int
	rightIdx  []int
}

type pair struct {
	v float64
	i int
}

func (t *DecisionTreeRegressor) buildNode(X [][]float64, y []float64, idx []int, depth int, rnd *rand.Rand) *Node {
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	n := float64(len(idx))
	node := &Node{N: len(idx), Value: sum / n}
	sse := sumSq - sum*sum/n

	if len(idx) < t.MinSamplesSplit || sse <= 0 || (t.MaxDepth > 0 && depth >= t.MaxDepth) {
		node.Leaf = true
		return node
	}

	p := len(X[0])
	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		for i := 0; i < p; i++ {
			j := i + rnd.Intn(p-i)
			features[i], features[j] = features[j], features[i]
		}
		features = features[:t.MaxFeatures]
	}

	results := make(chan split, len(features))
	var wg sync.WaitGroup
	for _, f := range features {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			results <- t.bestSplit(X, y, idx, f, sse)
		}(f)
	}
	wg.Wait()
	close(results)

	best := split{feature: -1}
	for r := range results {
		// ties go to the lower feature index so fits are reproducible
		if r.feature >= 0 && (r.gain > best.gain || (r.gain == best.gain && best.feature >= 0 && r.feature < best.feature)) {
			best = r
		}
	}
	if best.feature < 0 || best.gain <= t.MinImpurityDecrease {
		node.Leaf = true
		return node
	}

	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = t.buildNode(X, y, best.leftIdx, depth+1, rnd)
	node.Right = t.buildNode(X, y, best.rightIdx, depth+1, rnd)
	return node
}

// bestSplit scans the sorted values of feature f once, keeping running sums
// so each candidate threshold costs O(1).
func (t *DecisionTreeRegressor) bestSplit(X [][]float64, y []float64, idx []int, f int, parentSSE float64) split {
	res := split{feature: -1}
	ps := make([]pair, len(idx))
	for k, i := range idx {
		ps[k] = pair{X[i][f], i}
	}
	sort.Slice(ps, func(a, b int) bool { return ps[a].v < ps[b].v })

	total, totalSq := 0.0, 0.0
	for _, p := range ps {
		total += y[p.i]
		totalSq += y[p.i] * y[p.i]
	}
	n := len(ps)
	minLeaf := t.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	leftSum, leftSq := 0.0, 0.0
	bestPos := -1
	for s := 1; s < n; s++ {
		yv := y[ps[s-1].i]
		leftSum += yv
		leftSq += yv * yv
		if ps[s].v == ps[s-1].v || s < minLeaf || n-s < minLeaf {
			continue
		}
		nl, nr := float64(s), float64(n-s)
		rightSum, rightSq := total-leftSum, totalSq-leftSq
		sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
		gain := parentSSE - sse
		if gain > res.gain {
			res.gain = gain
			res.feature = f
			res.threshold = (ps[s-1].v + ps[s].v) / 2
			bestPos = s
		}
	}
	if bestPos < 0 {
		return res
	}
	res.leftIdx = make([]int, 0, bestPos)
	res.rightIdx = make([]int, 0, n-bestPos)
	for k, p := range ps {
		if k < bestPos {
			res.leftIdx = append(res.leftIdx, p.i)
		} else {
			res.rightIdx = append(res.rightIdx, p.i)
		}
	}
	return res
}

// Depth returns the depth of the deepest leaf.
func (t *DecisionTreeRegressor) Depth() int { return depth(t.Root) }

func depth(n *Node) int {
	if n == nil || n.Leaf {
		return 0
	}
	return 1 + max(depth(n.Left), depth(n.Right))
}

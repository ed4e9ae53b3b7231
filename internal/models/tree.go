package models

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Node is one node of a fitted regression tree. Leaves have Left == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// DecisionTree is a CART regression tree grown by variance reduction.
// MaxDepth 0 means unlimited.
type DecisionTree struct {
	MaxDepth        int    `json:"max_depth"`
	MinSamplesSplit int    `json:"min_samples_split"`
	MinSamplesLeaf  int    `json:"min_samples_leaf"`
	NFeatures       int    `json:"n_features"`
	Nodes           []Node `json:"nodes"`
}

func (t *DecisionTree) Name() string { return DecisionTreeName }

// Fit grows the tree on every row of X.
func (t *DecisionTree) Fit(X mat.Matrix, y []float64) error {
	r, _, err := checkXY(X, y)
	if err != nil {
		return err
	}
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	t.fit(columns(X), y, idx)
	return nil
}

// fit grows the tree on the rows in idx, which may repeat (bootstrap samples).
func (t *DecisionTree) fit(cols [][]float64, y []float64, idx []int) {
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	t.NFeatures = len(cols)
	t.Nodes = t.Nodes[:0]
	b := builder{tree: t, cols: cols, y: y}
	b.grow(append([]int(nil), idx...), 0)
}

type builder struct {
	tree *DecisionTree
	cols [][]float64
	y    []float64
}

func (b *builder) grow(idx []int, depth int) int {
	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Feature: -1, Left: -1, Right: -1, Value: b.mean(idx)})

	t := b.tree
	if len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return id
	}
	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}
	var left, right []int
	for _, i := range idx {
		if b.cols[feature][i] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	n := &b.tree.Nodes[id]
	n.Feature, n.Threshold, n.Left, n.Right = feature, threshold, l, r
	return id
}

func (b *builder) mean(idx []int) float64 {
	s := 0.0
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

// bestSplit scans every feature for the threshold that minimizes the summed
// squared error of the two children. Thresholds are midpoints between
// consecutive distinct values. Ties keep the first split found.
func (b *builder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	var total, totalSq float64
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	parentSSE := totalSq - total*total/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}
	best := parentSSE
	minLeaf := b.tree.MinSamplesLeaf
	order := make([]int, n)
	for f, col := range b.cols {
		copy(order, idx)
		sort.SliceStable(order, func(a, c int) bool { return col[order[a]] < col[order[c]] })
		var ls, lsq float64
		for k := 0; k < n-1; k++ {
			v := b.y[order[k]]
			ls += v
			lsq += v * v
			nl := k + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			x0, x1 := col[order[k]], col[order[k+1]]
			if x0 == x1 {
				continue
			}
			rs, rsq := total-ls, totalSq-lsq
			sse := (lsq - ls*ls/float64(nl)) + (rsq - rs*rs/float64(nr))
			if sse < best-1e-12 {
				best = sse
				feature = f
				threshold = x0 + (x1-x0)/2
				if threshold >= x1 {
					threshold = x0
				}
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// Predict walks each row of X to a leaf.
func (t *DecisionTree) Predict(X mat.Matrix) ([]float64, error) {
	if len(t.Nodes) == 0 {
		return nil, errors.New("decision tree: not fitted")
	}
	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, fmt.Errorf("decision tree: X has %d features, model expects %d", c, t.NFeatures)
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = t.predictRow(X, i)
	}
	return out, nil
}

func (t *DecisionTree) predictRow(X mat.Matrix, i int) float64 {
	n := t.Nodes[0]
	for n.Left >= 0 {
		if X.At(i, n.Feature) <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}

// columns copies X into column-major slices for fast split scans.
func columns(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	cols := make([][]float64, c)
	for j := range cols {
		col := make([]float64, r)
		for i := range col {
			col[i] = X.At(i, j)
		}
		cols[j] = col
	}
	return cols
}

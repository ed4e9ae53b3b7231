package models

import (
	"errors"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// RandomForest averages bootstrap-trained regression trees. Tree i draws its
// bootstrap sample from a source seeded with Seed+i, so fitting is
// reproducible regardless of scheduling.
type RandomForest struct {
	NTrees   int             `json:"n_trees"`
	MaxDepth int             `json:"max_depth"`
	Seed     int64           `json:"seed"`
	Trees    []*DecisionTree `json:"trees"`
}

func (f *RandomForest) Name() string { return RandomForestName }

// Fit grows NTrees trees in parallel.
func (f *RandomForest) Fit(X mat.Matrix, y []float64) error {
	r, _, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if f.NTrees < 1 {
		return errors.New("random forest: n_trees must be at least 1")
	}
	cols := columns(X)
	trees := make([]*DecisionTree, f.NTrees)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.Seed + int64(i)))
			idx := make([]int, r)
			for k := range idx {
				idx[k] = rng.Intn(r)
			}
			t := &DecisionTree{MaxDepth: f.MaxDepth, MinSamplesSplit: 2, MinSamplesLeaf: 1}
			t.fit(cols, y, idx)
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	f.Trees = trees
	return nil
}

// Predict averages the per-tree predictions.
func (f *RandomForest) Predict(X mat.Matrix) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("random forest: not fitted")
	}
	r, _ := X.Dims()
	out := make([]float64, r)
	for _, t := range f.Trees {
		p, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i, v := range p {
			out[i] += v
		}
	}
	n := float64(len(f.Trees))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}

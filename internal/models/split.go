package models

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
)

// RMSE is the root-mean-squared error between y and pred.
func RMSE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	return floats.Distance(y, pred, 2) / math.Sqrt(float64(len(y)))
}

// TrainTestSplit shuffles 0..n-1 with a fixed seed and holds out
// ceil(testSize*n) rows. Both sides must be non-empty.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, apperrors.Config("test_size", "must be in (0,1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if n < 2 || nTest >= n {
		return nil, nil, &apperrors.InsufficientDataError{Samples: n, Reason: "train/validation split needs at least one row on each side"}
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Fold is one cross-validation partition.
type Fold struct {
	Train []int
	Test  []int
}

// KFold partitions 0..n-1 into k contiguous, unshuffled folds. The first
// n%k folds hold one extra row.
func KFold(n, k int) ([]Fold, error) {
	if k < 2 || k > n {
		return nil, &apperrors.InsufficientDataError{Samples: n, Folds: k}
	}
	folds := make([]Fold, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		fold := Fold{Test: make([]int, 0, size), Train: make([]int, 0, n-size)}
		for i := 0; i < n; i++ {
			if i >= start && i < start+size {
				fold.Test = append(fold.Test, i)
			} else {
				fold.Train = append(fold.Train, i)
			}
		}
		folds = append(folds, fold)
		start += size
	}
	return folds, nil
}

// Rows copies the given rows of X into a new matrix.
func Rows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, src := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(src, j))
		}
	}
	return out
}

// Values selects y at idx.
func Values(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, src := range idx {
		out[i] = y[src]
	}
	return out
}

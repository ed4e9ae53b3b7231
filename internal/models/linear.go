package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const rankTol = 1e-10

// LinearRegression is ordinary least squares with an intercept. Rank-deficient
// designs (e.g. a full one-hot block) get the minimum-norm solution.
type LinearRegression struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (m *LinearRegression) Name() string { return LinearRegressionName }

// Fit centers X and y and solves the centered problem through a thin SVD.
func (m *LinearRegression) Fit(X mat.Matrix, y []float64) error {
	r, c, err := checkXY(X, y)
	if err != nil {
		return err
	}
	xmean := make([]float64, c)
	for j := 0; j < c; j++ {
		s := 0.0
		for i := 0; i < r; i++ {
			s += X.At(i, j)
		}
		xmean[j] = s / float64(r)
	}
	ymean := 0.0
	for _, v := range y {
		ymean += v
	}
	ymean /= float64(r)

	m.Coef = make([]float64, c)
	m.Intercept = ymean
	if c == 0 {
		return nil
	}

	xc := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			xc.Set(i, j, X.At(i, j)-xmean[j])
		}
	}
	yc := mat.NewVecDense(r, nil)
	for i, v := range y {
		yc.SetVec(i, v-ymean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.New("linear regression: SVD factorization failed")
	}
	rank := svd.Rank(rankTol)
	if rank == 0 {
		return nil
	}
	var beta mat.VecDense
	svd.SolveVecTo(&beta, yc, rank)
	for j := 0; j < c; j++ {
		m.Coef[j] = beta.AtVec(j)
		m.Intercept -= m.Coef[j] * xmean[j]
	}
	return nil
}

// Predict returns X·coef + intercept.
func (m *LinearRegression) Predict(X mat.Matrix) ([]float64, error) {
	r, c := X.Dims()
	if c != len(m.Coef) {
		return nil, fmt.Errorf("linear regression: X has %d features, model expects %d", c, len(m.Coef))
	}
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		s := m.Intercept
		for j := 0; j < c; j++ {
			s += X.At(i, j) * m.Coef[j]
		}
		out[i] = s
	}
	return out, nil
}

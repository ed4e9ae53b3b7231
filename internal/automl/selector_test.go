package automl

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/models"
)

func testSelector(t *testing.T) (*Selector, artifacts.Layout) {
	t.Helper()
	dir := t.TempDir()
	layout := artifacts.NewLayout(filepath.Join(dir, "reports"), filepath.Join(dir, "artifacts"))
	opts := DefaultOptions()
	opts.Params.Trees = 10
	return NewSelector(layout, opts, nil), layout
}

func series(n int, f func(x float64) float64) (*mat.Dense, []float64) {
	X := mat.NewDense(n, 1, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i)
		X.Set(i, 0, x)
		y[i] = f(x)
	}
	return X, y
}

func TestSelectorPrefersLinearOnLinearData(t *testing.T) {
	s, layout := testSelector(t)
	X, y := series(30, func(x float64) float64 { return 2*x + 1 })
	rep, best, err := s.Run(X, y)
	require.NoError(t, err)
	assert.Equal(t, models.LinearRegressionName, rep.BestModel)
	assert.Equal(t, models.LinearRegressionName, best.Name())
	assert.Equal(t, []string{models.LinearRegressionName, models.RandomForestName}, rep.Candidates)
	assert.Equal(t, 24, rep.TrainRows)
	assert.Equal(t, 6, rep.TestRows)
	assert.InDelta(t, 0, rep.Results[models.LinearRegressionName].RMSE, 1e-9)

	var onDisk TrainingReport
	require.NoError(t, artifacts.ReadJSON(layout.TrainingReport(), &onDisk))
	assert.Equal(t, rep.BestModel, onDisk.BestModel)
	reg, _, err := models.Load(layout.Model())
	require.NoError(t, err)
	assert.Equal(t, models.LinearRegressionName, reg.Name())
}

func TestSelectorPrefersForestOnCurvedData(t *testing.T) {
	s, _ := testSelector(t)
	X, y := series(40, func(x float64) float64 { return (x - 20) * (x - 20) })
	rep, _, err := s.Run(X, y)
	require.NoError(t, err)
	assert.Equal(t, models.RandomForestName, rep.BestModel)
	assert.Less(t, rep.Results[models.RandomForestName].RMSE, rep.Results[models.LinearRegressionName].RMSE)
}

func TestSelectorTieKeepsFirstCandidate(t *testing.T) {
	s, _ := testSelector(t)
	X, y := series(10, func(float64) float64 { return 7 })
	rep, _, err := s.Run(X, y)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.Results[models.LinearRegressionName].RMSE)
	assert.Equal(t, 0.0, rep.Results[models.RandomForestName].RMSE)
	assert.Equal(t, models.LinearRegressionName, rep.BestModel)
}

func TestSelectorInsufficientData(t *testing.T) {
	s, _ := testSelector(t)
	X, y := series(1, func(x float64) float64 { return x })
	_, _, err := s.Run(X, y)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientData))
}

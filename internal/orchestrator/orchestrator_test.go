package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/automl"
	"github.com/KaramelBytes/automl-cli/internal/cleaning"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
)

func writeHousing(t *testing.T, dir string) string {
	t.Helper()
	cities := []string{"Austin", "Boston", " boston "}
	var b strings.Builder
	b.WriteString("id,sqft,city,price\n")
	for i := 0; i < 40; i++ {
		sqft := 500 + 25*(i%15)
		price := float64(sqft)*0.2 + float64(10*(i%3))
		fmt.Fprintf(&b, "%d,%d,%s,%g\n", i+1, sqft, cities[i%3], price)
	}
	path := filepath.Join(dir, "housing.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func request(dir, data, target string) Request {
	sel := automl.DefaultOptions()
	sel.Params.Trees = 5
	return Request{
		DataPath:    data,
		CleanedPath: filepath.Join(dir, "processed", "cleaned.csv"),
		Target:      target,
		Layout:      artifacts.NewLayout(filepath.Join(dir, "reports"), filepath.Join(dir, "artifacts")),
		Load:        dataset.DefaultLoadOptions(),
		Cleaning:    cleaning.DefaultOptions(),
		Selection:   sel,
		Folds:       5,
	}
}

func states(h []artifacts.Transition) []string {
	out := make([]string, len(h))
	for i, t := range h {
		out[i] = t.State
	}
	return out
}

func TestRunFullPipeline(t *testing.T) {
	dir := t.TempDir()
	req := request(dir, writeHousing(t, dir), "price")
	o := New(nil)
	assert.Equal(t, Idle, o.State())

	res, err := o.Run(req)
	require.NoError(t, err)
	assert.Equal(t, Done, o.State())
	assert.Equal(t, []string{"cleaning", "feature_engineering", "training", "evaluating", "done"}, states(o.History()))

	assert.Equal(t, []string{"id"}, res.Cleaning.IDLikeRemoved)
	assert.Equal(t, []string{"sqft", "city", "price"}, res.Cleaning.FinalColumns)
	assert.Equal(t, []string{"sqft", "city_austin", "city_boston"}, res.Features.FeatureNames)
	assert.Equal(t, [2]int{40, 3}, res.Features.OutputShape)
	assert.Contains(t, []string{"LinearRegression", "RandomForest"}, res.Training.BestModel)
	assert.Equal(t, 5, res.Evaluation.CVFolds)
	assert.Equal(t, 40, res.Evaluation.NSamples)

	for _, p := range []string{
		req.CleanedPath,
		req.Layout.CleaningReport(),
		req.Layout.FeaturePipeline(),
		req.Layout.FeatureMetadata(),
		req.Layout.Model(),
		req.Layout.TrainingReport(),
		req.Layout.EvaluationReport(),
	} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	man, err := artifacts.LoadManifest(req.Layout.Manifest())
	require.NoError(t, err)
	assert.Equal(t, res.RunID, man.RunID)
	assert.Equal(t, "done", man.State)
	assert.Len(t, man.Transitions, 5)
	assert.Contains(t, man.Files, req.Layout.EvaluationReport())
}

func TestRunMissingTargetFailsInFeatureEngineering(t *testing.T) {
	dir := t.TempDir()
	req := request(dir, writeHousing(t, dir), "rent")
	o := New(nil)
	_, err := o.Run(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
	var cfgErr *apperrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "target_column", cfgErr.Key)

	assert.Equal(t, Failed, o.State())
	assert.Equal(t, []string{"cleaning", "feature_engineering", "failed"}, states(o.History()))
	_, statErr := os.Stat(req.Layout.Model())
	assert.True(t, os.IsNotExist(statErr))

	man, err := artifacts.LoadManifest(req.Layout.Manifest())
	require.NoError(t, err)
	assert.Equal(t, "failed", man.State)
	assert.Equal(t, err.Error(), man.Transitions[len(man.Transitions)-1].Error)
}

func TestRunValidationErrorStopsAtCleaning(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(data, []byte("a,b,price\n1,,3\n2,,4\n"), 0o644))
	o := New(nil)
	_, err := o.Run(request(dir, data, "price"))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Equal(t, []string{"cleaning", "failed"}, states(o.History()))
}

func TestRunRejectsBadRequest(t *testing.T) {
	dir := t.TempDir()
	o := New(nil)
	req := request(dir, writeHousing(t, dir), "")
	_, err := o.Run(req)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))

	req = request(dir, writeHousing(t, dir), "price")
	req.Folds = 1
	_, err = o.Run(req)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
	assert.Equal(t, Idle, o.State())
}

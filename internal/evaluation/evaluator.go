// Package evaluation re-scores the persisted model with k-fold cross-validation.
package evaluation

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/logging"
	"github.com/KaramelBytes/automl-cli/internal/models"
)

// Report is written to evaluation_report.json.
type Report struct {
	Model     string    `json:"model"`
	Metric    string    `json:"metric"`
	CVFolds   int       `json:"cv_folds"`
	NSamples  int       `json:"n_samples"`
	MeanRMSE  float64   `json:"mean_rmse"`
	StdRMSE   float64   `json:"std_rmse"`
	AllScores []float64 `json:"all_scores"`
}

// Evaluator cross-validates the model saved by model selection.
type Evaluator struct {
	layout artifacts.Layout
	logger *zap.Logger
}

// NewEvaluator creates an Evaluator reading and writing under layout.
func NewEvaluator(layout artifacts.Layout, logger *zap.Logger) *Evaluator {
	return &Evaluator{layout: layout, logger: logging.OrNop(logger).Named("evaluation")}
}

// Run loads the persisted model and cross-validates a fresh copy of it.
// The fold count is reduced to at most the sample count; fewer than two
// usable folds is an InsufficientDataError.
func (e *Evaluator) Run(X mat.Matrix, y []float64, folds int) (*Report, error) {
	n, _ := X.Dims()
	if n != len(y) {
		return nil, apperrors.Validation("evaluation", "X has %d rows but y has %d values", n, len(y))
	}
	effective := folds
	if effective > n {
		effective = n
	}
	if effective < 2 {
		return nil, &apperrors.InsufficientDataError{Samples: n, Folds: effective}
	}
	if effective != folds {
		e.logger.Warn("reducing fold count to sample count", zap.Int("requested", folds), zap.Int("effective", effective))
	}

	saved, params, err := models.Load(e.layout.Model())
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	parts, err := models.KFold(n, effective)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(parts))
	var g errgroup.Group
	for i, f := range parts {
		i, f := i, f
		g.Go(func() error {
			reg, err := models.New(saved.Name(), params)
			if err != nil {
				return err
			}
			if err := reg.Fit(models.Rows(X, f.Train), models.Values(y, f.Train)); err != nil {
				return fmt.Errorf("fold %d: %w", i+1, err)
			}
			pred, err := reg.Predict(models.Rows(X, f.Test))
			if err != nil {
				return fmt.Errorf("fold %d: %w", i+1, err)
			}
			scores[i] = models.RMSE(models.Values(y, f.Test), pred)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mean, std := stat.PopMeanStdDev(scores, nil)
	rep := &Report{
		Model:     saved.Name(),
		Metric:    "rmse",
		CVFolds:   effective,
		NSamples:  n,
		MeanRMSE:  mean,
		StdRMSE:   std,
		AllScores: scores,
	}
	if err := artifacts.WriteJSON(e.layout.EvaluationReport(), rep); err != nil {
		return nil, fmt.Errorf("save evaluation report: %w", err)
	}
	e.logger.Info("cross-validation finished",
		zap.String("model", rep.Model),
		zap.Int("folds", effective),
		zap.Float64("mean_rmse", mean),
		zap.Float64("std_rmse", std))
	return rep, nil
}

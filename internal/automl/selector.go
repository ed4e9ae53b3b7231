// Package automl fits the candidate regressors on a fixed train/validation
// split and keeps the one with the lowest validation RMSE.
package automl

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/logging"
	"github.com/KaramelBytes/automl-cli/internal/models"
)

// Options controls the split and the candidate models.
type Options struct {
	TestSize float64
	Params   models.Params
}

// DefaultOptions holds out 20% with the default model params.
func DefaultOptions() Options {
	return Options{TestSize: 0.2, Params: models.DefaultParams()}
}

// Score is one candidate's validation result.
type Score struct {
	RMSE float64 `json:"rmse"`
}

// TrainingReport is written to training_report.json.
type TrainingReport struct {
	TaskType   string           `json:"task_type"`
	Metric     string           `json:"metric"`
	TrainRows  int              `json:"train_rows"`
	TestRows   int              `json:"validation_rows"`
	Candidates []string         `json:"candidates"`
	Results    map[string]Score `json:"results"`
	BestModel  string           `json:"best_model"`
	BestRMSE   float64          `json:"best_rmse"`
}

// Selector runs model selection.
type Selector struct {
	layout artifacts.Layout
	opts   Options
	logger *zap.Logger
}

// NewSelector creates a Selector persisting under layout.
func NewSelector(layout artifacts.Layout, opts Options, logger *zap.Logger) *Selector {
	return &Selector{layout: layout, opts: opts, logger: logging.OrNop(logger).Named("automl")}
}

// Run fits every candidate on the training rows and scores it on the
// validation rows. On equal RMSE the earlier candidate wins. The best model
// and the report are persisted before returning.
func (s *Selector) Run(X mat.Matrix, y []float64) (*TrainingReport, models.Regressor, error) {
	n, _ := X.Dims()
	if n != len(y) {
		return nil, nil, apperrors.Validation("automl", "X has %d rows but y has %d values", n, len(y))
	}
	if n < 2 {
		return nil, nil, &apperrors.InsufficientDataError{Samples: n, Reason: "model selection needs at least 2 samples"}
	}
	trainIdx, testIdx, err := models.TrainTestSplit(n, s.opts.TestSize, s.opts.Params.Seed)
	if err != nil {
		return nil, nil, err
	}
	Xtr, ytr := models.Rows(X, trainIdx), models.Values(y, trainIdx)
	Xte, yte := models.Rows(X, testIdx), models.Values(y, testIdx)

	candidates, err := models.Candidates(s.opts.Params)
	if err != nil {
		return nil, nil, err
	}
	rep := &TrainingReport{
		TaskType:  "regression",
		Metric:    "rmse",
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Results:   make(map[string]Score, len(candidates)),
	}
	var best models.Regressor
	for _, reg := range candidates {
		rep.Candidates = append(rep.Candidates, reg.Name())
		if err := reg.Fit(Xtr, ytr); err != nil {
			return nil, nil, fmt.Errorf("fit %s: %w", reg.Name(), err)
		}
		pred, err := reg.Predict(Xte)
		if err != nil {
			return nil, nil, fmt.Errorf("predict %s: %w", reg.Name(), err)
		}
		rmse := models.RMSE(yte, pred)
		rep.Results[reg.Name()] = Score{RMSE: rmse}
		s.logger.Info("candidate scored", zap.String("model", reg.Name()), zap.Float64("rmse", rmse))
		if best == nil || rmse < rep.BestRMSE {
			best = reg
			rep.BestModel = reg.Name()
			rep.BestRMSE = rmse
		}
	}

	if err := models.Save(s.layout.Model(), best, s.opts.Params); err != nil {
		return nil, nil, fmt.Errorf("save model: %w", err)
	}
	if err := artifacts.WriteJSON(s.layout.TrainingReport(), rep); err != nil {
		return nil, nil, fmt.Errorf("save training report: %w", err)
	}
	s.logger.Info("best model selected", zap.String("model", rep.BestModel), zap.Float64("rmse", rep.BestRMSE))
	return rep, best, nil
}

// Package orchestrator sequences cleaning, feature engineering, model
// selection and evaluation as a linear state machine.
package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/automl"
	"github.com/KaramelBytes/automl-cli/internal/cleaning"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
	"github.com/KaramelBytes/automl-cli/internal/evaluation"
	"github.com/KaramelBytes/automl-cli/internal/features"
	"github.com/KaramelBytes/automl-cli/internal/logging"
)

// State is a pipeline stage.
type State string

const (
	Idle               State = "idle"
	Cleaning           State = "cleaning"
	FeatureEngineering State = "feature_engineering"
	Training           State = "training"
	Evaluating         State = "evaluating"
	Done               State = "done"
	Failed             State = "failed"
)

// Request describes one pipeline run.
type Request struct {
	DataPath    string
	CleanedPath string
	Target      string
	Layout      artifacts.Layout
	Load        dataset.LoadOptions
	Cleaning    cleaning.Options
	Selection   automl.Options
	Folds       int
}

// Result aggregates the reports of every stage.
type Result struct {
	RunID      string
	Cleaning   *cleaning.Report
	Features   features.Metadata
	Training   *automl.TrainingReport
	Evaluation *evaluation.Report
	Manifest   string
}

// Orchestrator runs the pipeline. It is not safe for concurrent Run calls.
type Orchestrator struct {
	logger *zap.Logger

	mu      sync.Mutex
	state   State
	history []artifacts.Transition
}

// New creates an idle Orchestrator.
func New(logger *zap.Logger) *Orchestrator {
	return &Orchestrator{logger: logging.OrNop(logger).Named("orchestrator"), state: Idle}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// History returns the transitions of the latest run.
func (o *Orchestrator) History() []artifacts.Transition {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]artifacts.Transition(nil), o.history...)
}

// Run executes every stage in order. The first failing stage moves the
// orchestrator to Failed and its error is returned unchanged.
func (o *Orchestrator) Run(req Request) (*Result, error) {
	if req.Target == "" {
		return nil, apperrors.Config("target_column", "not set")
	}
	if req.DataPath == "" {
		return nil, apperrors.Config("data_path", "not set")
	}
	if req.Folds < 2 {
		return nil, apperrors.Config("cv_folds", "must be at least 2, got %d", req.Folds)
	}
	o.mu.Lock()
	o.state = Idle
	o.history = nil
	o.mu.Unlock()

	man := artifacts.NewManifest(req.Layout.Manifest(), req.DataPath, req.Target)
	res := &Result{RunID: man.RunID, Manifest: req.Layout.Manifest()}
	log := o.logger.With(zap.String("run_id", man.RunID))

	fail := func(err error) (*Result, error) {
		o.transition(man, log, Failed, err)
		if serr := man.Save(); serr != nil {
			log.Warn("could not write run manifest", zap.Error(serr))
		}
		return nil, err
	}

	// Cleaning
	o.transition(man, log, Cleaning, nil)
	copts := req.Cleaning
	copts.ProtectedColumns = append(append([]string(nil), copts.ProtectedColumns...), req.Target)
	raw, err := dataset.Load(req.DataPath, req.Load)
	if err != nil {
		return fail(err)
	}
	cleaned, crep, err := cleaning.NewCleaner(o.logger).Run(raw, copts)
	if err != nil {
		return fail(err)
	}
	if req.CleanedPath != "" {
		if err := dataset.WriteCSV(req.CleanedPath, cleaned); err != nil {
			return fail(fmt.Errorf("write cleaned data: %w", err))
		}
		man.AddFile(req.CleanedPath)
	}
	if err := crep.Save(req.Layout.CleaningReport()); err != nil {
		return fail(fmt.Errorf("write cleaning report: %w", err))
	}
	if err := artifacts.SafeWriteFile(req.Layout.CleaningMarkdown(), []byte(crep.Markdown())); err != nil {
		return fail(fmt.Errorf("write cleaning summary: %w", err))
	}
	man.AddFile(req.Layout.CleaningReport())
	man.AddFile(req.Layout.CleaningMarkdown())
	res.Cleaning = crep

	// Feature engineering
	o.transition(man, log, FeatureEngineering, nil)
	fres, err := features.NewEngineer(req.Layout, o.logger).Run(cleaned, req.Target)
	if err != nil {
		return fail(err)
	}
	man.AddFile(req.Layout.FeaturePipeline())
	man.AddFile(req.Layout.FeatureMetadata())
	res.Features = fres.Metadata

	// Training
	o.transition(man, log, Training, nil)
	trep, _, err := automl.NewSelector(req.Layout, req.Selection, o.logger).Run(fres.X, fres.Y)
	if err != nil {
		return fail(err)
	}
	man.AddFile(req.Layout.Model())
	man.AddFile(req.Layout.TrainingReport())
	res.Training = trep

	// Evaluation
	o.transition(man, log, Evaluating, nil)
	erep, err := evaluation.NewEvaluator(req.Layout, o.logger).Run(fres.X, fres.Y, req.Folds)
	if err != nil {
		return fail(err)
	}
	man.AddFile(req.Layout.EvaluationReport())
	res.Evaluation = erep

	o.transition(man, log, Done, nil)
	if err := man.Save(); err != nil {
		return nil, fmt.Errorf("write run manifest: %w", err)
	}
	return res, nil
}

func (o *Orchestrator) transition(man *artifacts.Manifest, log *zap.Logger, to State, cause error) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.history = append(o.history, artifacts.Transition{State: string(to), At: time.Now()})
	if cause != nil {
		o.history[len(o.history)-1].Error = cause.Error()
	}
	o.mu.Unlock()

	man.Record(string(to), cause)
	if cause != nil {
		log.Error("pipeline failed", zap.String("from", string(from)), zap.Error(cause))
		return
	}
	log.Info("state transition", zap.String("from", string(from)), zap.String("to", string(to)))
}

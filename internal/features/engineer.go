package features

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
	"github.com/KaramelBytes/automl-cli/internal/logging"
)

// Metadata is written next to the fitted transformer.
type Metadata struct {
	CategoricalColumns []string `json:"categorical_columns"`
	NumericalColumns   []string `json:"numerical_columns"`
	TargetColumn       string   `json:"target_column"`
	OutputShape        [2]int   `json:"output_shape"`
	FeatureNames       []string `json:"feature_names"`
}

// Result is the output of Engineer.Run.
type Result struct {
	X           *mat.Dense
	Y           []float64
	Transformer *Transformer
	Metadata    Metadata
}

// SplitTarget separates the target column from the features. The target
// must exist, be numeric and contain no nulls.
func SplitTarget(t *dataset.Table, target string) (*dataset.Table, []float64, error) {
	if target == "" {
		return nil, nil, apperrors.Config("target_column", "not set")
	}
	col, ok := t.Column(target)
	if !ok {
		return nil, nil, apperrors.Config("target_column", "column %q not found (have: %v)", target, t.Names())
	}
	if col.Kind != dataset.Numeric {
		col = col.Clone()
		if err := col.ToNumeric(); err != nil {
			return nil, nil, &apperrors.ValidationError{Op: "features.split", Reason: "target must be numeric", Err: err}
		}
	}
	if n := col.NullCount(); n > 0 {
		return nil, nil, apperrors.Validation("features.split", "target %q has %d null value(s)", target, n)
	}
	X := t.Clone()
	X.Drop(target)
	if X.Cols() == 0 {
		return nil, nil, apperrors.Validation("features.split", "no feature columns besides target %q", target)
	}
	y := append([]float64(nil), col.Nums...)
	return X, y, nil
}

// Engineer fits the feature pipeline and persists it.
type Engineer struct {
	layout artifacts.Layout
	logger *zap.Logger
}

// NewEngineer creates an Engineer writing under layout.
func NewEngineer(layout artifacts.Layout, logger *zap.Logger) *Engineer {
	return &Engineer{layout: layout, logger: logging.OrNop(logger).Named("features")}
}

// Run splits off target, fits and applies the transformer, then writes
// pipeline.json and metadata.json.
func (e *Engineer) Run(t *dataset.Table, target string) (*Result, error) {
	X, y, err := SplitTarget(t, target)
	if err != nil {
		return nil, err
	}
	tr := &Transformer{}
	Xt, err := tr.FitTransform(X)
	if err != nil {
		return nil, err
	}
	rows, cols := Xt.Dims()
	meta := Metadata{
		CategoricalColumns: nonNil(X.NamesOfKind(dataset.Categorical)),
		NumericalColumns:   nonNil(X.NamesOfKind(dataset.Numeric)),
		TargetColumn:       target,
		OutputShape:        [2]int{rows, cols},
		FeatureNames:       tr.FeatureNames(),
	}
	if err := tr.Save(e.layout.FeaturePipeline()); err != nil {
		return nil, fmt.Errorf("save feature pipeline: %w", err)
	}
	if err := artifacts.WriteJSON(e.layout.FeatureMetadata(), meta); err != nil {
		return nil, fmt.Errorf("save feature metadata: %w", err)
	}
	e.logger.Info("features engineered",
		zap.Int("rows", rows),
		zap.Int("features", cols),
		zap.Strings("numerical", meta.NumericalColumns),
		zap.Strings("categorical", meta.CategoricalColumns))
	return &Result{X: Xt, Y: y, Transformer: tr, Metadata: meta}, nil
}

// Load re-applies the persisted pipeline to t, returning X and y for the same target.
func (e *Engineer) Load(t *dataset.Table, target string) (*Result, error) {
	tr, err := LoadTransformer(e.layout.FeaturePipeline())
	if err != nil {
		return nil, err
	}
	X, y, err := SplitTarget(t, target)
	if err != nil {
		return nil, err
	}
	Xt, err := tr.Transform(X)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := artifacts.ReadJSON(e.layout.FeatureMetadata(), &meta); err != nil {
		return nil, err
	}
	return &Result{X: Xt, Y: y, Transformer: tr, Metadata: meta}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

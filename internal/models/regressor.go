// Package models implements the candidate regressors, data splitting and
// scoring used by model selection and cross-validation.
package models

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
)

// Model names.
const (
	LinearRegressionName = "LinearRegression"
	RandomForestName     = "RandomForest"
	DecisionTreeName     = "DecisionTree"
)

// Regressor is a model fitted on a feature matrix and a numeric target.
type Regressor interface {
	Name() string
	Fit(X mat.Matrix, y []float64) error
	Predict(X mat.Matrix) ([]float64, error)
}

// Params configures model construction.
type Params struct {
	Trees    int   `json:"trees" validate:"gte=1"`
	MaxDepth int   `json:"max_depth" validate:"gte=0"`
	Seed     int64 `json:"seed"`
}

// DefaultParams returns 100 trees, unlimited depth and seed 42.
func DefaultParams() Params {
	return Params{Trees: 100, MaxDepth: 0, Seed: 42}
}

var validate = validator.New()

// Validate reports invalid parameters as a *apperrors.ConfigError.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &apperrors.ConfigError{Key: verrs[0].Field(), Reason: "must satisfy " + verrs[0].Tag() + "=" + verrs[0].Param(), Err: err}
		}
		return &apperrors.ConfigError{Reason: "invalid model params", Err: err}
	}
	return nil
}

type constructor func(Params) Regressor

var registry = map[string]constructor{
	LinearRegressionName: func(Params) Regressor { return &LinearRegression{} },
	DecisionTreeName: func(p Params) Regressor {
		return &DecisionTree{MaxDepth: p.MaxDepth, MinSamplesSplit: 2, MinSamplesLeaf: 1}
	},
	RandomForestName: func(p Params) Regressor {
		return &RandomForest{NTrees: p.Trees, MaxDepth: p.MaxDepth, Seed: p.Seed}
	},
}

// New returns an unfitted regressor by name.
func New(name string, p Params) (Regressor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	ctor, ok := registry[name]
	if !ok {
		return nil, apperrors.Config("model", "unknown model %q (available: %v)", name, Names())
	}
	return ctor(p), nil
}

// Names lists every registered model, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Candidates returns the fixed candidate set in declaration order.
func Candidates(p Params) ([]Regressor, error) {
	var out []Regressor
	for _, name := range []string{LinearRegressionName, RandomForestName} {
		r, err := New(name, p)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func checkXY(X mat.Matrix, y []float64) (int, int, error) {
	r, c := X.Dims()
	if r != len(y) {
		return 0, 0, fmt.Errorf("X has %d rows but y has %d values", r, len(y))
	}
	if r == 0 {
		return 0, 0, &apperrors.InsufficientDataError{Samples: 0, Reason: "cannot fit on zero samples"}
	}
	return r, c, nil
}

// Package features turns a cleaned table into a numeric design matrix:
// standard-scaled numeric columns followed by one-hot indicators.
package features

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
)

// Scaler holds the fitted centering and scaling of one numeric column.
type Scaler struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
}

// Encoder holds the sorted categories seen for one categorical column.
type Encoder struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

// Transformer is the fitted feature pipeline. The zero value is unfitted.
type Transformer struct {
	Scalers  []Scaler  `json:"scalers"`
	Encoders []Encoder `json:"encoders"`
	Fitted   bool      `json:"fitted"`
}

// Fit learns scaling parameters and category sets from X. Scale is the
// population standard deviation, or 1 for a zero-variance column.
func (tr *Transformer) Fit(X *dataset.Table) error {
	if X == nil || X.Rows() == 0 {
		return apperrors.Validation("features.fit", "no rows to fit on")
	}
	tr.Scalers = tr.Scalers[:0]
	tr.Encoders = tr.Encoders[:0]
	for _, c := range X.Columns {
		switch c.Kind {
		case dataset.Numeric:
			vals := c.NonNullFloats()
			if len(vals) == 0 {
				return apperrors.Validation("features.fit", "column %q has no values", c.Name)
			}
			mean, std := stat.PopMeanStdDev(vals, nil)
			if std == 0 {
				std = 1
			}
			tr.Scalers = append(tr.Scalers, Scaler{Column: c.Name, Mean: mean, Scale: std})
		case dataset.Categorical:
			seen := map[string]struct{}{}
			cats := []string{}
			for _, s := range c.NonNullStrings() {
				if _, ok := seen[s]; !ok {
					seen[s] = struct{}{}
					cats = append(cats, s)
				}
			}
			sort.Strings(cats)
			tr.Encoders = append(tr.Encoders, Encoder{Column: c.Name, Categories: cats})
		}
	}
	tr.Fitted = true
	return nil
}

// Width is the number of output features.
func (tr *Transformer) Width() int {
	w := len(tr.Scalers)
	for _, e := range tr.Encoders {
		w += len(e.Categories)
	}
	return w
}

// FeatureNames lists output columns: numeric names, then <column>_<category>.
func (tr *Transformer) FeatureNames() []string {
	out := make([]string, 0, tr.Width())
	for _, s := range tr.Scalers {
		out = append(out, s.Column)
	}
	for _, e := range tr.Encoders {
		for _, cat := range e.Categories {
			out = append(out, e.Column+"_"+cat)
		}
	}
	return out
}

// Transform applies the fitted pipeline. Columns are looked up by name, so
// extra input columns are ignored. Unseen categories and null cells encode as
// zeros (the scaled mean for numeric columns).
func (tr *Transformer) Transform(X *dataset.Table) (*mat.Dense, error) {
	if !tr.Fitted {
		return nil, apperrors.Config("features", "transformer is not fitted")
	}
	if X == nil || X.Rows() == 0 {
		return nil, apperrors.Validation("features.transform", "no rows to transform")
	}
	if tr.Width() == 0 {
		return nil, apperrors.Validation("features.transform", "no feature columns")
	}
	rows := X.Rows()
	out := mat.NewDense(rows, tr.Width(), nil)
	j := 0
	for _, s := range tr.Scalers {
		c, ok := X.Column(s.Column)
		if !ok {
			return nil, apperrors.Config(s.Column, "feature column missing from input")
		}
		if c.Kind != dataset.Numeric {
			c = c.Clone()
			if err := c.ToNumeric(); err != nil {
				return nil, &apperrors.ValidationError{Op: "features.transform", Reason: "numeric column expected", Err: err}
			}
		}
		for i := 0; i < rows; i++ {
			if c.Null[i] {
				continue
			}
			out.Set(i, j, (c.Nums[i]-s.Mean)/s.Scale)
		}
		j++
	}
	for _, e := range tr.Encoders {
		c, ok := X.Column(e.Column)
		if !ok {
			return nil, apperrors.Config(e.Column, "feature column missing from input")
		}
		idx := make(map[string]int, len(e.Categories))
		for k, cat := range e.Categories {
			idx[cat] = k
		}
		for i := 0; i < rows; i++ {
			if c.Null[i] {
				continue
			}
			if k, ok := idx[c.String(i)]; ok {
				out.Set(i, j+k, 1)
			}
		}
		j += len(e.Categories)
	}
	return out, nil
}

// FitTransform fits on X and transforms it.
func (tr *Transformer) FitTransform(X *dataset.Table) (*mat.Dense, error) {
	if err := tr.Fit(X); err != nil {
		return nil, err
	}
	return tr.Transform(X)
}

// Save persists the fitted transformer as JSON.
func (tr *Transformer) Save(path string) error {
	return artifacts.WriteJSON(path, tr)
}

// LoadTransformer reads a transformer written by Save.
func LoadTransformer(path string) (*Transformer, error) {
	var tr Transformer
	if err := artifacts.ReadJSON(path, &tr); err != nil {
		return nil, err
	}
	if !tr.Fitted {
		return nil, apperrors.Config("features", "%s holds an unfitted transformer", path)
	}
	return &tr, nil
}

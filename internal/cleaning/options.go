package cleaning

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
)

// Options controls the cleaning transform.
type Options struct {
	// MaxMissingRatio drops columns whose null fraction exceeds it.
	MaxMissingRatio float64 `json:"max_missing_ratio" validate:"gte=0,lte=1"`
	// MaxUniqueRatio drops identifier-like columns whose distinct fraction exceeds it.
	MaxUniqueRatio float64 `json:"max_unique_ratio" validate:"gte=0,lte=1"`
	// OutlierIQRMultiplier scales the IQR envelope used for capping.
	OutlierIQRMultiplier float64 `json:"outlier_iqr_multiplier" validate:"gte=0"`
	// ProtectedColumns are never dropped (e.g. the regression target).
	ProtectedColumns []string `json:"protected_columns"`
	// Type overrides applied before any stage runs.
	NumericColumns     []string `json:"numeric_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
}

// DefaultOptions returns the standard cleaning thresholds.
func DefaultOptions() Options {
	return Options{
		MaxMissingRatio:      0.4,
		MaxUniqueRatio:       0.95,
		OutlierIQRMultiplier: 1.5,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports the first out-of-range option as a *apperrors.ConfigError.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &apperrors.ConfigError{
			Key:    fe.Field(),
			Reason: "must satisfy " + fe.Tag() + "=" + fe.Param(),
			Err:    err,
		}
	}
	return &apperrors.ConfigError{Reason: "invalid cleaning options", Err: err}
}

func (o Options) protected(name string) bool {
	for _, p := range o.ProtectedColumns {
		if p == name {
			return true
		}
	}
	return false
}

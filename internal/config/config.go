package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/automl"
	"github.com/KaramelBytes/automl-cli/internal/cleaning"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
	"github.com/KaramelBytes/automl-cli/internal/models"
)

// Global configuration structure.
type Global struct {
	DataPath     string `mapstructure:"data_path" yaml:"data_path" validate:"required"`
	CleanedPath  string `mapstructure:"cleaned_path" yaml:"cleaned_path"`
	TargetColumn string `mapstructure:"target_column" yaml:"target_column"`
	ReportsDir   string `mapstructure:"reports_dir" yaml:"reports_dir"`
	ArtifactsDir string `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`

	// Cleaning thresholds
	MaxMissingRatio      float64 `mapstructure:"max_missing_ratio" yaml:"max_missing_ratio" validate:"gte=0,lte=1"`
	MaxUniqueRatio       float64 `mapstructure:"max_unique_ratio" yaml:"max_unique_ratio" validate:"gte=0,lte=1"`
	OutlierIQRMultiplier float64 `mapstructure:"outlier_iqr_multiplier" yaml:"outlier_iqr_multiplier" validate:"gte=0"`

	// Type inference overrides
	NumericColumns     []string `mapstructure:"numeric_columns" yaml:"numeric_columns"`
	CategoricalColumns []string `mapstructure:"categorical_columns" yaml:"categorical_columns"`
	Delimiter          string   `mapstructure:"delimiter" yaml:"delimiter" validate:"delimiter"`
	Sheet              string   `mapstructure:"sheet" yaml:"sheet"`

	// Model selection and evaluation
	TestSize       float64 `mapstructure:"test_size" yaml:"test_size" validate:"gt=0,lt=1"`
	RandomSeed     int64   `mapstructure:"random_seed" yaml:"random_seed"`
	CVFolds        int     `mapstructure:"cv_folds" yaml:"cv_folds" validate:"gte=2"`
	ForestTrees    int     `mapstructure:"forest_trees" yaml:"forest_trees" validate:"gte=1"`
	ForestMaxDepth int     `mapstructure:"forest_max_depth" yaml:"forest_max_depth" validate:"gte=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=console json"`
}

// Keys lists every recognised configuration key in display order.
var Keys = []string{
	"data_path", "cleaned_path", "target_column", "reports_dir", "artifacts_dir",
	"max_missing_ratio", "max_unique_ratio", "outlier_iqr_multiplier",
	"numeric_columns", "categorical_columns", "delimiter", "sheet",
	"test_size", "random_seed", "cv_folds", "forest_trees", "forest_max_depth",
	"log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_path", "data/raw/data.csv")
	v.SetDefault("cleaned_path", "data/processed/cleaned.csv")
	v.SetDefault("target_column", "")
	v.SetDefault("reports_dir", "reports")
	v.SetDefault("artifacts_dir", "artifacts")
	v.SetDefault("max_missing_ratio", 0.4)
	v.SetDefault("max_unique_ratio", 0.95)
	v.SetDefault("outlier_iqr_multiplier", 1.5)
	v.SetDefault("numeric_columns", []string{})
	v.SetDefault("categorical_columns", []string{})
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("test_size", 0.2)
	v.SetDefault("random_seed", 42)
	v.SetDefault("cv_folds", 5)
	v.SetDefault("forest_trees", 100)
	v.SetDefault("forest_max_depth", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// DefaultPath returns ~/.automl/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".automl", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.automl/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; callers apply flags on top.
// A .env file in the working directory is read first when present.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("AUTOML")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
	})
	_ = v.RegisterValidation("delimiter", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", ",", ";", "|", "tab":
			return true
		}
		return false
	})
	return v
}

// Validate checks value ranges and returns the first failure as a ConfigError.
func (c *Global) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "must satisfy " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &apperrors.ConfigError{Key: fe.Field(), Reason: fmt.Sprintf("%s (got %v)", reason, fe.Value()), Err: err}
	}
	return &apperrors.ConfigError{Reason: "invalid configuration", Err: err}
}

// Layout returns the report and artifact locations.
func (c *Global) Layout() artifacts.Layout {
	return artifacts.NewLayout(c.ReportsDir, c.ArtifactsDir)
}

// LoadOptions builds table loading options.
func (c *Global) LoadOptions() dataset.LoadOptions {
	opt := dataset.DefaultLoadOptions()
	switch c.Delimiter {
	case "tab":
		opt.Delimiter = '\t'
	case "":
	default:
		opt.Delimiter = []rune(c.Delimiter)[0]
	}
	opt.NumericColumns = c.NumericColumns
	opt.CategoricalColumns = c.CategoricalColumns
	opt.Sheet = c.Sheet
	return opt
}

// CleaningOptions builds cleaning thresholds and overrides.
func (c *Global) CleaningOptions() cleaning.Options {
	return cleaning.Options{
		MaxMissingRatio:      c.MaxMissingRatio,
		MaxUniqueRatio:       c.MaxUniqueRatio,
		OutlierIQRMultiplier: c.OutlierIQRMultiplier,
		NumericColumns:       c.NumericColumns,
		CategoricalColumns:   c.CategoricalColumns,
	}
}

// SelectionOptions builds model selection options.
func (c *Global) SelectionOptions() automl.Options {
	return automl.Options{
		TestSize: c.TestSize,
		Params: models.Params{
			Trees:    c.ForestTrees,
			MaxDepth: c.ForestMaxDepth,
			Seed:     c.RandomSeed,
		},
	}
}

// Get renders the value of key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "data_path":
		return c.DataPath, nil
	case "cleaned_path":
		return c.CleanedPath, nil
	case "target_column":
		return c.TargetColumn, nil
	case "reports_dir":
		return c.ReportsDir, nil
	case "artifacts_dir":
		return c.ArtifactsDir, nil
	case "max_missing_ratio":
		return strconv.FormatFloat(c.MaxMissingRatio, 'g', -1, 64), nil
	case "max_unique_ratio":
		return strconv.FormatFloat(c.MaxUniqueRatio, 'g', -1, 64), nil
	case "outlier_iqr_multiplier":
		return strconv.FormatFloat(c.OutlierIQRMultiplier, 'g', -1, 64), nil
	case "numeric_columns":
		return strings.Join(c.NumericColumns, ","), nil
	case "categorical_columns":
		return strings.Join(c.CategoricalColumns, ","), nil
	case "delimiter":
		return c.Delimiter, nil
	case "sheet":
		return c.Sheet, nil
	case "test_size":
		return strconv.FormatFloat(c.TestSize, 'g', -1, 64), nil
	case "random_seed":
		return strconv.FormatInt(c.RandomSeed, 10), nil
	case "cv_folds":
		return strconv.Itoa(c.CVFolds), nil
	case "forest_trees":
		return strconv.Itoa(c.ForestTrees), nil
	case "forest_max_depth":
		return strconv.Itoa(c.ForestMaxDepth), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	}
	return "", apperrors.Config(key, "unknown key")
}

// Set parses val into key and re-validates the whole configuration.
func (c *Global) Set(key, val string) error {
	parseFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return &apperrors.ConfigError{Key: key, Reason: "invalid float " + strconv.Quote(val), Err: err}
		}
		*dst = f
		return nil
	}
	parseInt := func(dst *int) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return &apperrors.ConfigError{Key: key, Reason: "invalid int " + strconv.Quote(val), Err: err}
		}
		*dst = i
		return nil
	}
	var err error
	switch key {
	case "data_path":
		c.DataPath = val
	case "cleaned_path":
		c.CleanedPath = val
	case "target_column":
		c.TargetColumn = val
	case "reports_dir":
		c.ReportsDir = val
	case "artifacts_dir":
		c.ArtifactsDir = val
	case "max_missing_ratio":
		err = parseFloat(&c.MaxMissingRatio)
	case "max_unique_ratio":
		err = parseFloat(&c.MaxUniqueRatio)
	case "outlier_iqr_multiplier":
		err = parseFloat(&c.OutlierIQRMultiplier)
	case "numeric_columns":
		c.NumericColumns = splitList(val)
	case "categorical_columns":
		c.CategoricalColumns = splitList(val)
	case "delimiter":
		c.Delimiter = val
	case "sheet":
		c.Sheet = val
	case "test_size":
		err = parseFloat(&c.TestSize)
	case "random_seed":
		seed, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			return &apperrors.ConfigError{Key: key, Reason: "invalid int " + strconv.Quote(val), Err: perr}
		}
		c.RandomSeed = seed
	case "cv_folds":
		err = parseInt(&c.CVFolds)
	case "forest_trees":
		err = parseInt(&c.ForestTrees)
	case "forest_max_depth":
		err = parseInt(&c.ForestMaxDepth)
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return apperrors.Config(key, "unknown key")
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

func splitList(val string) []string {
	out := []string{}
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

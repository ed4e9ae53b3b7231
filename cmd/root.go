package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/automl-cli/internal/config"
	"github.com/KaramelBytes/automl-cli/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "automl",
	Short: "automl: clean a table, engineer features, pick and cross-validate a regressor",
	Long: `automl runs a small sequential pipeline over a CSV/TSV/XLSX table: it cleans the data
(deduplication, imputation, outlier capping, degenerate column removal), scales and one-hot
encodes features, selects the best regression model by validation RMSE and re-scores it with
k-fold cross-validation. Reports and artifacts are written as JSON files.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.automl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	if debug {
		c.LogLevel = "debug"
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	cfg = c
}

// requireConfig returns the loaded configuration, loading it if needed, and validates it.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the structured logger for pipeline components.
func newLogger(c *cfgpkg.Global) *zap.Logger {
	l, err := logging.New(c.LogLevel, c.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; logging disabled\n", err)
		return zap.NewNop()
	}
	return l
}

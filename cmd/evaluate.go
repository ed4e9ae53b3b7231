package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
	"github.com/KaramelBytes/automl-cli/internal/evaluation"
	"github.com/KaramelBytes/automl-cli/internal/features"
)

var (
	evCleanedPath string
	evTarget      string
	evFolds       int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Re-score the persisted model with k-fold cross-validation",
	Long: `Loads the cleaned table, applies the persisted feature pipeline and cross-validates
the model saved by the last run. Requires a previous 'automl run'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		layout := c.Layout()
		var meta features.Metadata
		if err := artifacts.ReadJSON(layout.FeatureMetadata(), &meta); err != nil {
			return fmt.Errorf("no feature pipeline found (run 'automl run' first): %w", err)
		}

		path := c.CleanedPath
		if evCleanedPath != "" {
			path = evCleanedPath
		}
		target := firstNonEmpty(evTarget, c.TargetColumn, meta.TargetColumn)
		folds := c.CVFolds
		if evFolds > 0 {
			folds = evFolds
		}

		// The cleaned file is always comma-separated; keep categorical columns
		// that look numeric (e.g. zip codes) categorical.
		opt := dataset.DefaultLoadOptions()
		opt.CategoricalColumns = meta.CategoricalColumns
		tbl, err := dataset.Load(path, opt)
		if err != nil {
			return err
		}

		logger := newLogger(c)
		defer func() { _ = logger.Sync() }()
		fres, err := features.NewEngineer(layout, logger).Load(tbl, target)
		if err != nil {
			return err
		}
		rep, err := evaluation.NewEvaluator(layout, logger).Run(fres.X, fres.Y, folds)
		if err != nil {
			return err
		}

		scores := make([]string, len(rep.AllScores))
		for i, s := range rep.AllScores {
			scores[i] = fmt.Sprintf("%.4f", s)
		}
		fmt.Printf("✓ %s %d-fold CV RMSE: %.4f ± %.4f\n", rep.Model, rep.CVFolds, rep.MeanRMSE, rep.StdRMSE)
		fmt.Printf("  folds: %s\n", strings.Join(scores, ", "))
		fmt.Printf("✓ Wrote evaluation report to %s\n", layout.EvaluationReport())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evCleanedPath, "cleaned", "", "cleaned table to score (default: cleaned_path)")
	evaluateCmd.Flags().StringVarP(&evTarget, "target", "t", "", "target column (default: target_column, then the trained target)")
	evaluateCmd.Flags().IntVar(&evFolds, "folds", 0, "cross-validation folds (default: cv_folds)")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

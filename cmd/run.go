package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/automl-cli/internal/orchestrator"
)

var (
	runDataPath    string
	runTarget      string
	runCleanedPath string
	runFolds       int
	runTrees       int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: clean, features, model selection, cross-validation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if runDataPath != "" {
			c.DataPath = runDataPath
		}
		if runTarget != "" {
			c.TargetColumn = runTarget
		}
		if runCleanedPath != "" {
			c.CleanedPath = runCleanedPath
		}
		if runFolds > 0 {
			c.CVFolds = runFolds
		}
		if runTrees > 0 {
			c.ForestTrees = runTrees
		}
		if err := c.Validate(); err != nil {
			return err
		}
		logger := newLogger(c)
		defer func() { _ = logger.Sync() }()

		req := orchestrator.Request{
			DataPath:    c.DataPath,
			CleanedPath: c.CleanedPath,
			Target:      c.TargetColumn,
			Layout:      c.Layout(),
			Load:        c.LoadOptions(),
			Cleaning:    c.CleaningOptions(),
			Selection:   c.SelectionOptions(),
			Folds:       c.CVFolds,
		}
		res, err := orchestrator.New(logger).Run(req)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Cleaned %d -> %d rows, %d -> %d columns (%s)\n",
			res.Cleaning.RowsBefore, res.Cleaning.RowsAfter,
			res.Cleaning.ColumnsBefore, res.Cleaning.ColumnsAfter, c.CleanedPath)
		fmt.Printf("✓ Engineered %d features from %d rows\n", res.Features.OutputShape[1], res.Features.OutputShape[0])
		for _, name := range res.Training.Candidates {
			fmt.Printf("  - %s: validation RMSE %.4f\n", name, res.Training.Results[name].RMSE)
		}
		fmt.Printf("✓ Best model: %s\n", res.Training.BestModel)
		fmt.Printf("✓ %d-fold CV RMSE: %.4f ± %.4f\n", res.Evaluation.CVFolds, res.Evaluation.MeanRMSE, res.Evaluation.StdRMSE)
		fmt.Printf("✓ Run %s recorded in %s\n", res.RunID, res.Manifest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDataPath, "data", "", "raw input table (overrides data_path)")
	runCmd.Flags().StringVarP(&runTarget, "target", "t", "", "regression target column (overrides target_column)")
	runCmd.Flags().StringVar(&runCleanedPath, "cleaned", "", "where to write the cleaned table (overrides cleaned_path)")
	runCmd.Flags().IntVar(&runFolds, "folds", 0, "cross-validation folds (overrides cv_folds)")
	runCmd.Flags().IntVar(&runTrees, "trees", 0, "random forest size (overrides forest_trees)")
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/cleaning"
)

var (
	cbOutDir     string
	cbReportsDir string
	cbDelimiter  string
	cbDecimal    string
	cbThousands  string
	cbSheetName  string
	cbProtect    []string
	cbQuiet      bool
)

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean multiple CSV/TSV/XLSX files with progress",
	Long: `Cleans every file matched by the given paths or glob patterns. Each input gets
<out-dir>/<name>.cleaned.csv and its own report directory <reports-dir>/<name>/cleaning/.
Inputs sharing a base name get a numeric suffix instead of overwriting each other.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt := c.LoadOptions()
		if err := applyLocaleFlags(&opt, cbDelimiter, cbDecimal, cbThousands); err != nil {
			return err
		}
		if cbSheetName != "" {
			opt.Sheet = cbSheetName
		}
		outDir := cbOutDir
		if outDir == "" {
			outDir = filepath.Dir(c.CleanedPath)
		}
		reports := c.ReportsDir
		if cbReportsDir != "" {
			reports = cbReportsDir
		}
		copts := c.CleaningOptions()
		copts.ProtectedColumns = append([]string(nil), cbProtect...)
		if c.TargetColumn != "" {
			copts.ProtectedColumns = append(copts.ProtectedColumns, c.TargetColumn)
		}

		logger := newLogger(c)
		defer func() { _ = logger.Sync() }()
		cleaner := cleaning.NewCleaner(logger)

		used := map[string]struct{}{}
		total := len(files)
		for i, path := range files {
			if !cbQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			name := uniqueStem(path, used)
			if !cbQuiet && name != fileStem(path) {
				fmt.Printf("⚠ Detected duplicate name, writing to %s to avoid overwrite.\n", name)
			}
			out := filepath.Join(outDir, name+".cleaned.csv")
			layout := artifacts.NewLayout(filepath.Join(reports, name), c.ArtifactsDir)
			rep, err := cleaner.CleanFile(path, out, layout, opt, copts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if !cbQuiet {
				fmt.Printf("✓ %d -> %d rows, %d -> %d columns: %s\n",
					rep.RowsBefore, rep.RowsAfter, rep.ColumnsBefore, rep.ColumnsAfter, out)
			}
		}
		return nil
	},
}

// expandInputs resolves glob patterns and literal paths into a sorted, de-duplicated file list.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uniqueStem returns the file stem of path, suffixed with __2, __3, ... when already used.
func uniqueStem(path string, used map[string]struct{}) string {
	stem := fileStem(path)
	name := stem
	for idx := 2; ; idx++ {
		if _, ok := used[name]; !ok {
			break
		}
		name = fmt.Sprintf("%s__%d", stem, idx)
	}
	used[name] = struct{}{}
	return name
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	cleanBatchCmd.Flags().StringVar(&cbOutDir, "out-dir", "", "directory for cleaned CSVs (default: directory of cleaned_path)")
	cleanBatchCmd.Flags().StringVar(&cbReportsDir, "reports-dir", "", "reports root (default: reports_dir)")
	cleanBatchCmd.Flags().StringVar(&cbDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	cleanBatchCmd.Flags().StringVar(&cbDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	cleanBatchCmd.Flags().StringVar(&cbThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	cleanBatchCmd.Flags().StringVar(&cbSheetName, "sheet-name", "", "XLSX: sheet name to clean (default: first sheet)")
	cleanBatchCmd.Flags().StringSliceVar(&cbProtect, "protect", nil, "columns never dropped (repeatable); target_column is always protected")
	cleanBatchCmd.Flags().BoolVar(&cbQuiet, "quiet", false, "suppress progress and non-essential output")
}

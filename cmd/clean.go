package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/cleaning"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
)

var (
	clnOutputPath string
	clnReportsDir string
	clnDelimiter  string
	clnDecimal    string
	clnThousands  string
	clnSheetName  string
	clnProtect    []string
	clnQuiet      bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a CSV/TSV/XLSX table and write a cleaning report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		path := args[0]
		opt := c.LoadOptions()
		if err := applyLocaleFlags(&opt, clnDelimiter, clnDecimal, clnThousands); err != nil {
			return err
		}
		if clnSheetName != "" {
			opt.Sheet = clnSheetName
		}

		out := clnOutputPath
		if out == "" {
			out = c.CleanedPath
		}
		reports := c.ReportsDir
		if clnReportsDir != "" {
			reports = clnReportsDir
		}
		layout := artifacts.NewLayout(reports, c.ArtifactsDir)

		copts := c.CleaningOptions()
		copts.ProtectedColumns = append([]string(nil), clnProtect...)
		if c.TargetColumn != "" {
			copts.ProtectedColumns = append(copts.ProtectedColumns, c.TargetColumn)
		}

		logger := newLogger(c)
		defer func() { _ = logger.Sync() }()
		rep, err := cleaning.NewCleaner(logger).CleanFile(path, out, layout, opt, copts)
		if err != nil {
			return err
		}
		if !clnQuiet {
			fmt.Println(rep.Markdown())
		}
		fmt.Printf("✓ Wrote cleaned data to %s\n", out)
		fmt.Printf("✓ Wrote cleaning report to %s\n", layout.CleaningReport())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clnOutputPath, "output", "o", "", "path for the cleaned CSV (default: cleaned_path)")
	cleanCmd.Flags().StringVar(&clnReportsDir, "reports-dir", "", "reports root (default: reports_dir)")
	cleanCmd.Flags().StringVar(&clnDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	cleanCmd.Flags().StringVar(&clnDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	cleanCmd.Flags().StringVar(&clnThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	cleanCmd.Flags().StringVar(&clnSheetName, "sheet-name", "", "XLSX: sheet name to clean (default: first sheet)")
	cleanCmd.Flags().StringSliceVar(&clnProtect, "protect", nil, "columns never dropped (repeatable); target_column is always protected")
	cleanCmd.Flags().BoolVarP(&clnQuiet, "quiet", "q", false, "do not print the Markdown summary")
}


// applyLocaleFlags maps the --delimiter, --decimal and --thousands flag values onto opt.
func applyLocaleFlags(opt *dataset.LoadOptions, delimiter, decimal, thousands string) error {
	if delimiter != "" {
		switch delimiter {
		case ",":
			opt.Delimiter = ','
		case "\t", "tab":
			opt.Delimiter = '\t'
		case ";":
			opt.Delimiter = ';'
		case "|":
			opt.Delimiter = '|'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", delimiter)
		}
	}
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(strings.TrimSpace(thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	return nil
}

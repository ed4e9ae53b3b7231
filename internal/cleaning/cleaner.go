// Package cleaning validates, deduplicates, imputes, caps outliers, drops
// degenerate columns and normalizes text in a tabular dataset.
package cleaning

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
	"github.com/KaramelBytes/automl-cli/internal/logging"
)

// UnknownCategory fills categorical columns that have no value to take a mode from.
const UnknownCategory = "unknown"

// Cleaner runs the cleaning stages over a table.
type Cleaner struct {
	logger *zap.Logger
}

// NewCleaner creates a Cleaner; a nil logger discards output.
func NewCleaner(logger *zap.Logger) *Cleaner {
	return &Cleaner{logger: logging.OrNop(logger).Named("cleaning")}
}

// Run cleans a copy of in and returns it with a report. The input is not modified.
//
// Stage order: deduplication, high-missing drop, imputation, constant drop, id-like drop,
// IQR capping, categorical normalization.
func (c *Cleaner) Run(in *dataset.Table, opts Options) (*dataset.Table, *Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	if err := validateTable(in); err != nil {
		return nil, nil, err
	}
	t := in.Clone()
	if err := applyOverrides(t, opts); err != nil {
		return nil, nil, err
	}

	rep := newReport()
	rep.RowsBefore = t.Rows()
	rep.ColumnsBefore = t.Cols()
	c.logger.Info("cleaning started", zap.Int("rows", rep.RowsBefore), zap.Int("columns", rep.ColumnsBefore))

	rep.DuplicatesRemoved = dropDuplicates(t)
	c.logger.Debug("deduplicated", zap.Int("removed", rep.DuplicatesRemoved))

	rep.HighMissingDropped = dropHighMissing(t, opts)
	if len(rep.HighMissingDropped) > 0 {
		c.logger.Info("dropped high-missing columns", zap.Strings("columns", rep.HighMissingDropped))
	}

	rep.MissingValuesBefore = t.NullCount()
	impute(t)
	rep.MissingValuesAfter = t.NullCount()
	c.logger.Debug("imputed", zap.Int("missing_before", rep.MissingValuesBefore), zap.Int("missing_after", rep.MissingValuesAfter))

	rep.ConstantRemoved = dropConstant(t, opts)
	if len(rep.ConstantRemoved) > 0 {
		c.logger.Info("dropped constant columns", zap.Strings("columns", rep.ConstantRemoved))
	}

	rep.IDLikeRemoved = dropIDLike(t, opts)
	if len(rep.IDLikeRemoved) > 0 {
		c.logger.Info("dropped id-like columns", zap.Strings("columns", rep.IDLikeRemoved))
	}

	rep.OutliersCapped = capOutliers(t, opts.OutlierIQRMultiplier)
	rep.NumericalColumns = names(t.NamesOfKind(dataset.Numeric))
	rep.CategoricalColumns = names(t.NamesOfKind(dataset.Categorical))
	normalizeCategorical(t)

	rep.RowsAfter = t.Rows()
	rep.ColumnsAfter = t.Cols()
	rep.FinalColumns = t.Names()
	c.logger.Info("cleaning finished",
		zap.Int("rows", rep.RowsAfter),
		zap.Int("columns", rep.ColumnsAfter),
		zap.Int("outliers_capped", rep.TotalOutliers()))
	return t, rep, nil
}

// CleanFile loads inPath, cleans it, writes the cleaned table to outPath and
// the JSON and Markdown reports under layout.
func (c *Cleaner) CleanFile(inPath, outPath string, layout artifacts.Layout, load dataset.LoadOptions, opts Options) (*Report, error) {
	in, err := dataset.Load(inPath, load)
	if err != nil {
		return nil, err
	}
	out, rep, err := c.Run(in, opts)
	if err != nil {
		return nil, err
	}
	if err := dataset.WriteCSV(outPath, out); err != nil {
		return nil, fmt.Errorf("write cleaned data: %w", err)
	}
	if err := rep.Save(layout.CleaningReport()); err != nil {
		return nil, fmt.Errorf("write cleaning report: %w", err)
	}
	if err := artifacts.SafeWriteFile(layout.CleaningMarkdown(), []byte(rep.Markdown())); err != nil {
		return nil, fmt.Errorf("write cleaning summary: %w", err)
	}
	c.logger.Info("cleaned data written", zap.String("path", outPath), zap.String("report", layout.CleaningReport()))
	return rep, nil
}

func validateTable(t *dataset.Table) error {
	if t == nil || t.Rows() == 0 {
		return apperrors.Validation("clean", "input table is empty")
	}
	if t.Cols() < 2 {
		return apperrors.Validation("clean", "input table has %d column(s), need at least 2", t.Cols())
	}
	var allNull []string
	for _, col := range t.Columns {
		if col.NullCount() == col.Len() {
			allNull = append(allNull, col.Name)
		}
	}
	if len(allNull) > 0 {
		return apperrors.Validation("clean", "columns entirely null: %s", strings.Join(allNull, ", "))
	}
	return nil
}

func applyOverrides(t *dataset.Table, opts Options) error {
	for _, name := range opts.CategoricalColumns {
		if col, ok := t.Column(name); ok {
			col.ToCategorical()
		}
	}
	for _, name := range opts.NumericColumns {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		if err := col.ToNumeric(); err != nil {
			return &apperrors.ValidationError{Op: "clean", Reason: "numeric override", Err: err}
		}
	}
	return nil
}

func names(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

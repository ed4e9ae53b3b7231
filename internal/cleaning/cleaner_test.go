package cleaning

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
	"github.com/KaramelBytes/automl-cli/internal/artifacts"
	"github.com/KaramelBytes/automl-cli/internal/dataset"
)

// scenarioTable builds 100 rows with one column per drop reason plus an
// outlier and a tied categorical mode.
func scenarioTable(t *testing.T) *dataset.Table {
	t.Helper()
	const n = 100
	id := make([]float64, n)
	value := make([]float64, n)
	half := make([]float64, n)
	halfNull := make([]bool, n)
	group := make([]string, n)
	groupNull := make([]bool, n)
	source := make([]string, n)
	y := make([]float64, n)
	labels := []string{" Alpha ", "beta", "GAMMA "}
	for i := 0; i < n; i++ {
		id[i] = float64(i + 1)
		value[i] = float64(i % 10)
		half[i] = float64(i)
		halfNull[i] = i%2 == 1
		group[i] = labels[i%3]
		source[i] = "web"
		y[i] = float64(i%10)*2 + float64(i%3)
	}
	value[99] = 1000
	groupNull[0], groupNull[1] = true, true

	tbl, err := dataset.New(
		dataset.NewNumericColumn("id", id, nil),
		dataset.NewNumericColumn("value", value, nil),
		dataset.NewNumericColumn("half_null", half, halfNull),
		dataset.NewCategoricalColumn("group", group, groupNull),
		dataset.NewCategoricalColumn("source", source, nil),
		dataset.NewNumericColumn("y", y, nil),
	)
	require.NoError(t, err)
	return tbl
}

func TestRunScenario(t *testing.T) {
	in := scenarioTable(t)
	out, rep, err := NewCleaner(nil).Run(in, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 100, rep.RowsBefore)
	assert.Equal(t, 100, rep.RowsAfter)
	assert.Equal(t, 6, rep.ColumnsBefore)
	assert.Equal(t, 3, rep.ColumnsAfter)
	assert.Equal(t, 0, rep.DuplicatesRemoved)
	assert.Equal(t, []string{"half_null"}, rep.HighMissingDropped)
	assert.Equal(t, []string{"source"}, rep.ConstantRemoved)
	assert.Equal(t, []string{"id"}, rep.IDLikeRemoved)
	assert.Equal(t, []string{"value", "group", "y"}, rep.FinalColumns)
	assert.Equal(t, []string{"value", "y"}, rep.NumericalColumns)
	assert.Equal(t, []string{"group"}, rep.CategoricalColumns)
	assert.Equal(t, 2, rep.MissingValuesBefore)
	assert.Equal(t, 0, rep.MissingValuesAfter)
	assert.Equal(t, 1, rep.OutliersCapped["value"])
	assert.Equal(t, 0, rep.OutliersCapped["y"])

	assert.Equal(t, []string{"value", "group", "y"}, out.Names())
	assert.Equal(t, 0, out.NullCount())

	// Q1=2, Q3=7, IQR=5 so the upper bound is 14.5.
	value, _ := out.Column("value")
	assert.Equal(t, 14.5, value.Nums[99])

	// "GAMMA " and " Alpha " tie at 33; row 2 ("GAMMA ") is seen first.
	group, _ := out.Column("group")
	assert.Equal(t, "gamma", group.Strs[0])
	assert.Equal(t, "gamma", group.Strs[1])
	assert.Equal(t, "alpha", group.Strs[3])

	// Input is untouched.
	assert.Equal(t, 6, in.Cols())
	inGroup, _ := in.Column("group")
	assert.True(t, inGroup.Null[0])
	assert.Equal(t, " Alpha ", inGroup.Strs[3])
}

func TestHighMissingColumnNeverReappears(t *testing.T) {
	_, rep, err := NewCleaner(nil).Run(scenarioTable(t), DefaultOptions())
	require.NoError(t, err)
	for _, list := range [][]string{rep.NumericalColumns, rep.CategoricalColumns, rep.FinalColumns} {
		assert.NotContains(t, list, "half_null")
	}
	_, ok := rep.OutliersCapped["half_null"]
	assert.False(t, ok)
}

func TestRunIsIdempotent(t *testing.T) {
	const n = 40
	x := make([]float64, n+1)
	xNull := make([]bool, n+1)
	y := make([]float64, n+1)
	cat := make([]string, n+1)
	catNull := make([]bool, n+1)
	labels := []string{" Red", "blue ", "GREEN"}
	for i := 0; i < n; i++ {
		x[i] = float64(i % 20)
		y[i] = float64(i % 13)
		cat[i] = labels[i%3]
	}
	x[5] = 500
	xNull[7] = true
	catNull[8] = true
	// trailing exact duplicate of row 0
	x[n], y[n], cat[n] = x[0], y[0], cat[0]

	in, err := dataset.New(
		dataset.NewNumericColumn("x", x, xNull),
		dataset.NewNumericColumn("y", y, nil),
		dataset.NewCategoricalColumn("color", cat, catNull),
	)
	require.NoError(t, err)

	c := NewCleaner(nil)
	first, rep1, err := c.Run(in, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, rep1.DuplicatesRemoved)
	assert.Equal(t, 2, rep1.MissingValuesBefore)
	assert.Equal(t, 1, rep1.TotalOutliers())

	second, rep2, err := c.Run(first, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, rep2.DuplicatesRemoved)
	assert.Equal(t, 0, rep2.MissingValuesBefore)
	assert.Equal(t, 0, rep2.TotalOutliers())
	assert.Empty(t, rep2.HighMissingDropped)
	assert.Empty(t, rep2.ConstantRemoved)
	assert.Empty(t, rep2.IDLikeRemoved)

	h1, r1 := first.Records()
	h2, r2 := second.Records()
	assert.Equal(t, h1, h2)
	assert.Equal(t, r1, r2)

	// Median of the 39 non-null x values is 10; Q1=4.75, Q3=15, upper=30.375.
	xs, _ := first.Column("x")
	assert.Equal(t, 10.0, xs.Nums[7])
	assert.Equal(t, 30.375, xs.Nums[5])
}

func TestCappedValuesWithinBounds(t *testing.T) {
	vals := []float64{-90, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 200}
	labels := make([]string, len(vals))
	for i := range labels {
		labels[i] = []string{"a", "b"}[i%2]
	}
	in, err := dataset.New(
		dataset.NewNumericColumn("v", vals, nil),
		dataset.NewCategoricalColumn("k", labels, nil),
	)
	require.NoError(t, err)

	q1, q3 := dataset.Quartiles(vals)
	iqr := q3 - q1
	lower, upper := q1-1.5*iqr, q3+1.5*iqr

	opts := DefaultOptions()
	opts.MaxUniqueRatio = 1
	out, rep, err := NewCleaner(nil).Run(in, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.OutliersCapped["v"])
	v, _ := out.Column("v")
	for _, x := range v.Nums {
		assert.GreaterOrEqual(t, x, lower)
		assert.LessOrEqual(t, x, upper)
	}
}

func TestCategoricalValuesNormalized(t *testing.T) {
	in, err := dataset.New(
		dataset.NewCategoricalColumn("city", []string{"  New York", "BOSTON ", "boston", "Austin", "austin "}, nil),
		dataset.NewNumericColumn("n", []float64{1, 2, 3, 1, 2}, nil),
	)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.MaxUniqueRatio = 1
	out, rep, err := NewCleaner(nil).Run(in, opts)
	require.NoError(t, err)
	require.Equal(t, []string{"city"}, rep.CategoricalColumns)
	for _, c := range out.Columns {
		if c.Kind != dataset.Categorical {
			continue
		}
		for _, s := range c.Strs {
			assert.Equal(t, strings.ToLower(strings.TrimSpace(s)), s)
		}
	}
}

func TestRunRejectsDegenerateTables(t *testing.T) {
	c := NewCleaner(nil)

	fullyNull, err := dataset.New(
		dataset.NewNumericColumn("a", []float64{1, 2, 3}, nil),
		dataset.NewCategoricalColumn("empty", []string{"", "", ""}, []bool{true, true, true}),
	)
	require.NoError(t, err)
	_, _, err = c.Run(fullyNull, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "empty")

	oneCol, err := dataset.New(dataset.NewNumericColumn("a", []float64{1, 2}, nil))
	require.NoError(t, err)
	_, _, err = c.Run(oneCol, DefaultOptions())
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	noRows, err := dataset.New(
		dataset.NewNumericColumn("a", []float64{}, nil),
		dataset.NewNumericColumn("b", []float64{}, nil),
	)
	require.NoError(t, err)
	_, _, err = c.Run(noRows, DefaultOptions())
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, _, err = c.Run(nil, DefaultOptions())
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxMissingRatio = 1.5
	_, _, err := NewCleaner(nil).Run(scenarioTable(t), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
	var cfgErr *apperrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "max_missing_ratio", cfgErr.Key)

	opts = DefaultOptions()
	opts.OutlierIQRMultiplier = -1
	_, _, err = NewCleaner(nil).Run(scenarioTable(t), opts)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
}

func TestProtectedColumnsSurviveDrops(t *testing.T) {
	opts := DefaultOptions()
	opts.ProtectedColumns = []string{"id", "source"}
	_, rep, err := NewCleaner(nil).Run(scenarioTable(t), opts)
	require.NoError(t, err)
	assert.Empty(t, rep.IDLikeRemoved)
	assert.Empty(t, rep.ConstantRemoved)
	assert.Equal(t, []string{"id", "value", "group", "source", "y"}, rep.FinalColumns)
}

func TestTypeOverrides(t *testing.T) {
	in, err := dataset.New(
		dataset.NewNumericColumn("zip", []float64{2139, 10001, 2139, 10001}, nil),
		dataset.NewCategoricalColumn("score", []string{"1", "2", "x", "3"}, nil),
		dataset.NewNumericColumn("n", []float64{1, 2, 3, 4}, nil),
	)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.CategoricalColumns = []string{"zip"}
	opts.MaxUniqueRatio = 1
	_, rep, err := NewCleaner(nil).Run(in, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"zip", "score"}, rep.CategoricalColumns)

	opts.NumericColumns = []string{"score"}
	_, _, err = NewCleaner(nil).Run(in, opts)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestImputeFallsBackToUnknown(t *testing.T) {
	tbl, err := dataset.New(
		dataset.NewCategoricalColumn("c", []string{"", ""}, []bool{true, true}),
		dataset.NewNumericColumn("n", []float64{1, 0}, []bool{false, true}),
	)
	require.NoError(t, err)
	impute(tbl)
	c, _ := tbl.Column("c")
	assert.Equal(t, []string{UnknownCategory, UnknownCategory}, c.Strs)
	n, _ := tbl.Column("n")
	assert.Equal(t, []float64{1, 1}, n.Nums)
	assert.Equal(t, 0, tbl.NullCount())
}

func TestCleanFileWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "raw.csv")
	csv := "id,price,city,y\n1,10,Austin,1\n2,12, austin,2\n3,,Boston,1\n4,10,boston,3\n4,10,boston,3\n5,12,NA,2\n"
	require.NoError(t, os.WriteFile(in, []byte(csv), 0o644))

	layout := artifacts.NewLayout(filepath.Join(dir, "reports"), filepath.Join(dir, "artifacts"))
	out := filepath.Join(dir, "processed", "cleaned.csv")
	opts := DefaultOptions()
	opts.ProtectedColumns = []string{"y"}

	rep, err := NewCleaner(nil).CleanFile(in, out, layout, dataset.DefaultLoadOptions(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.DuplicatesRemoved)
	assert.Equal(t, []string{"id"}, rep.IDLikeRemoved)

	cleaned, err := dataset.LoadCSV(out, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, rep.FinalColumns, cleaned.Names())
	assert.Equal(t, 0, cleaned.NullCount())

	b, err := os.ReadFile(layout.CleaningReport())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	for _, k := range []string{
		"rows_before", "rows_after", "columns_before", "columns_after",
		"duplicates_removed", "missing_values_before", "missing_values_after",
		"numerical_columns", "categorical_columns", "high_missing_columns_dropped",
		"constant_columns_removed", "id_like_columns_removed", "outliers_capped", "final_columns",
	} {
		assert.Contains(t, doc, k)
	}

	md, err := os.ReadFile(layout.CleaningMarkdown())
	require.NoError(t, err)
	assert.Contains(t, string(md), "[CLEANING SUMMARY]")
	assert.Contains(t, string(md), "- id-like: id")
}

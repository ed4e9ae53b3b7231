package cleaning

import (
	"strings"

	"github.com/KaramelBytes/automl-cli/internal/dataset"
)

// dropDuplicates keeps the first occurrence of every distinct row.
func dropDuplicates(t *dataset.Table) int {
	seen := make(map[string]struct{}, t.Rows())
	keep := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		k := t.RowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	removed := t.Rows() - len(keep)
	if removed > 0 {
		t.Filter(keep)
	}
	return removed
}

func dropHighMissing(t *dataset.Table, opts Options) []string {
	rows := float64(t.Rows())
	return dropWhere(t, opts, func(c *dataset.Column) bool {
		return float64(c.NullCount())/rows > opts.MaxMissingRatio
	})
}

func dropConstant(t *dataset.Table, opts Options) []string {
	return dropWhere(t, opts, func(c *dataset.Column) bool {
		return c.Distinct() <= 1
	})
}

func dropIDLike(t *dataset.Table, opts Options) []string {
	rows := float64(t.Rows())
	return dropWhere(t, opts, func(c *dataset.Column) bool {
		return float64(c.Distinct())/rows > opts.MaxUniqueRatio
	})
}

// dropWhere removes unprotected columns matching pred and returns their names in order.
func dropWhere(t *dataset.Table, opts Options, pred func(*dataset.Column) bool) []string {
	dropped := []string{}
	for _, c := range t.Columns {
		if opts.protected(c.Name) {
			continue
		}
		if pred(c) {
			dropped = append(dropped, c.Name)
		}
	}
	t.Drop(dropped...)
	return dropped
}

// impute fills numeric nulls with the median and categorical nulls with the
// mode, falling back to UnknownCategory.
func impute(t *dataset.Table) {
	for _, c := range t.Columns {
		if c.NullCount() == 0 {
			continue
		}
		switch c.Kind {
		case dataset.Numeric:
			vals := c.NonNullFloats()
			if len(vals) == 0 {
				continue
			}
			fill := dataset.Median(vals)
			for i := range c.Nums {
				if c.Null[i] {
					c.Nums[i] = fill
					c.Null[i] = false
				}
			}
		case dataset.Categorical:
			fill, ok := dataset.Mode(c.NonNullStrings())
			if !ok {
				fill = UnknownCategory
			}
			for i := range c.Strs {
				if c.Null[i] {
					c.Strs[i] = fill
					c.Null[i] = false
				}
			}
		}
	}
}

// capOutliers clamps numeric values to [Q1-m*IQR, Q3+m*IQR]. Columns with
// IQR == 0 are skipped; every column that was examined gets an entry.
func capOutliers(t *dataset.Table, multiplier float64) map[string]int {
	capped := map[string]int{}
	for _, c := range t.Columns {
		if c.Kind != dataset.Numeric {
			continue
		}
		vals := c.NonNullFloats()
		if len(vals) == 0 {
			continue
		}
		q1, q3 := dataset.Quartiles(vals)
		iqr := q3 - q1
		if iqr <= 0 {
			continue
		}
		lower, upper := q1-multiplier*iqr, q3+multiplier*iqr
		n := 0
		for i, v := range c.Nums {
			if c.Null[i] {
				continue
			}
			switch {
			case v < lower:
				c.Nums[i] = lower
				n++
			case v > upper:
				c.Nums[i] = upper
				n++
			}
		}
		capped[c.Name] = n
	}
	return capped
}

func normalizeCategorical(t *dataset.Table) {
	for _, c := range t.Columns {
		if c.Kind != dataset.Categorical {
			continue
		}
		for i, v := range c.Strs {
			if !c.Null[i] {
				c.Strs[i] = strings.ToLower(strings.TrimSpace(v))
			}
		}
	}
}

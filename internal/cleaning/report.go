package cleaning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/automl-cli/internal/artifacts"
)

// Report summarizes one cleaning run. It is built fresh per run and not
// modified after Run returns.
type Report struct {
	RowsBefore          int            `json:"rows_before"`
	RowsAfter           int            `json:"rows_after"`
	ColumnsBefore       int            `json:"columns_before"`
	ColumnsAfter        int            `json:"columns_after"`
	DuplicatesRemoved   int            `json:"duplicates_removed"`
	MissingValuesBefore int            `json:"missing_values_before"`
	MissingValuesAfter  int            `json:"missing_values_after"`
	NumericalColumns    []string       `json:"numerical_columns"`
	CategoricalColumns  []string       `json:"categorical_columns"`
	HighMissingDropped  []string       `json:"high_missing_columns_dropped"`
	ConstantRemoved     []string       `json:"constant_columns_removed"`
	IDLikeRemoved       []string       `json:"id_like_columns_removed"`
	OutliersCapped      map[string]int `json:"outliers_capped"`
	FinalColumns        []string       `json:"final_columns"`
}

func newReport() *Report {
	return &Report{
		NumericalColumns:   []string{},
		CategoricalColumns: []string{},
		HighMissingDropped: []string{},
		ConstantRemoved:    []string{},
		IDLikeRemoved:      []string{},
		OutliersCapped:     map[string]int{},
		FinalColumns:       []string{},
	}
}

// TotalOutliers sums the capped cell counts over all columns.
func (r *Report) TotalOutliers() int {
	n := 0
	for _, c := range r.OutliersCapped {
		n += c
	}
	return n
}

// Save writes the report as JSON.
func (r *Report) Save(path string) error {
	return artifacts.WriteJSON(path, r)
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLEANING SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Rows: %d -> %d (duplicates removed %d)\n", r.RowsBefore, r.RowsAfter, r.DuplicatesRemoved))
	b.WriteString(fmt.Sprintf("Columns: %d -> %d\n", r.ColumnsBefore, r.ColumnsAfter))
	b.WriteString(fmt.Sprintf("Missing values: %d -> %d\n\n", r.MissingValuesBefore, r.MissingValuesAfter))

	b.WriteString("[SCHEMA]\n")
	b.WriteString("- numerical: " + list(r.NumericalColumns) + "\n")
	b.WriteString("- categorical: " + list(r.CategoricalColumns) + "\n")

	if len(r.HighMissingDropped)+len(r.ConstantRemoved)+len(r.IDLikeRemoved) > 0 {
		b.WriteString("\n[DROPPED COLUMNS]\n")
		if len(r.HighMissingDropped) > 0 {
			b.WriteString("- high missing: " + list(r.HighMissingDropped) + "\n")
		}
		if len(r.ConstantRemoved) > 0 {
			b.WriteString("- constant: " + list(r.ConstantRemoved) + "\n")
		}
		if len(r.IDLikeRemoved) > 0 {
			b.WriteString("- id-like: " + list(r.IDLikeRemoved) + "\n")
		}
	}
	if r.TotalOutliers() > 0 {
		b.WriteString("\n[OUTLIERS CAPPED]\n")
		keys := make([]string, 0, len(r.OutliersCapped))
		for k := range r.OutliersCapped {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if n := r.OutliersCapped[k]; n > 0 {
				b.WriteString(fmt.Sprintf("- %s: %d\n", k, n))
			}
		}
	}
	b.WriteString("\n[FINAL COLUMNS]\n")
	b.WriteString(list(r.FinalColumns))
	b.WriteString("\n")
	return b.String()
}

func list(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/automl-cli/internal/apperrors"
)

// LoadOptions controls how a delimited or spreadsheet file becomes a Table.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// NullTokens are cell values (after trimming) treated as missing.
	// The empty string is always missing.
	NullTokens []string
	// Numeric parsing locale. Zero values mean '.' decimal and no thousands separator.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Explicit type overrides; they win over inference.
	NumericColumns     []string
	CategoricalColumns []string
	// Sheet selects the XLSX sheet by name; empty means the first sheet.
	Sheet string
}

// DefaultNullTokens mirrors the usual spellings of a missing value.
var DefaultNullTokens = []string{"NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "<NA>", "#N/A"}

// DefaultLoadOptions returns reasonable defaults for loading tabular data.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{NullTokens: append([]string(nil), DefaultNullTokens...)}
}

// Load reads path as XLSX or delimited text based on its extension.
func Load(path string, opt LoadOptions) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited file with a header row.
func LoadCSV(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.Validation("load", "%s has no header row", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return FromRecords(header, records, opt)
}

// FromRecords builds a Table from a header and string rows, inferring each
// column's kind. Short rows are padded with nulls; extra cells are ignored.
func FromRecords(header []string, records [][]string, opt LoadOptions) (*Table, error) {
	ncol := len(header)
	if ncol == 0 {
		return nil, apperrors.Validation("load", "header has no columns")
	}
	nulls := make(map[string]struct{}, len(opt.NullTokens)+1)
	nulls[""] = struct{}{}
	for _, tok := range opt.NullTokens {
		nulls[tok] = struct{}{}
	}
	forceNum := toSet(opt.NumericColumns)
	forceCat := toSet(opt.CategoricalColumns)

	cols := make([]*Column, ncol)
	for j := range header {
		name := strings.TrimSpace(header[j])
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", j)
		}
		raw := make([]string, len(records))
		null := make([]bool, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			}
			if _, ok := nulls[strings.TrimSpace(raw[i])]; ok {
				null[i] = true
			}
		}
		col, err := buildColumn(name, raw, null, opt, forceNum, forceCat)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}
	t, err := New(cols...)
	if err != nil {
		return nil, apperrors.Validation("load", "%v", err)
	}
	return t, nil
}

func buildColumn(name string, raw []string, null []bool, opt LoadOptions, forceNum, forceCat map[string]struct{}) (*Column, error) {
	if _, ok := forceCat[name]; ok {
		return NewCategoricalColumn(name, raw, null), nil
	}
	_, mustNum := forceNum[name]
	nums := make([]float64, len(raw))
	numeric := false
	for i, v := range raw {
		if null[i] {
			continue
		}
		x, ok := parseNumeric(v, opt)
		if !ok {
			if mustNum {
				return nil, apperrors.Validation("load", "column %q forced numeric but row %d holds %q", name, i+1, v)
			}
			return NewCategoricalColumn(name, raw, null), nil
		}
		nums[i] = x
		numeric = true
	}
	if !numeric && !mustNum {
		// no evidence either way; an all-null column stays categorical
		return NewCategoricalColumn(name, raw, null), nil
	}
	return NewNumericColumn(name, nums, null), nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if thou := opt.ThousandsSeparator; thou != 0 && thou != opt.DecimalSeparator {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec := opt.DecimalSeparator; dec != 0 && dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[strings.TrimSpace(n)] = struct{}{}
	}
	return m
}

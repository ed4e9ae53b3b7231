package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the semantic type of a column.
type Kind int

const (
	// Numeric columns admit arithmetic comparison.
	Numeric Kind = iota
	// Categorical columns hold free text or labels.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Column is a named, typed column. Only the slice matching Kind is populated;
// Null marks missing cells and defines the column length.
type Column struct {
	Name string
	Kind Kind
	Nums []float64
	Strs []string
	Null []bool
}

// NewNumericColumn builds a numeric column. A nil null mask means no nulls.
func NewNumericColumn(name string, vals []float64, null []bool) *Column {
	if null == nil {
		null = make([]bool, len(vals))
	}
	return &Column{Name: name, Kind: Numeric, Nums: vals, Null: null}
}

// NewCategoricalColumn builds a categorical column. A nil null mask means no nulls.
func NewCategoricalColumn(name string, vals []string, null []bool) *Column {
	if null == nil {
		null = make([]bool, len(vals))
	}
	return &Column{Name: name, Kind: Categorical, Strs: vals, Null: null}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Null) }

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.Null {
		if isNull {
			n++
		}
	}
	return n
}

// Key returns a canonical encoding of cell i used for equality and cardinality.
// Nulls share a single key.
func (c *Column) Key(i int) string {
	if c.Null[i] {
		return "\x00"
	}
	if c.Kind == Numeric {
		return "n:" + strconv.FormatFloat(c.Nums[i], 'g', -1, 64)
	}
	return "s:" + c.Strs[i]
}

// String renders cell i for output; nulls render as the empty string.
func (c *Column) String(i int) string {
	if c.Null[i] {
		return ""
	}
	if c.Kind == Numeric {
		return strconv.FormatFloat(c.Nums[i], 'f', -1, 64)
	}
	return c.Strs[i]
}

// Distinct counts distinct cell values, treating null as one value.
func (c *Column) Distinct() int {
	seen := make(map[string]struct{}, c.Len())
	for i := 0; i < c.Len(); i++ {
		seen[c.Key(i)] = struct{}{}
	}
	return len(seen)
}

// NonNullFloats returns the non-null numeric values in row order.
func (c *Column) NonNullFloats() []float64 {
	out := make([]float64, 0, c.Len())
	for i, v := range c.Nums {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// NonNullStrings returns the non-null text values in row order.
func (c *Column) NonNullStrings() []string {
	out := make([]string, 0, c.Len())
	for i, v := range c.Strs {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// ToCategorical converts the column in place, rendering numbers as text.
func (c *Column) ToCategorical() {
	if c.Kind == Categorical {
		return
	}
	c.Strs = make([]string, c.Len())
	for i := range c.Strs {
		c.Strs[i] = c.String(i)
	}
	c.Nums = nil
	c.Kind = Categorical
}

// ToNumeric converts a categorical column in place by parsing every non-null
// cell; it fails without modifying the column if any cell is not a number.
func (c *Column) ToNumeric() error {
	if c.Kind == Numeric {
		return nil
	}
	nums := make([]float64, c.Len())
	for i, v := range c.Strs {
		if c.Null[i] {
			continue
		}
		x, ok := parseNumeric(v, LoadOptions{})
		if !ok {
			return fmt.Errorf("column %q row %d: %q is not numeric", c.Name, i+1, v)
		}
		nums[i] = x
	}
	c.Nums = nums
	c.Strs = nil
	c.Kind = Numeric
	return nil
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	cp := &Column{Name: c.Name, Kind: c.Kind, Null: append([]bool(nil), c.Null...)}
	if c.Nums != nil {
		cp.Nums = append([]float64(nil), c.Nums...)
	}
	if c.Strs != nil {
		cp.Strs = append([]string(nil), c.Strs...)
	}
	return cp
}

func (c *Column) filter(keep []int) {
	null := make([]bool, len(keep))
	for j, i := range keep {
		null[j] = c.Null[i]
	}
	if c.Nums != nil {
		nums := make([]float64, len(keep))
		for j, i := range keep {
			nums[j] = c.Nums[i]
		}
		c.Nums = nums
	}
	if c.Strs != nil {
		strs := make([]string, len(keep))
		for j, i := range keep {
			strs[j] = c.Strs[i]
		}
		c.Strs = strs
	}
	c.Null = null
}

// Table is an ordered set of equally long columns.
type Table struct {
	Columns []*Column
}

// New assembles a table, checking that names are unique and lengths agree.
func New(cols ...*Column) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), cols[0].Len())
		}
		if c.Kind == Numeric && len(c.Nums) != c.Len() {
			return nil, fmt.Errorf("column %q: %d values for %d rows", c.Name, len(c.Nums), c.Len())
		}
		if c.Kind == Categorical && len(c.Strs) != c.Len() {
			return nil, fmt.Errorf("column %q: %d values for %d rows", c.Name, len(c.Strs), c.Len())
		}
	}
	return &Table{Columns: cols}, nil
}

// Rows returns the row count.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Cols returns the column count.
func (t *Table) Cols() int { return len(t.Columns) }

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NamesOfKind returns, in order, the names of columns of kind k.
func (t *Table) NamesOfKind(k Kind) []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind == k {
			out = append(out, c.Name)
		}
	}
	return out
}

// Drop removes the named columns in place; unknown names are ignored.
func (t *Table) Drop(names ...string) {
	if len(names) == 0 {
		return
	}
	rm := make(map[string]struct{}, len(names))
	for _, n := range names {
		rm[n] = struct{}{}
	}
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if _, ok := rm[c.Name]; !ok {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
}

// Filter keeps only the given row indices, in the given order.
func (t *Table) Filter(keep []int) {
	for _, c := range t.Columns {
		c.filter(keep)
	}
}

// NullCount returns the number of null cells across the table.
func (t *Table) NullCount() int {
	n := 0
	for _, c := range t.Columns {
		n += c.NullCount()
	}
	return n
}

// RowKey encodes row i across all columns for full-row equality.
func (t *Table) RowKey(i int) string {
	var b strings.Builder
	for j, c := range t.Columns {
		if j > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(c.Key(i))
	}
	return b.String()
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Clone()
	}
	return &Table{Columns: cols}
}

// Records renders the table as a header plus string rows.
func (t *Table) Records() (header []string, rows [][]string) {
	header = t.Names()
	rows = make([][]string, t.Rows())
	for i := range rows {
		row := make([]string, t.Cols())
		for j, c := range t.Columns {
			row[j] = c.String(i)
		}
		rows[i] = row
	}
	return header, rows
}

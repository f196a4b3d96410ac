package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is a typed row. Values returns the column values in schema order,
// with nil standing for null.
type Record interface {
	Values() []any
}

// Dataset is the columnar view of a table that the layer store, the
// validation gate, and the catalog publisher consume.
type Dataset interface {
	// Name returns the stable table identifier (e.g. "fact_orders").
	Name() string

	// Schema returns the table schema.
	Schema() Schema

	// Len returns the number of rows.
	Len() int

	// Row returns the values of row i in schema order. Nulls are nil.
	Row(i int) []any
}

// Table holds the typed rows of a single silver or gold table.
type Table[T Record] struct {
	schema Schema
	Rows   []T
}

// NewTable returns a table for schema holding rows. A nil rows slice is
// replaced by an empty one so empty tables still carry their schema.
func NewTable[T Record](schema Schema, rows []T) *Table[T] {
	if rows == nil {
		rows = []T{}
	}
	return &Table[T]{schema: schema, Rows: rows}
}

// Name returns the table name from its schema.
func (t *Table[T]) Name() string { return t.schema.Name }

// Schema returns the table schema.
func (t *Table[T]) Schema() Schema { return t.schema }

// Len returns the number of rows.
func (t *Table[T]) Len() int { return len(t.Rows) }

// Row returns the values of row i.
func (t *Table[T]) Row(i int) []any { return t.Rows[i].Values() }

// TableSet indexes datasets by table name.
type TableSet map[string]Dataset

// Add stores ds under its own name, replacing any previous entry.
func (ts TableSet) Add(ds Dataset) {
	ts[ds.Name()] = ds
}

// Get returns the named dataset or ErrTableNotFound.
func (ts TableSet) Get(name string) (Dataset, error) {
	ds, ok := ts[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return ds, nil
}

// Names returns the table names in sorted order.
func (ts TableSet) Names() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new set holding the datasets of ts and other. Entries of
// other win on name clashes.
func (ts TableSet) Merge(other TableSet) TableSet {
	out := make(TableSet, len(ts)+len(other))
	for name, ds := range ts {
		out[name] = ds
	}
	for name, ds := range other {
		out[name] = ds
	}
	return out
}

// Ptr returns a pointer to v. Nullable record fields are pointers.
func Ptr[T any](v T) *T {
	return &v
}

// nullable converts a nullable field into its Row value.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Hour floors t to the enclosing hour in UTC.
func Hour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// FormatValue renders a row value for keys and messages. Dates at midnight
// print as YYYY-MM-DD.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "<null>"
	case time.Time:
		if x.Equal(Day(x)) {
			return x.UTC().Format(time.DateOnly)
		}
		return x.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// FormatKey renders the cols of row as "col=value" pairs joined by commas.
// Columns missing from the schema are skipped.
func FormatKey(schema Schema, row []any, cols []string) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		i := schema.Index(c)
		if i < 0 {
			continue
		}
		parts = append(parts, c+"="+FormatValue(row[i]))
	}
	return strings.Join(parts, ",")
}

package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// MaxSampleKeys bounds the offending keys carried by a violation.
const MaxSampleKeys = 5

// Rule is one data-quality check over a single table. Check returns the
// key of every offending row; it may read other tables of the set but
// must not modify anything.
type Rule struct {
	Table   string
	Name    string
	Kind    types.ErrorKind
	Columns []string
	Check   func(ds types.Dataset, tables types.TableSet) ([]string, error)
}

func (r Rule) evaluate(tables types.TableSet) *types.Violation {
	v := &types.Violation{Table: r.Table, Rule: r.Name, Kind: r.Kind, Columns: r.Columns}
	ds, err := tables.Get(r.Table)
	if err != nil {
		v.Kind = types.KindSchema
		v.Message = fmt.Sprintf("table %s: %v", r.Table, err)
		return v
	}
	offending, err := r.Check(ds, tables)
	if err != nil {
		v.Kind = types.KindSchema
		v.Message = err.Error()
		return v
	}
	if len(offending) == 0 {
		return nil
	}
	v.Count = len(offending)
	v.Keys = sample(offending)
	return v
}

// sample returns up to MaxSampleKeys distinct keys in first-seen order.
func sample(keys []string) []string {
	out := make([]string, 0, MaxSampleKeys)
	for _, k := range keys {
		if len(out) == MaxSampleKeys {
			break
		}
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// columns resolves column names to positions or reports the first unknown.
func columns(s types.Schema, cols []string) ([]int, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		if idx[i] = s.Index(c); idx[i] < 0 {
			return nil, fmt.Errorf("table %s has no column %s", s.Name, c)
		}
	}
	return idx, nil
}

func rowKey(ds types.Dataset, row []any) string {
	return types.FormatKey(ds.Schema(), row, ds.Schema().Key())
}

// Unique requires the tuple of cols to be unique across the table. Every
// row sharing a duplicated tuple is offending.
func Unique(table string, cols ...string) Rule {
	return Rule{
		Table:   table,
		Name:    "unique_" + strings.Join(cols, "_"),
		Kind:    types.KindUniqueness,
		Columns: cols,
		Check: func(ds types.Dataset, _ types.TableSet) ([]string, error) {
			if _, err := columns(ds.Schema(), cols); err != nil {
				return nil, err
			}
			counts := make(map[string]int, ds.Len())
			keys := make([]string, ds.Len())
			for i := 0; i < ds.Len(); i++ {
				keys[i] = types.FormatKey(ds.Schema(), ds.Row(i), cols)
				counts[keys[i]]++
			}
			var out []string
			for _, k := range keys {
				if counts[k] > 1 {
					out = append(out, k)
				}
			}
			return out, nil
		},
	}
}

// NotNull requires col to be non-null in every row.
func NotNull(table, col string) Rule {
	return Rule{
		Table:   table,
		Name:    "not_null_" + col,
		Kind:    types.KindNonNull,
		Columns: []string{col},
		Check: func(ds types.Dataset, _ types.TableSet) ([]string, error) {
			idx, err := columns(ds.Schema(), []string{col})
			if err != nil {
				return nil, err
			}
			var out []string
			for i := 0; i < ds.Len(); i++ {
				row := ds.Row(i)
				if row[idx[0]] == nil {
					out = append(out, rowKey(ds, row))
				}
			}
			return out, nil
		},
	}
}

// References requires every non-null value of col to exist in refCol of
// refTable. Null references are left to NotNull.
func References(table, col, refTable, refCol string) Rule {
	return Rule{
		Table:   table,
		Name:    "fk_" + col + "_" + refTable,
		Kind:    types.KindReferential,
		Columns: []string{col},
		Check: func(ds types.Dataset, tables types.TableSet) ([]string, error) {
			idx, err := columns(ds.Schema(), []string{col})
			if err != nil {
				return nil, err
			}
			ref, err := tables.Get(refTable)
			if err != nil {
				return nil, fmt.Errorf("referenced table %s: %w", refTable, err)
			}
			refIdx, err := columns(ref.Schema(), []string{refCol})
			if err != nil {
				return nil, err
			}
			known := make(map[string]bool, ref.Len())
			for i := 0; i < ref.Len(); i++ {
				known[types.FormatValue(ref.Row(i)[refIdx[0]])] = true
			}
			var out []string
			for i := 0; i < ds.Len(); i++ {
				row := ds.Row(i)
				v := row[idx[0]]
				if v != nil && !known[types.FormatValue(v)] {
					out = append(out, rowKey(ds, row))
				}
			}
			return out, nil
		},
	}
}

// Business requires ok to hold for the value of col in every row. Null
// values are skipped.
func Business(table, name, col string, ok func(v any) bool) Rule {
	return Rule{
		Table:   table,
		Name:    name,
		Kind:    types.KindBusinessRule,
		Columns: []string{col},
		Check: func(ds types.Dataset, _ types.TableSet) ([]string, error) {
			idx, err := columns(ds.Schema(), []string{col})
			if err != nil {
				return nil, err
			}
			var out []string
			for i := 0; i < ds.Len(); i++ {
				row := ds.Row(i)
				if v := row[idx[0]]; v != nil && !ok(v) {
					out = append(out, rowKey(ds, row))
				}
			}
			return out, nil
		},
	}
}

// NonNegative requires a numeric column to be >= 0.
func NonNegative(table, col string) Rule {
	return Business(table, col+"_non_negative", col, func(v any) bool {
		n, ok := number(v)
		return ok && n >= 0
	})
}

// Positive requires a numeric column to be > 0.
func Positive(table, col string) Rule {
	return Business(table, col+"_positive", col, func(v any) bool {
		n, ok := number(v)
		return ok && n > 0
	})
}

// InDomain requires a string column to take one of values.
func InDomain(table, col string, values ...string) Rule {
	return Business(table, col+"_in_domain", col, func(v any) bool {
		s, ok := v.(string)
		return ok && slices.Contains(values, s)
	})
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

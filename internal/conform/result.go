package conform

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/bronze"
)

// Result reports what conformance did to one entity. Dropped counts rows
// removed by filters, keyed by reason. Coerced counts non-empty cells that
// did not parse and were stored as null, keyed by column.
type Result struct {
	Entity  string
	Table   string
	RowsIn  int
	RowsOut int
	Dropped map[string]int
	Coerced map[string]int
}

func newResult(b *bronze.RawBatch, table string) *Result {
	return &Result{
		Entity:  b.Entity,
		Table:   table,
		RowsIn:  b.Len(),
		Dropped: make(map[string]int),
		Coerced: make(map[string]int),
	}
}

func (r *Result) drop(reason string) {
	r.Dropped[reason]++
}

// DroppedTotal returns the number of rows removed by all filters.
func (r Result) DroppedTotal() int {
	n := 0
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Warnings renders the non-fatal findings in a stable order.
func (r Result) Warnings() []string {
	var out []string
	for _, reason := range sortedKeys(r.Dropped) {
		out = append(out, fmt.Sprintf("%s: dropped %d row(s): %s", r.Table, r.Dropped[reason], reason))
	}
	for _, col := range sortedKeys(r.Coerced) {
		out = append(out, fmt.Sprintf("%s: %d unparseable %s value(s) stored as null", r.Table, r.Coerced[col], col))
	}
	return out
}

// Log writes one warning per drop reason and coerced column, and a debug
// summary line.
func (r Result) Log(logger *zap.Logger) {
	for _, reason := range sortedKeys(r.Dropped) {
		logger.Warn("rows dropped",
			zap.String("table", r.Table),
			zap.String("reason", reason),
			zap.Int("dropped", r.Dropped[reason]),
		)
	}
	for _, col := range sortedKeys(r.Coerced) {
		logger.Warn("values coerced to null",
			zap.String("table", r.Table),
			zap.String("column", col),
			zap.Int("count", r.Coerced[col]),
		)
	}
	logger.Debug("entity conformed",
		zap.String("entity", r.Entity),
		zap.String("table", r.Table),
		zap.Int("rows_in", r.RowsIn),
		zap.Int("rows_out", r.RowsOut),
	)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package conform

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// cells reads typed values from one raw record. Non-empty cells that fail
// to parse are counted on the result and read as null.
type cells struct {
	b   *bronze.RawBatch
	res *Result
	row int
}

func (c cells) raw(col string) (string, bool) {
	return c.b.Get(c.row, col)
}

func (c cells) coerced(col string) {
	c.res.Coerced[col]++
}

func (c cells) text(col string, norm func(string) string) *string {
	v, ok := c.raw(col)
	if !ok {
		return nil
	}
	if v = norm(v); v == "" {
		return nil
	}
	return &v
}

func (c cells) integer(col string) *int64 {
	v, ok := c.raw(col)
	if !ok {
		return nil
	}
	n, ok := parseInt(v)
	if !ok {
		c.coerced(col)
		return nil
	}
	return &n
}

func (c cells) number(col string) *float64 {
	v, ok := c.raw(col)
	if !ok {
		return nil
	}
	f, ok := parseFloat(v)
	if !ok {
		c.coerced(col)
		return nil
	}
	return &f
}

func (c cells) date(col string) *time.Time {
	v, ok := c.raw(col)
	if !ok {
		return nil
	}
	t, ok := parseDate(v)
	if !ok {
		c.coerced(col)
		return nil
	}
	return &t
}

func (c cells) timestamp(col string) *time.Time {
	v, ok := c.raw(col)
	if !ok {
		return nil
	}
	t, ok := parseTimestamp(v)
	if !ok {
		c.coerced(col)
		return nil
	}
	return &t
}

// key reads an integer key. Malformed keys read as absent.
func (c cells) key(col string) (int64, bool) {
	v, ok := c.raw(col)
	if !ok {
		return 0, false
	}
	return parseInt(v)
}

// nullKey is the failure for a key or required column that is absent after
// conformance.
func nullKey(table, col string, row int) error {
	return &types.StageError{
		Kind:   types.KindConformance,
		Table:  table,
		Column: col,
		Reason: fmt.Sprintf("null or malformed value in required column at record %d", row+1),
	}
}

// probe fails with a SchemaError when col holds values but none of them
// parse, i.e. the column as a whole has the wrong type.
func probe(b *bronze.RawBatch, col string, parses func(string) bool) error {
	idx, ok := b.Column(col)
	if !ok {
		return nil
	}
	seen := false
	for i := range b.Records {
		v, ok := b.Value(i, idx)
		if !ok {
			continue
		}
		if parses(v) {
			return nil
		}
		seen = true
	}
	if !seen {
		return nil
	}
	return &types.StageError{
		Kind:   types.KindSchema,
		Table:  b.Entity,
		Column: col,
		Reason: "no value parses as the declared column type",
	}
}

func isInt(s string) bool {
	_, ok := parseInt(s)
	return ok
}

func isTimestamp(s string) bool {
	_, ok := parseTimestamp(s)
	return ok
}

// Package bronze reads raw entity extracts into untyped record batches and
// checks them against the input column contract of each entity.
package bronze

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// missingTokens are cell values treated as absent, in addition to "".
var missingTokens = map[string]bool{
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"NaT":  true,
}

// RawBatch is the untyped record set for one entity as received upstream.
type RawBatch struct {
	Entity  string
	Header  []string
	Records [][]string
	index   map[string]int
}

// NewRawBatch builds a batch from a header row and data records. Header
// names are trimmed. Records shorter than the header read as missing in the
// trailing cells.
func NewRawBatch(entity string, header []string, records [][]string) (*RawBatch, error) {
	b := &RawBatch{
		Entity:  entity,
		Header:  make([]string, len(header)),
		Records: records,
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := b.index[h]; dup {
			return nil, &types.StageError{
				Kind:   types.KindSchema,
				Table:  entity,
				Column: h,
				Reason: "duplicate column in header",
			}
		}
		b.Header[i] = h
		b.index[h] = i
	}
	if b.Records == nil {
		b.Records = [][]string{}
	}
	return b, nil
}

// Len returns the number of data records.
func (b *RawBatch) Len() int {
	return len(b.Records)
}

// Column returns the position of the named column.
func (b *RawBatch) Column(name string) (int, bool) {
	i, ok := b.index[name]
	return i, ok
}

// Value returns the trimmed cell at row and column position col. The second
// result is false when the cell is missing.
func (b *RawBatch) Value(row, col int) (string, bool) {
	rec := b.Records[row]
	if col < 0 || col >= len(rec) {
		return "", false
	}
	v := strings.TrimSpace(rec[col])
	if v == "" || missingTokens[v] {
		return "", false
	}
	return v, true
}

// Get is Value addressed by column name. Unknown columns read as missing.
func (b *RawBatch) Get(row int, name string) (string, bool) {
	col, ok := b.index[name]
	if !ok {
		return "", false
	}
	return b.Value(row, col)
}

// Require checks that every named column is present. It returns a
// SchemaError naming all missing columns.
func (b *RawBatch) Require(columns []string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := b.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &types.StageError{
		Kind:   types.KindSchema,
		Table:  b.Entity,
		Column: strings.Join(missing, ","),
		Reason: fmt.Sprintf("missing required column(s) %s", strings.Join(missing, ", ")),
	}
}

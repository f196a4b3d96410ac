package conform

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// checkInvariants verifies that every non-nullable column is non-null and
// that primary-key tuples are unique.
func checkInvariants(ds types.Dataset) error {
	schema := ds.Schema()
	pk := schema.PrimaryKey()
	seen := make(map[string]int, ds.Len())

	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		for j, col := range schema.Columns {
			if !col.Nullable && row[j] == nil {
				return &types.StageError{
					Kind:   types.KindConformance,
					Table:  ds.Name(),
					Column: col.Name,
					Reason: fmt.Sprintf("null in non-nullable column at output row %d", i+1),
				}
			}
		}
		if len(pk) == 0 {
			continue
		}
		key := types.FormatKey(schema, row, pk)
		if first, dup := seen[key]; dup {
			return &types.StageError{
				Kind:   types.KindConformance,
				Table:  ds.Name(),
				Column: strings.Join(pk, ","),
				Reason: fmt.Sprintf("duplicate primary key %s at output rows %d and %d", key, first+1, i+1),
			}
		}
		seen[key] = i
	}
	return nil
}

package conform

import (
	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// conformInventory drops movements whose quantity is missing or not
// positive or whose date is missing or malformed, and upper-cases the
// movement type.
func conformInventory(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probeKeys(b, "movement_id", "product_id"); err != nil {
		return nil, err
	}
	rows := make([]types.InventoryMovement, 0, b.Len())
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		id, ok := c.key("movement_id")
		if !ok {
			return nil, nullKey(types.TableInventory, "movement_id", i)
		}
		qty := c.integer("quantity")
		if qty == nil || *qty <= 0 {
			res.drop(reasonNonPositiveQty)
			continue
		}
		product, ok := c.key("product_id")
		if !ok {
			return nil, nullKey(types.TableInventory, "product_id", i)
		}
		date := c.date("movement_date")
		if date == nil {
			res.drop(reasonMissingMoveDate)
			continue
		}
		rows = append(rows, types.InventoryMovement{
			MovementID:   id,
			ProductID:    product,
			MovementDate: *date,
			MovementType: c.text("movement_type", upperCase),
			Quantity:     *qty,
		})
	}
	return types.NewTable(types.InventorySchema, rows), nil
}

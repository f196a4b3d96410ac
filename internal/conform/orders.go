package conform

import (
	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Drop reasons shared by the order, inventory and machine filters.
const (
	reasonMissingCustomer   = "missing customer_id"
	reasonMissingOrder      = "missing order_id"
	reasonMissingProduct    = "missing product_id"
	reasonMissingQuantity   = "missing quantity"
	reasonNonPositiveQty    = "non-positive quantity"
	reasonNonPositiveMins   = "non-positive duration_mins"
	reasonMissingMoveDate   = "missing movement_date"
	reasonMissingTimestamp  = "missing timestamp"
	reasonMissingStart      = "missing start_ts"
	reasonMissingMeasurePfx = "missing "
)

// conformOrders drops headers without a customer reference. Referential
// completeness of the header is enforced here rather than at the join.
func conformOrders(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probeKeys(b, "order_id", "customer_id"); err != nil {
		return nil, err
	}
	rows := make([]types.OrderHeader, 0, b.Len())
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		id, ok := c.key("order_id")
		if !ok {
			return nil, nullKey(types.TableOrdersHead, "order_id", i)
		}
		customer, ok := c.key("customer_id")
		if !ok {
			res.drop(reasonMissingCustomer)
			continue
		}
		rows = append(rows, types.OrderHeader{
			OrderID:    id,
			OrderDate:  c.date("order_date"),
			CustomerID: customer,
			Status:     c.text("status", upperCase),
		})
	}
	return types.NewTable(types.OrdersHeadSchema, rows), nil
}

// conformOrderLines drops lines missing their order, product or quantity,
// and lines whose quantity is not positive.
func conformOrderLines(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probeKeys(b, "order_line_id", "order_id", "product_id"); err != nil {
		return nil, err
	}
	rows := make([]types.OrderLine, 0, b.Len())
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		id, ok := c.key("order_line_id")
		if !ok {
			return nil, nullKey(types.TableOrdersLines, "order_line_id", i)
		}
		order, ok := c.key("order_id")
		if !ok {
			res.drop(reasonMissingOrder)
			continue
		}
		product, ok := c.key("product_id")
		if !ok {
			res.drop(reasonMissingProduct)
			continue
		}
		qty := c.integer("quantity")
		if qty == nil {
			res.drop(reasonMissingQuantity)
			continue
		}
		if *qty <= 0 {
			res.drop(reasonNonPositiveQty)
			continue
		}
		rows = append(rows, types.OrderLine{
			OrderLineID: id,
			OrderID:     order,
			ProductID:   product,
			Quantity:    *qty,
		})
	}
	return types.NewTable(types.OrdersLinesSchema, rows), nil
}

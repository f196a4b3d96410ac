package transform

import (
	"sort"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// BuildFactOrders left-joins order lines to their header on order_id and to
// their product on product_id. A line whose header or product is missing is
// kept with the unresolved attributes null and the matching flag false.
// extended_amount is quantity times unit_price when the price is known.
// Rows are ordered by order_line_id.
func BuildFactOrders(lines *types.Table[types.OrderLine], head *types.Table[types.OrderHeader], products *types.Table[types.Product]) *types.Table[types.FactOrder] {
	headers := make(map[int64]types.OrderHeader, head.Len())
	for _, h := range head.Rows {
		headers[h.OrderID] = h
	}
	prices := make(map[int64]types.Product, products.Len())
	for _, p := range products.Rows {
		prices[p.ProductID] = p
	}

	rows := make([]types.FactOrder, 0, lines.Len())
	for _, l := range lines.Rows {
		f := types.FactOrder{
			OrderLineID: l.OrderLineID,
			OrderID:     l.OrderID,
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
		}
		if h, ok := headers[l.OrderID]; ok {
			f.HeaderResolved = true
			f.Date = h.OrderDate
			f.CustomerID = types.Ptr(h.CustomerID)
			f.Status = h.Status
		}
		if p, ok := prices[l.ProductID]; ok {
			f.ProductResolved = true
			f.UnitPrice = p.UnitPrice
			f.Category = p.Category
		}
		if f.UnitPrice != nil {
			f.ExtendedAmount = types.Ptr(float64(f.Quantity) * *f.UnitPrice)
		}
		rows = append(rows, f)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OrderLineID < rows[j].OrderLineID
	})
	return types.NewTable(types.FactOrdersSchema, rows)
}

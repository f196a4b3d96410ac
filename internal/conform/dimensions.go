package conform

import (
	"fmt"

	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// conformCustomers lower-cases emails, title-cases countries and parses the
// creation date. No rows are dropped.
func conformCustomers(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probeKeys(b, "customer_id"); err != nil {
		return nil, err
	}
	rows := make([]types.Customer, 0, b.Len())
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		id, ok := c.key("customer_id")
		if !ok {
			return nil, nullKey(types.TableDimCustomers, "customer_id", i)
		}
		rows = append(rows, types.Customer{
			CustomerID:   id,
			CustomerName: c.text("customer_name", trimmed),
			Email:        c.text("email", lowerCase),
			Country:      c.text("country", titleCase),
			CreatedDate:  c.date("created_date"),
		})
	}
	return types.NewTable(types.CustomersSchema, rows), nil
}

// conformProducts coerces unit_price to a number and normalizes category.
// A present but non-numeric price fails the whole batch with a TypeError.
func conformProducts(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probeKeys(b, "product_id"); err != nil {
		return nil, err
	}
	rows := make([]types.Product, 0, b.Len())
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		id, ok := c.key("product_id")
		if !ok {
			return nil, nullKey(types.TableDimProducts, "product_id", i)
		}
		var price *float64
		if v, ok := c.raw("unit_price"); ok {
			f, ok := parseFloat(v)
			if !ok {
				return nil, &types.StageError{
					Kind:   types.KindType,
					Table:  types.TableDimProducts,
					Column: "unit_price",
					Reason: fmt.Sprintf("non-numeric value %q for product_id %d", v, id),
				}
			}
			price = &f
		}
		rows = append(rows, types.Product{
			ProductID:   id,
			SKU:         c.text("sku", trimmed),
			ProductName: c.text("product_name", trimmed),
			Category:    c.text("category", titleCase),
			UnitPrice:   price,
		})
	}
	return types.NewTable(types.ProductsSchema, rows), nil
}

// conformCalendar parses the date and derives its attributes. No filtering.
func conformCalendar(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probe(b, "date", isTimestamp); err != nil {
		return nil, err
	}
	rows := make([]types.CalendarDay, 0, b.Len())
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		d := c.date("date")
		if d == nil {
			return nil, nullKey(types.TableDimCalendar, "date", i)
		}
		rows = append(rows, types.NewCalendarDay(*d))
	}
	return types.NewTable(types.CalendarSchema, rows), nil
}

package types

import "time"

// FactOrder is a row of fact_orders: one order line joined to its header
// and product. Attributes of an unresolved header or product are null and
// the matching *Resolved flag is false.
type FactOrder struct {
	OrderLineID     int64      `json:"order_line_id"`
	OrderID         int64      `json:"order_id"`
	ProductID       int64      `json:"product_id"`
	Quantity        int64      `json:"quantity"`
	Date            *time.Time `json:"date"`
	CustomerID      *int64     `json:"customer_id"`
	Status          *string    `json:"status"`
	UnitPrice       *float64   `json:"unit_price"`
	Category        *string    `json:"category"`
	ExtendedAmount  *float64   `json:"extended_amount"`
	HeaderResolved  bool       `json:"header_resolved"`
	ProductResolved bool       `json:"product_resolved"`
}

// Values implements Record.
func (f FactOrder) Values() []any {
	return []any{
		f.OrderLineID, f.OrderID, f.ProductID, f.Quantity,
		nullable(f.Date), nullable(f.CustomerID), nullable(f.Status),
		nullable(f.UnitPrice), nullable(f.Category), nullable(f.ExtendedAmount),
		f.HeaderResolved, f.ProductResolved,
	}
}

// InventoryAgg is a row of agg_inventory_movements.
type InventoryAgg struct {
	Date         time.Time `json:"date"`
	ProductID    int64     `json:"product_id"`
	MovementType *string   `json:"movement_type"`
	Quantity     int64     `json:"quantity"`
	Movements    int64     `json:"movements"`
}

// Values implements Record.
func (a InventoryAgg) Values() []any {
	return []any{a.Date, a.ProductID, nullable(a.MovementType), a.Quantity, a.Movements}
}

// MachineKPI is a row of kpi_machine_hourly.
type MachineKPI struct {
	Hour         time.Time `json:"hour"`
	MachineID    string    `json:"machine_id"`
	AvgTemp      float64   `json:"avg_temp"`
	AvgVibration float64   `json:"avg_vibration"`
	TotalUnits   int64     `json:"total_units"`
	Readings     int64     `json:"readings"`
}

// Values implements Record.
func (k MachineKPI) Values() []any {
	return []any{k.Hour, k.MachineID, k.AvgTemp, k.AvgVibration, k.TotalUnits, k.Readings}
}

// DowntimeAgg is a row of agg_downtime_daily.
type DowntimeAgg struct {
	Date        time.Time `json:"date"`
	MachineID   string    `json:"machine_id"`
	Events      int64     `json:"events"`
	MinutesDown int64     `json:"minutes_down"`
}

// Values implements Record.
func (a DowntimeAgg) Values() []any {
	return []any{a.Date, a.MachineID, a.Events, a.MinutesDown}
}

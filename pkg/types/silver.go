package types

import "time"

// Customer is a row of dim_customers.
type Customer struct {
	CustomerID   int64      `json:"customer_id"`
	CustomerName *string    `json:"customer_name"`
	Email        *string    `json:"email"`
	Country      *string    `json:"country"`
	CreatedDate  *time.Time `json:"created_date"`
}

// Values implements Record.
func (c Customer) Values() []any {
	return []any{c.CustomerID, nullable(c.CustomerName), nullable(c.Email), nullable(c.Country), nullable(c.CreatedDate)}
}

// Product is a row of dim_products.
type Product struct {
	ProductID   int64    `json:"product_id"`
	SKU         *string  `json:"sku"`
	ProductName *string  `json:"product_name"`
	Category    *string  `json:"category"`
	UnitPrice   *float64 `json:"unit_price"`
}

// Values implements Record.
func (p Product) Values() []any {
	return []any{p.ProductID, nullable(p.SKU), nullable(p.ProductName), nullable(p.Category), nullable(p.UnitPrice)}
}

// Order statuses accepted by the orders_head status domain.
const (
	StatusPending   = "PENDING"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

// OrderStatuses is the status domain of orders_head.
var OrderStatuses = []string{StatusPending, StatusShipped, StatusDelivered, StatusCancelled}

// OrderHeader is a row of orders_head.
type OrderHeader struct {
	OrderID    int64      `json:"order_id"`
	OrderDate  *time.Time `json:"order_date"`
	CustomerID int64      `json:"customer_id"`
	Status     *string    `json:"status"`
}

// Values implements Record.
func (o OrderHeader) Values() []any {
	return []any{o.OrderID, nullable(o.OrderDate), o.CustomerID, nullable(o.Status)}
}

// OrderLine is a row of orders_lines.
type OrderLine struct {
	OrderLineID int64 `json:"order_line_id"`
	OrderID     int64 `json:"order_id"`
	ProductID   int64 `json:"product_id"`
	Quantity    int64 `json:"quantity"`
}

// Values implements Record.
func (l OrderLine) Values() []any {
	return []any{l.OrderLineID, l.OrderID, l.ProductID, l.Quantity}
}

// Movement types.
const (
	MovementInbound  = "INBOUND"
	MovementOutbound = "OUTBOUND"
)

// InventoryMovement is a row of inventory_movements.
type InventoryMovement struct {
	MovementID   int64     `json:"movement_id"`
	ProductID    int64     `json:"product_id"`
	MovementDate time.Time `json:"movement_date"`
	MovementType *string   `json:"movement_type"`
	Quantity     int64     `json:"quantity"`
}

// Values implements Record.
func (m InventoryMovement) Values() []any {
	return []any{m.MovementID, m.ProductID, m.MovementDate, nullable(m.MovementType), m.Quantity}
}

// SensorReading is a row of machine_sensor_readings.
type SensorReading struct {
	ReadingID    int64     `json:"reading_id"`
	Timestamp    time.Time `json:"timestamp"`
	MachineID    string    `json:"machine_id"`
	TempC        float64   `json:"temp_c"`
	VibrationG   float64   `json:"vibration_g"`
	UnitsPerHour int64     `json:"units_per_hour"`
}

// Values implements Record.
func (r SensorReading) Values() []any {
	return []any{r.ReadingID, r.Timestamp, r.MachineID, r.TempC, r.VibrationG, r.UnitsPerHour}
}

// DowntimeEvent is a row of downtime_events.
type DowntimeEvent struct {
	EventID      int64      `json:"event_id"`
	MachineID    string     `json:"machine_id"`
	StartTS      time.Time  `json:"start_ts"`
	EndTS        *time.Time `json:"end_ts"`
	DurationMins int64      `json:"duration_mins"`
	Reason       *string    `json:"reason"`
}

// Values implements Record.
func (e DowntimeEvent) Values() []any {
	return []any{e.EventID, e.MachineID, e.StartTS, nullable(e.EndTS), e.DurationMins, nullable(e.Reason)}
}

// CalendarDay is a row of dim_calendar.
type CalendarDay struct {
	Date      time.Time `json:"date"`
	Year      int64     `json:"year"`
	Month     int64     `json:"month"`
	Day       int64     `json:"day"`
	DayOfWeek string    `json:"dow"`
	IsWeekend bool      `json:"is_weekend"`
}

// Values implements Record.
func (d CalendarDay) Values() []any {
	return []any{d.Date, d.Year, d.Month, d.Day, d.DayOfWeek, d.IsWeekend}
}

// NewCalendarDay derives the calendar attributes of date.
func NewCalendarDay(date time.Time) CalendarDay {
	date = Day(date)
	wd := date.Weekday()
	return CalendarDay{
		Date:      date,
		Year:      int64(date.Year()),
		Month:     int64(date.Month()),
		Day:       int64(date.Day()),
		DayOfWeek: wd.String(),
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
	}
}

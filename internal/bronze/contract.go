package bronze

import "github.com/mesh-intelligence/strata/pkg/types"

// InputColumns lists the columns each bronze entity must carry.
var InputColumns = map[string][]string{
	types.EntityCustomers:          {"customer_id", "customer_name", "email", "country", "created_date"},
	types.EntityProducts:           {"product_id", "sku", "product_name", "category", "unit_price"},
	types.EntityOrders:             {"order_id", "order_date", "customer_id", "status"},
	types.EntityOrderLines:         {"order_line_id", "order_id", "product_id", "quantity"},
	types.EntityInventoryMovements: {"movement_id", "product_id", "movement_date", "movement_type", "quantity"},
	types.EntitySensorReadings:     {"reading_id", "timestamp", "machine_id", "temp_c", "vibration_g", "units_per_hour"},
	types.EntityDowntimeEvents:     {"event_id", "machine_id", "start_ts", "end_ts", "duration_mins", "reason"},
	types.EntityCalendar:           {"date"},
}

// FileName returns the bronze file name of an entity.
func FileName(entity string) string {
	return entity + ".csv"
}

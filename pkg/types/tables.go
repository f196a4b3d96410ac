package types

// Bronze entity names. Each entity arrives as <entity>.csv.
const (
	EntityCustomers          = "customers"
	EntityProducts           = "products"
	EntityOrders             = "orders"
	EntityOrderLines         = "order_lines"
	EntityInventoryMovements = "inventory_movements"
	EntitySensorReadings     = "machine_sensor_readings"
	EntityDowntimeEvents     = "downtime_events"
	EntityCalendar           = "calendar"
)

// Entities lists every bronze entity in processing order.
var Entities = []string{
	EntityCustomers,
	EntityProducts,
	EntityOrders,
	EntityOrderLines,
	EntityInventoryMovements,
	EntitySensorReadings,
	EntityDowntimeEvents,
	EntityCalendar,
}

// Silver (conformed) table names.
const (
	TableDimCustomers   = "dim_customers"
	TableDimProducts    = "dim_products"
	TableOrdersHead     = "orders_head"
	TableOrdersLines    = "orders_lines"
	TableInventory      = "inventory_movements"
	TableSensorReadings = "machine_sensor_readings"
	TableDowntimeEvents = "downtime_events"
	TableDimCalendar    = "dim_calendar"
)

// Gold (derived) table names. The dimension tables keep their silver names.
const (
	TableFactOrders     = "fact_orders"
	TableAggInventory   = "agg_inventory_movements"
	TableKPIMachineHour = "kpi_machine_hourly"
	TableAggDowntimeDay = "agg_downtime_daily"
)

// SilverTableNames lists the conformed tables in entity order.
var SilverTableNames = []string{
	TableDimCustomers,
	TableDimProducts,
	TableOrdersHead,
	TableOrdersLines,
	TableInventory,
	TableSensorReadings,
	TableDowntimeEvents,
	TableDimCalendar,
}

// GoldTableNames lists the tables handed to the catalog publisher.
var GoldTableNames = []string{
	TableDimCustomers,
	TableDimProducts,
	TableDimCalendar,
	TableFactOrders,
	TableAggInventory,
	TableKPIMachineHour,
	TableAggDowntimeDay,
}

// SilverTableFor maps a bronze entity to the conformed table it produces.
var SilverTableFor = map[string]string{
	EntityCustomers:          TableDimCustomers,
	EntityProducts:           TableDimProducts,
	EntityOrders:             TableOrdersHead,
	EntityOrderLines:         TableOrdersLines,
	EntityInventoryMovements: TableInventory,
	EntitySensorReadings:     TableSensorReadings,
	EntityDowntimeEvents:     TableDowntimeEvents,
	EntityCalendar:           TableDimCalendar,
}

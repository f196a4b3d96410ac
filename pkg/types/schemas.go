package types

func pk(name string, t ColumnType) Column {
	return Column{Name: name, Type: t, Role: RolePrimaryKey}
}

func fk(name string, t ColumnType, nullable bool) Column {
	return Column{Name: name, Type: t, Nullable: nullable, Role: RoleForeignKey}
}

func measure(name string, t ColumnType, nullable bool) Column {
	return Column{Name: name, Type: t, Nullable: nullable, Role: RoleMeasure}
}

func attr(name string, t ColumnType, nullable bool) Column {
	return Column{Name: name, Type: t, Nullable: nullable, Role: RoleAttribute}
}

func timeCol(name string, t ColumnType, nullable bool) Column {
	return Column{Name: name, Type: t, Nullable: nullable, Role: RoleTimestamp}
}

// Silver schemas.
var (
	CustomersSchema = Schema{
		Name: TableDimCustomers,
		Columns: []Column{
			pk("customer_id", TypeInt),
			attr("customer_name", TypeString, true),
			attr("email", TypeString, true),
			attr("country", TypeCategory, true),
			timeCol("created_date", TypeDate, true),
		},
	}

	ProductsSchema = Schema{
		Name: TableDimProducts,
		Columns: []Column{
			pk("product_id", TypeInt),
			attr("sku", TypeString, true),
			attr("product_name", TypeString, true),
			attr("category", TypeCategory, true),
			measure("unit_price", TypeFloat, true),
		},
	}

	OrdersHeadSchema = Schema{
		Name: TableOrdersHead,
		Columns: []Column{
			pk("order_id", TypeInt),
			timeCol("order_date", TypeDate, true),
			fk("customer_id", TypeInt, false),
			attr("status", TypeCategory, true),
		},
	}

	OrdersLinesSchema = Schema{
		Name: TableOrdersLines,
		Columns: []Column{
			pk("order_line_id", TypeInt),
			fk("order_id", TypeInt, false),
			fk("product_id", TypeInt, false),
			measure("quantity", TypeInt, false),
		},
	}

	InventorySchema = Schema{
		Name: TableInventory,
		Columns: []Column{
			pk("movement_id", TypeInt),
			fk("product_id", TypeInt, false),
			timeCol("movement_date", TypeDate, false),
			attr("movement_type", TypeCategory, true),
			measure("quantity", TypeInt, false),
		},
	}

	SensorReadingsSchema = Schema{
		Name: TableSensorReadings,
		Columns: []Column{
			pk("reading_id", TypeInt),
			timeCol("timestamp", TypeTimestamp, false),
			fk("machine_id", TypeString, false),
			measure("temp_c", TypeFloat, false),
			measure("vibration_g", TypeFloat, false),
			measure("units_per_hour", TypeInt, false),
		},
	}

	DowntimeEventsSchema = Schema{
		Name: TableDowntimeEvents,
		Columns: []Column{
			pk("event_id", TypeInt),
			fk("machine_id", TypeString, false),
			timeCol("start_ts", TypeTimestamp, false),
			timeCol("end_ts", TypeTimestamp, true),
			measure("duration_mins", TypeInt, false),
			attr("reason", TypeCategory, true),
		},
	}

	CalendarSchema = Schema{
		Name: TableDimCalendar,
		Columns: []Column{
			pk("date", TypeDate),
			attr("year", TypeInt, false),
			attr("month", TypeInt, false),
			attr("day", TypeInt, false),
			attr("dow", TypeCategory, false),
			attr("is_weekend", TypeBool, false),
		},
	}
)

// Gold schemas. Dimension tables reuse their silver schemas.
var (
	FactOrdersSchema = Schema{
		Name: TableFactOrders,
		Columns: []Column{
			pk("order_line_id", TypeInt),
			fk("order_id", TypeInt, false),
			fk("product_id", TypeInt, false),
			measure("quantity", TypeInt, false),
			timeCol("date", TypeDate, true),
			fk("customer_id", TypeInt, true),
			attr("status", TypeCategory, true),
			measure("unit_price", TypeFloat, true),
			attr("category", TypeCategory, true),
			measure("extended_amount", TypeFloat, true),
			attr("header_resolved", TypeBool, false),
			attr("product_resolved", TypeBool, false),
		},
	}

	AggInventorySchema = Schema{
		Name: TableAggInventory,
		Columns: []Column{
			timeCol("date", TypeDate, false),
			fk("product_id", TypeInt, false),
			attr("movement_type", TypeCategory, true),
			measure("quantity", TypeInt, false),
			measure("movements", TypeInt, false),
		},
		Grain: []string{"date", "product_id", "movement_type"},
	}

	KPIMachineHourlySchema = Schema{
		Name: TableKPIMachineHour,
		Columns: []Column{
			timeCol("hour", TypeTimestamp, false),
			fk("machine_id", TypeString, false),
			measure("avg_temp", TypeFloat, false),
			measure("avg_vibration", TypeFloat, false),
			measure("total_units", TypeInt, false),
			measure("readings", TypeInt, false),
		},
		Grain: []string{"hour", "machine_id"},
	}

	AggDowntimeDailySchema = Schema{
		Name: TableAggDowntimeDay,
		Columns: []Column{
			timeCol("date", TypeDate, false),
			fk("machine_id", TypeString, false),
			measure("events", TypeInt, false),
			measure("minutes_down", TypeInt, false),
		},
		Grain: []string{"date", "machine_id"},
	}
)

// SchemaFor returns the schema of a silver or gold table by name.
func SchemaFor(name string) (Schema, error) {
	for _, s := range []Schema{
		CustomersSchema, ProductsSchema, OrdersHeadSchema, OrdersLinesSchema,
		InventorySchema, SensorReadingsSchema, DowntimeEventsSchema, CalendarSchema,
		FactOrdersSchema, AggInventorySchema, KPIMachineHourlySchema, AggDowntimeDailySchema,
	} {
		if s.Name == name {
			return s, nil
		}
	}
	return Schema{}, ErrTableNotFound
}

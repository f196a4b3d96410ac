package validate

import "github.com/mesh-intelligence/strata/pkg/types"

// DefaultRules is the production rule set over the silver and gold tables.
func DefaultRules() []Rule {
	return []Rule{
		Unique(types.TableDimCustomers, "customer_id"),
		Unique(types.TableDimProducts, "product_id"),
		Unique(types.TableDimCalendar, "date"),
		Unique(types.TableOrdersHead, "order_id"),
		Unique(types.TableOrdersLines, "order_line_id"),
		Unique(types.TableFactOrders, "order_line_id"),
		Unique(types.TableAggInventory, types.AggInventorySchema.Grain...),
		Unique(types.TableKPIMachineHour, types.KPIMachineHourlySchema.Grain...),
		Unique(types.TableAggDowntimeDay, types.AggDowntimeDailySchema.Grain...),

		NotNull(types.TableOrdersHead, "order_id"),
		NotNull(types.TableOrdersHead, "customer_id"),
		NotNull(types.TableOrdersHead, "order_date"),
		NotNull(types.TableOrdersLines, "order_line_id"),
		NotNull(types.TableOrdersLines, "order_id"),
		NotNull(types.TableOrdersLines, "product_id"),
		NotNull(types.TableOrdersLines, "quantity"),
		NotNull(types.TableFactOrders, "extended_amount"),

		References(types.TableOrdersHead, "customer_id", types.TableDimCustomers, "customer_id"),
		References(types.TableFactOrders, "order_id", types.TableOrdersHead, "order_id"),
		References(types.TableFactOrders, "product_id", types.TableDimProducts, "product_id"),

		NonNegative(types.TableFactOrders, "extended_amount"),
		InDomain(types.TableOrdersHead, "status", types.OrderStatuses...),
		Positive(types.TableAggInventory, "quantity"),
		Positive(types.TableAggDowntimeDay, "minutes_down"),
	}
}

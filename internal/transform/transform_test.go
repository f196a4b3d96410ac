package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

var day1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day1.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestBuildFactOrdersExtendedAmount(t *testing.T) {
	lines := types.NewTable(types.OrdersLinesSchema, []types.OrderLine{
		{OrderLineID: 1, OrderID: 100, ProductID: 10, Quantity: 4},
	})
	head := types.NewTable(types.OrdersHeadSchema, []types.OrderHeader{
		{OrderID: 100, OrderDate: types.Ptr(day1), CustomerID: 1, Status: types.Ptr(types.StatusShipped)},
	})
	products := types.NewTable(types.ProductsSchema, []types.Product{
		{ProductID: 10, UnitPrice: types.Ptr(2.50), Category: types.Ptr("Sensors")},
	})

	fact := BuildFactOrders(lines, head, products)
	require.Len(t, fact.Rows, 1)
	f := fact.Rows[0]
	require.NotNil(t, f.ExtendedAmount)
	assert.InDelta(t, 10.00, *f.ExtendedAmount, 1e-9)
	assert.Equal(t, int64(1), *f.CustomerID)
	assert.Equal(t, day1, *f.Date)
	assert.Equal(t, "Sensors", *f.Category)
	assert.True(t, f.HeaderResolved)
	assert.True(t, f.ProductResolved)
}

func TestBuildFactOrdersNullPropagates(t *testing.T) {
	lines := types.NewTable(types.OrdersLinesSchema, []types.OrderLine{
		{OrderLineID: 3, OrderID: 100, ProductID: 99, Quantity: 1},
		{OrderLineID: 1, OrderID: 999, ProductID: 10, Quantity: 2},
		{OrderLineID: 2, OrderID: 100, ProductID: 11, Quantity: 2},
	})
	head := types.NewTable(types.OrdersHeadSchema, []types.OrderHeader{{OrderID: 100, CustomerID: 1}})
	products := types.NewTable(types.ProductsSchema, []types.Product{
		{ProductID: 10, UnitPrice: types.Ptr(1.5)},
		{ProductID: 11},
	})

	fact := BuildFactOrders(lines, head, products)
	require.Len(t, fact.Rows, 3, "no line is dropped")

	ids := []int64{fact.Rows[0].OrderLineID, fact.Rows[1].OrderLineID, fact.Rows[2].OrderLineID}
	assert.Equal(t, []int64{1, 2, 3}, ids)

	missingHeader := fact.Rows[0]
	assert.False(t, missingHeader.HeaderResolved)
	assert.Nil(t, missingHeader.CustomerID)
	assert.Nil(t, missingHeader.Date)
	assert.InDelta(t, 3.0, *missingHeader.ExtendedAmount, 1e-9)

	unpriced := fact.Rows[1]
	assert.True(t, unpriced.ProductResolved)
	assert.Nil(t, unpriced.ExtendedAmount)

	missingProduct := fact.Rows[2]
	assert.False(t, missingProduct.ProductResolved)
	assert.Nil(t, missingProduct.UnitPrice)
	assert.Nil(t, missingProduct.ExtendedAmount)
}

func TestFactConservesOrderAmounts(t *testing.T) {
	lines := types.NewTable(types.OrdersLinesSchema, []types.OrderLine{
		{OrderLineID: 1, OrderID: 100, ProductID: 10, Quantity: 4},
		{OrderLineID: 2, OrderID: 100, ProductID: 11, Quantity: 1},
		{OrderLineID: 3, OrderID: 100, ProductID: 10, Quantity: 3},
		{OrderLineID: 4, OrderID: 200, ProductID: 12, Quantity: 7},
		{OrderLineID: 5, OrderID: 200, ProductID: 11, Quantity: 2},
		{OrderLineID: 6, OrderID: 300, ProductID: 10, Quantity: 5},
		{OrderLineID: 7, OrderID: 300, ProductID: 12, Quantity: 1},
		{OrderLineID: 8, OrderID: 999, ProductID: 10, Quantity: 9},
	})
	head := types.NewTable(types.OrdersHeadSchema, []types.OrderHeader{
		{OrderID: 100, CustomerID: 1},
		{OrderID: 200, CustomerID: 2},
		{OrderID: 300, CustomerID: 1},
	})
	products := types.NewTable(types.ProductsSchema, []types.Product{
		{ProductID: 10, UnitPrice: types.Ptr(2.25)},
		{ProductID: 11, UnitPrice: types.Ptr(19.99)},
		{ProductID: 12, UnitPrice: types.Ptr(0.1)},
	})
	prices := map[int64]float64{}
	for _, p := range products.Rows {
		prices[p.ProductID] = *p.UnitPrice
	}
	resolved := map[int64]bool{}
	for _, h := range head.Rows {
		resolved[h.OrderID] = true
	}

	want := map[int64]float64{}
	for _, l := range lines.Rows {
		if resolved[l.OrderID] {
			want[l.OrderID] += float64(l.Quantity) * prices[l.ProductID]
		}
	}

	fact := BuildFactOrders(lines, head, products)
	require.Len(t, fact.Rows, lines.Len())
	got := map[int64]float64{}
	for _, f := range fact.Rows {
		if !f.HeaderResolved {
			assert.Equal(t, int64(999), f.OrderID)
			continue
		}
		require.True(t, f.ProductResolved)
		require.NotNil(t, f.ExtendedAmount)
		got[f.OrderID] += *f.ExtendedAmount
	}

	require.Len(t, got, 3)
	for order, amount := range want {
		assert.InDelta(t, amount, got[order], 1e-9, "order %d", order)
	}
}

func TestBuildInventoryAgg(t *testing.T) {
	in := types.Ptr(types.MovementInbound)
	out := types.Ptr(types.MovementOutbound)
	movements := types.NewTable(types.InventorySchema, []types.InventoryMovement{
		{MovementID: 1, ProductID: 10, MovementDate: day1, MovementType: in, Quantity: 5},
		{MovementID: 2, ProductID: 10, MovementDate: day1, MovementType: out, Quantity: 3},
		{MovementID: 3, ProductID: 10, MovementDate: day1, MovementType: in, Quantity: 7},
		{MovementID: 4, ProductID: 9, MovementDate: day1.AddDate(0, 0, 1), MovementType: in, Quantity: 1},
		{MovementID: 5, ProductID: 9, MovementDate: day1, Quantity: 2},
	})

	agg := BuildInventoryAgg(movements)
	require.Len(t, agg.Rows, 4)

	assert.Equal(t, int64(9), agg.Rows[0].ProductID)
	assert.Nil(t, agg.Rows[0].MovementType)

	inbound := agg.Rows[1]
	assert.Equal(t, int64(10), inbound.ProductID)
	assert.Equal(t, types.MovementInbound, *inbound.MovementType)
	assert.Equal(t, int64(12), inbound.Quantity)
	assert.Equal(t, int64(2), inbound.Movements)

	assert.Equal(t, types.MovementOutbound, *agg.Rows[2].MovementType)
	assert.Equal(t, day1.AddDate(0, 0, 1), agg.Rows[3].Date)

	var total int64
	for _, r := range agg.Rows {
		total += r.Quantity
	}
	assert.Equal(t, int64(18), total, "sum is conserved")
}

func TestBuildMachineKPI(t *testing.T) {
	readings := types.NewTable(types.SensorReadingsSchema, []types.SensorReading{
		{ReadingID: 1, Timestamp: at(10, 5), MachineID: "M2", TempC: 20, VibrationG: 0.5, UnitsPerHour: 40},
		{ReadingID: 2, Timestamp: at(10, 59), MachineID: "M2", TempC: 22, VibrationG: 0.7, UnitsPerHour: 60},
		{ReadingID: 3, Timestamp: at(11, 0), MachineID: "M2", TempC: 30, VibrationG: 1, UnitsPerHour: 10},
		{ReadingID: 4, Timestamp: at(10, 30), MachineID: "M1", TempC: 18, VibrationG: 0.2, UnitsPerHour: 5},
	})

	kpi := BuildMachineKPI(readings)
	require.Len(t, kpi.Rows, 3)

	assert.Equal(t, "M1", kpi.Rows[0].MachineID)
	first := kpi.Rows[1]
	assert.Equal(t, at(10, 0), first.Hour)
	assert.Equal(t, "M2", first.MachineID)
	assert.InDelta(t, 21.0, first.AvgTemp, 1e-9)
	assert.InDelta(t, 0.6, first.AvgVibration, 1e-9)
	assert.Equal(t, int64(100), first.TotalUnits)
	assert.Equal(t, int64(2), first.Readings)

	assert.Equal(t, at(11, 0), kpi.Rows[2].Hour)
}

func TestBuildDowntimeDaily(t *testing.T) {
	events := types.NewTable(types.DowntimeEventsSchema, []types.DowntimeEvent{
		{EventID: 1, MachineID: "M1", StartTS: at(8, 0), DurationMins: 45},
		{EventID: 2, MachineID: "M1", StartTS: at(23, 50), DurationMins: 30},
		{EventID: 3, MachineID: "M1", StartTS: at(24, 10), DurationMins: 5},
	})

	agg := BuildDowntimeDaily(events)
	require.Len(t, agg.Rows, 2)
	assert.Equal(t, types.DowntimeAgg{Date: day1, MachineID: "M1", Events: 2, MinutesDown: 75}, agg.Rows[0])
	assert.Equal(t, int64(5), agg.Rows[1].MinutesDown)
}

func TestAggregatesHaveUniqueGrain(t *testing.T) {
	movements := make([]types.InventoryMovement, 0, 50)
	readings := make([]types.SensorReading, 0, 50)
	for i := 0; i < 50; i++ {
		typ := types.MovementInbound
		if i%3 == 0 {
			typ = types.MovementOutbound
		}
		movements = append(movements, types.InventoryMovement{
			MovementID: int64(i), ProductID: int64(i % 4), MovementDate: day1.AddDate(0, 0, i%5),
			MovementType: types.Ptr(typ), Quantity: 1,
		})
		readings = append(readings, types.SensorReading{
			ReadingID: int64(i), Timestamp: at(i%7, i), MachineID: []string{"M1", "M2"}[i%2], UnitsPerHour: 1,
		})
	}

	for _, ds := range []types.Dataset{
		BuildInventoryAgg(types.NewTable(types.InventorySchema, movements)),
		BuildMachineKPI(types.NewTable(types.SensorReadingsSchema, readings)),
	} {
		seen := make(map[string]bool)
		grain := ds.Schema().Key()
		for i := 0; i < ds.Len(); i++ {
			k := types.FormatKey(ds.Schema(), ds.Row(i), grain)
			assert.False(t, seen[k], "%s: duplicate grain %s", ds.Name(), k)
			seen[k] = true
		}
	}
}

func TestBuildersCoverGold(t *testing.T) {
	silver := types.TableSet{}
	silver.Add(types.NewTable(types.CustomersSchema, []types.Customer{{CustomerID: 1}}))
	silver.Add(types.NewTable(types.ProductsSchema, []types.Product{{ProductID: 10, UnitPrice: types.Ptr(2.5)}}))
	silver.Add(types.NewTable[types.CalendarDay](types.CalendarSchema, nil))
	silver.Add(types.NewTable(types.OrdersHeadSchema, []types.OrderHeader{{OrderID: 100, CustomerID: 1}}))
	silver.Add(types.NewTable(types.OrdersLinesSchema, []types.OrderLine{{OrderLineID: 1, OrderID: 100, ProductID: 10, Quantity: 4}}))
	silver.Add(types.NewTable[types.InventoryMovement](types.InventorySchema, nil))
	silver.Add(types.NewTable[types.SensorReading](types.SensorReadingsSchema, nil))
	silver.Add(types.NewTable[types.DowntimeEvent](types.DowntimeEventsSchema, nil))

	gold := types.TableSet{}
	var tables []string
	for _, b := range Builders() {
		for _, in := range b.Inputs {
			assert.Contains(t, silver.Names(), in, b.Table)
		}
		ds, err := b.Build(silver)
		require.NoError(t, err, b.Table)
		assert.Equal(t, b.Table, ds.Name())
		gold.Add(ds)
		tables = append(tables, b.Table)
	}
	assert.Equal(t, types.GoldTableNames, tables)
	assert.Same(t, silver[types.TableDimCustomers], gold[types.TableDimCustomers])
	assert.Equal(t, 1, gold[types.TableFactOrders].Len())
	assert.Equal(t, 0, gold[types.TableAggInventory].Len())

	t.Run("missing input", func(t *testing.T) {
		delete(silver, types.TableOrdersHead)
		for _, b := range Builders() {
			if b.Table != types.TableFactOrders {
				continue
			}
			_, err := b.Build(silver)
			assert.ErrorIs(t, err, types.ErrTableNotFound)
			assert.Contains(t, err.Error(), types.TableOrdersHead)
		}
	})
}

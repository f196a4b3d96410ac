package conform

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func batch(t *testing.T, entity, csv string) *bronze.RawBatch {
	t.Helper()
	b, err := bronze.Read(entity, strings.NewReader(csv))
	require.NoError(t, err)
	return b
}

func TestCustomersNormalize(t *testing.T) {
	b := batch(t, types.EntityCustomers, `customer_id,customer_name,email,country,created_date
1, Aoife Murphy ,  Aoife.Murphy@Example.COM , united kingdom,2023-04-05
2,Jack Kelly,jack@mail.com,IRELAND,not-a-date
3,,,,
`)
	ds, res, err := Entity(b)
	require.NoError(t, err)

	tbl := ds.(*types.Table[types.Customer])
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, 0, res.DroppedTotal())

	first := tbl.Rows[0]
	assert.Equal(t, "Aoife Murphy", *first.CustomerName)
	assert.Equal(t, "aoife.murphy@example.com", *first.Email)
	assert.Equal(t, "United Kingdom", *first.Country)
	assert.Equal(t, time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC), *first.CreatedDate)

	second := tbl.Rows[1]
	assert.Equal(t, "Ireland", *second.Country)
	assert.Nil(t, second.CreatedDate)
	assert.Equal(t, 1, res.Coerced["created_date"])

	third := tbl.Rows[2]
	assert.Nil(t, third.Email)
	assert.Nil(t, third.Country)
}

func TestCustomersKeyInvariants(t *testing.T) {
	t.Run("duplicate key", func(t *testing.T) {
		b := batch(t, types.EntityCustomers, "customer_id,customer_name,email,country,created_date\n1,a,,,\n1,b,,,\n")
		_, _, err := Entity(b)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrConformance))

		var se *types.StageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, types.TableDimCustomers, se.Table)
		assert.Contains(t, se.Reason, "duplicate primary key customer_id=1")
	})

	t.Run("null key", func(t *testing.T) {
		b := batch(t, types.EntityCustomers, "customer_id,customer_name,email,country,created_date\n1,a,,,\n,b,,,\n")
		_, _, err := Entity(b)
		assert.True(t, errors.Is(err, types.ErrConformance))
	})
}

func TestProducts(t *testing.T) {
	t.Run("coerces price and normalizes category", func(t *testing.T) {
		b := batch(t, types.EntityProducts, `product_id,sku,product_name,category,unit_price
10,SKU-00010,Sensors 10, test kits ,2.50
11,SKU-00011,Cables 11,CABLES,
`)
		ds, _, err := Entity(b)
		require.NoError(t, err)
		tbl := ds.(*types.Table[types.Product])
		require.Len(t, tbl.Rows, 2)
		assert.Equal(t, 2.5, *tbl.Rows[0].UnitPrice)
		assert.Equal(t, "Test Kits", *tbl.Rows[0].Category)
		assert.Equal(t, "Cables", *tbl.Rows[1].Category)
		assert.Nil(t, tbl.Rows[1].UnitPrice)
	})

	t.Run("non-numeric price fails the batch", func(t *testing.T) {
		b := batch(t, types.EntityProducts, "product_id,sku,product_name,category,unit_price\n10,a,b,c,2.50\n11,a,b,c,twelve\n")
		_, _, err := Entity(b)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrType))

		var se *types.StageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, types.KindType, se.Kind)
		assert.Equal(t, "unit_price", se.Column)
	})
}

func TestOrdersDropMissingCustomer(t *testing.T) {
	b := batch(t, types.EntityOrders, `order_id,order_date,customer_id,status
100,2023-02-01,1, shipped
101,2023-02-02,,PENDING
102,2023-02-03,2.0,DELIVERED
`)
	ds, res, err := Entity(b)
	require.NoError(t, err)
	tbl := ds.(*types.Table[types.OrderHeader])
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, int64(100), tbl.Rows[0].OrderID)
	assert.Equal(t, "SHIPPED", *tbl.Rows[0].Status)
	assert.Equal(t, int64(2), tbl.Rows[1].CustomerID)
	assert.Equal(t, map[string]int{"missing customer_id": 1}, res.Dropped)
}

func TestOrderLinesFilter(t *testing.T) {
	b := batch(t, types.EntityOrderLines, `order_line_id,order_id,product_id,quantity
1,100,10,4
2,100,10,0
3,100,10,-3
4,100,10,
5,,10,2
6,100,,2
7,100,11,2.0
`)
	ds, res, err := Entity(b)
	require.NoError(t, err)
	tbl := ds.(*types.Table[types.OrderLine])

	var ids []int64
	for _, l := range tbl.Rows {
		ids = append(ids, l.OrderLineID)
		assert.Greater(t, l.Quantity, int64(0))
	}
	assert.Equal(t, []int64{1, 7}, ids)
	assert.Equal(t, map[string]int{
		"non-positive quantity": 2,
		"missing quantity":      1,
		"missing order_id":      1,
		"missing product_id":    1,
	}, res.Dropped)
	assert.Equal(t, 5, res.DroppedTotal())
	assert.Equal(t, 7, res.RowsIn)
	assert.Equal(t, 2, res.RowsOut)
}

func TestMistypedKeyColumnIsSchemaError(t *testing.T) {
	b := batch(t, types.EntityOrderLines, "order_line_id,order_id,product_id,quantity\n1,abc,10,1\n2,def,10,1\n")
	_, _, err := Entity(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrSchema))
}

func TestInventoryFilter(t *testing.T) {
	b := batch(t, types.EntityInventoryMovements, `movement_id,product_id,movement_date,movement_type,quantity
1,10,2023-01-01, inbound ,5
2,10,2023-01-01,OUTBOUND,0
3,10,2023-01-01,OUTBOUND,
`)
	ds, res, err := Entity(b)
	require.NoError(t, err)
	tbl := ds.(*types.Table[types.InventoryMovement])
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "INBOUND", *tbl.Rows[0].MovementType)
	assert.Equal(t, 2, res.Dropped["non-positive quantity"])
}

func TestSensorReadingsDropMissingMeasures(t *testing.T) {
	b := batch(t, types.EntitySensorReadings, `reading_id,timestamp,machine_id,temp_c,vibration_g,units_per_hour
1,2024-01-01 00:00:00,m1,20.5,0.51,48
2,2024-01-01 00:01:00,M1,,0.51,48
3,2024-01-01 00:02:00,M1,20.1,,48
4,2024-01-01 00:03:00,M1,20.1,0.4,
`)
	ds, res, err := Entity(b)
	require.NoError(t, err)
	tbl := ds.(*types.Table[types.SensorReading])
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "M1", tbl.Rows[0].MachineID)
	assert.Equal(t, map[string]int{
		"missing temp_c":         1,
		"missing vibration_g":    1,
		"missing units_per_hour": 1,
	}, res.Dropped)
}

func TestDowntimeDropNonPositive(t *testing.T) {
	b := batch(t, types.EntityDowntimeEvents, `event_id,machine_id,start_ts,end_ts,duration_mins,reason
1,M1,2024-01-01 08:00:00,2024-01-01 08:45:00,45, jam
2,M1,2024-01-01 09:00:00,2024-01-01 09:00:00,0,Power
3,M2,2024-01-01 10:00:00,,-5,Power
`)
	ds, res, err := Entity(b)
	require.NoError(t, err)
	tbl := ds.(*types.Table[types.DowntimeEvent])
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Jam", *tbl.Rows[0].Reason)
	assert.Equal(t, 2, res.Dropped["non-positive duration_mins"])
}

func TestRowsWithoutUsableTimeAreDropped(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		csv    string
		col    string
		reason string
	}{
		{
			name:   "inventory movement date",
			entity: types.EntityInventoryMovements,
			csv: `movement_id,product_id,movement_date,movement_type,quantity
1,10,2023-01-01,INBOUND,5
2,10,,INBOUND,7
3,10,someday,INBOUND,2
`,
			col:    "movement_date",
			reason: "missing movement_date",
		},
		{
			name:   "sensor timestamp",
			entity: types.EntitySensorReadings,
			csv: `reading_id,timestamp,machine_id,temp_c,vibration_g,units_per_hour
1,2024-01-01 00:00:00,M1,20.5,0.51,48
2,,M1,20.5,0.51,48
3,yesterday,M1,20.5,0.51,48
`,
			col:    "timestamp",
			reason: "missing timestamp",
		},
		{
			name:   "downtime start",
			entity: types.EntityDowntimeEvents,
			csv: `event_id,machine_id,start_ts,end_ts,duration_mins,reason
1,M1,2024-01-01 08:00:00,,45,Jam
2,M1,,,30,Jam
3,M1,noon,,15,Jam
`,
			col:    "start_ts",
			reason: "missing start_ts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, res, err := Entity(batch(t, tt.entity, tt.csv))
			require.NoError(t, err)
			assert.Equal(t, 1, ds.Len())
			assert.Equal(t, 3, res.RowsIn)
			assert.Equal(t, 1, res.RowsOut)
			assert.Equal(t, map[string]int{tt.reason: 2}, res.Dropped)
			assert.Equal(t, 1, res.Coerced[tt.col])
		})
	}
}

func TestOffsetTimestampsNormalizeToUTC(t *testing.T) {
	b := batch(t, types.EntitySensorReadings, `reading_id,timestamp,machine_id,temp_c,vibration_g,units_per_hour
1,2024-01-01T23:30:00-05:00,M1,20.5,0.51,48
2,2024-01-01 23:30:00,M1,20.5,0.51,48
`)
	ds, _, err := Entity(b)
	require.NoError(t, err)
	tbl := ds.(*types.Table[types.SensorReading])
	require.Len(t, tbl.Rows, 2)

	offset := tbl.Rows[0].Timestamp
	assert.Equal(t, time.Date(2024, 1, 2, 4, 30, 0, 0, time.UTC), offset)
	assert.Equal(t, time.UTC, offset.Location())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), types.Day(offset))
	assert.Equal(t, time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC), tbl.Rows[1].Timestamp)
}

func TestCalendarDerivesAttributes(t *testing.T) {
	b := batch(t, types.EntityCalendar, "date\n2024-01-05\n2024-01-06\n")
	ds, res, err := Entity(b)
	require.NoError(t, err)
	tbl := ds.(*types.Table[types.CalendarDay])
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, 0, res.DroppedTotal())

	assert.Equal(t, "Friday", tbl.Rows[0].DayOfWeek)
	assert.False(t, tbl.Rows[0].IsWeekend)
	assert.Equal(t, "Saturday", tbl.Rows[1].DayOfWeek)
	assert.True(t, tbl.Rows[1].IsWeekend)
	assert.Equal(t, int64(2024), tbl.Rows[1].Year)
}

func TestEmptyBatchYieldsEmptySchemaCorrectTable(t *testing.T) {
	for _, entity := range types.Entities {
		t.Run(entity, func(t *testing.T) {
			b := batch(t, entity, "")
			ds, res, err := Entity(b)
			require.NoError(t, err)
			assert.Equal(t, 0, ds.Len())
			assert.Equal(t, 0, res.DroppedTotal())

			want, err := types.SchemaFor(types.SilverTableFor[entity])
			require.NoError(t, err)
			assert.Equal(t, want.ColumnNames(), ds.Schema().ColumnNames())
			assert.Equal(t, want.Name, ds.Name())
		})
	}
}

func TestUnknownEntity(t *testing.T) {
	b, err := bronze.NewRawBatch("suppliers", []string{"id"}, nil)
	require.NoError(t, err)
	_, _, err = Entity(b)
	assert.True(t, errors.Is(err, types.ErrTableNotFound))
}

func TestResultLogReportsEveryDropReason(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	b := batch(t, types.EntityOrderLines, "order_line_id,order_id,product_id,quantity\n1,100,10,0\n2,,10,1\n3,100,10,1\n")
	_, res, err := Entity(b)
	require.NoError(t, err)
	res.Log(logger)

	dropped := logs.FilterMessage("rows dropped").All()
	require.Len(t, dropped, 2)
	assert.Equal(t, "missing order_id", dropped[0].ContextMap()["reason"])
	assert.Equal(t, "non-positive quantity", dropped[1].ContextMap()["reason"])
	assert.Equal(t, []string{
		"orders_lines: dropped 1 row(s): missing order_id",
		"orders_lines: dropped 1 row(s): non-positive quantity",
	}, res.Warnings())
}

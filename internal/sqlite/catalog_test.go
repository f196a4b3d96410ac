package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/strata/pkg/types"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func attach(t *testing.T) (*Catalog, types.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := types.Config{DataDir: dir, CatalogPath: filepath.Join(dir, "catalog.db")}
	c := NewCatalog(nil)
	c.now = func() time.Time { return day.Add(9 * time.Hour) }
	require.NoError(t, c.Attach(cfg))
	t.Cleanup(func() { c.Detach() })
	return c, cfg
}

func goldTables() []types.Dataset {
	return []types.Dataset{
		types.NewTable(types.CustomersSchema, []types.Customer{
			{CustomerID: 1, Email: types.Ptr("a@b.c")},
			{CustomerID: 2},
		}),
		types.NewTable(types.FactOrdersSchema, []types.FactOrder{{
			OrderLineID: 1, OrderID: 100, ProductID: 10, Quantity: 4, Date: types.Ptr(day),
			UnitPrice: types.Ptr(2.5), ExtendedAmount: types.Ptr(10.0), HeaderResolved: true, ProductResolved: true,
		}}),
		types.NewTable(types.KPIMachineHourlySchema, []types.MachineKPI{
			{Hour: day.Add(10 * time.Hour), MachineID: "M1", AvgTemp: 20, AvgVibration: 0.5, TotalUnits: 100, Readings: 2},
		}),
		types.NewTable[types.InventoryAgg](types.AggInventorySchema, nil),
	}
}

func publishAll(t *testing.T, c *Catalog, runID string, tables []types.Dataset) {
	t.Helper()
	s, err := c.Begin(context.Background(), runID)
	require.NoError(t, err)
	for _, ds := range tables {
		require.NoError(t, s.Publish(ds.Name(), ds))
	}
	require.NoError(t, s.Commit())
}

func TestPublishRegistersTables(t *testing.T) {
	c, _ := attach(t)
	ctx := context.Background()
	publishAll(t, c, "run-1", goldTables())

	tables, err := c.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 4)
	assert.Equal(t, types.TableAggInventory, tables[0].Name)
	assert.Equal(t, 0, tables[0].Rows)
	assert.Equal(t, types.TableDimCustomers, tables[1].Name)
	assert.Equal(t, 2, tables[1].Rows)
	assert.Equal(t, "run-1", tables[1].RunID)
	assert.Equal(t, types.CustomersSchema.ColumnNames(), tables[1].Columns)

	n, err := c.CountRows(ctx, types.TableFactOrders)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var amount float64
	var date string
	var resolved int
	db, err := c.handle()
	require.NoError(t, err)
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT extended_amount, date, header_resolved FROM fact_orders WHERE order_line_id = 1").
		Scan(&amount, &date, &resolved))
	assert.Equal(t, 10.0, amount)
	assert.Equal(t, "2024-01-01", date)
	assert.Equal(t, 1, resolved)

	var hour string
	require.NoError(t, db.GetContext(ctx, &hour, "SELECT hour FROM kpi_machine_hourly"))
	assert.Equal(t, "2024-01-01T10:00:00Z", hour)

	runs, err := c.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunInfo{RunID: "run-1", PublishedAt: "2024-01-01T09:00:00Z", Tables: 4, Rows: 4}, runs[0])
}

func TestRepublishReplacesTables(t *testing.T) {
	c, _ := attach(t)
	ctx := context.Background()
	publishAll(t, c, "run-1", goldTables())

	smaller := types.NewTable(types.CustomersSchema, []types.Customer{{CustomerID: 9}})
	publishAll(t, c, "run-2", []types.Dataset{smaller})

	n, err := c.CountRows(ctx, types.TableDimCustomers)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tables, err := c.ListTables(ctx)
	require.NoError(t, err)
	for _, tbl := range tables {
		if tbl.Name == types.TableDimCustomers {
			assert.Equal(t, "run-2", tbl.RunID)
		} else {
			assert.Equal(t, "run-1", tbl.RunID)
		}
	}

	runs, err := c.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRollbackLeavesCatalogUntouched(t *testing.T) {
	c, _ := attach(t)
	ctx := context.Background()
	publishAll(t, c, "run-1", goldTables())

	s, err := c.Begin(ctx, "run-2")
	require.NoError(t, err)
	require.NoError(t, s.Publish(types.TableDimCustomers, types.NewTable[types.Customer](types.CustomersSchema, nil)))
	require.NoError(t, s.Rollback())
	assert.NoError(t, s.Rollback())
	assert.ErrorIs(t, s.Publish(types.TableDimCustomers, goldTables()[0]), types.ErrSessionClosed)
	assert.ErrorIs(t, s.Commit(), types.ErrSessionClosed)

	n, err := c.CountRows(ctx, types.TableDimCustomers)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	runs, err := c.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCatalogSurvivesReattach(t *testing.T) {
	c, cfg := attach(t)
	publishAll(t, c, "run-1", goldTables())
	require.NoError(t, c.Detach())
	require.NoError(t, c.Detach())

	_, err := c.Begin(context.Background(), "run-2")
	assert.ErrorIs(t, err, types.ErrPublisherDetached)
	_, err = c.ListTables(context.Background())
	assert.ErrorIs(t, err, types.ErrPublisherDetached)

	again := NewCatalog(nil)
	require.NoError(t, again.Attach(cfg))
	defer again.Detach()
	tables, err := again.ListTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables, 4)
}

func TestAttachRejectsInvalidConfig(t *testing.T) {
	err := NewCatalog(nil).Attach(types.Config{})
	assert.ErrorIs(t, err, types.ErrDataDirEmpty)
}

func TestCreateTableSQL(t *testing.T) {
	ddl, err := createTableSQL(types.AggDowntimeDailySchema)
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE TABLE agg_downtime_daily")
	assert.Contains(t, ddl, "minutes_down INTEGER NOT NULL")
	assert.Contains(t, ddl, "PRIMARY KEY (date, machine_id)")

	ddl, err = createTableSQL(types.AggInventorySchema)
	require.NoError(t, err)
	assert.NotContains(t, ddl, "PRIMARY KEY", "nullable grain column")

	bad := types.Schema{Name: "x; DROP TABLE y", Columns: []types.Column{{Name: "a", Type: types.TypeInt}}}
	_, err = createTableSQL(bad)
	assert.Error(t, err)
}

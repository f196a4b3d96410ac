// Package conform turns raw bronze batches into typed silver tables. Each
// entity has its own cleaning rules; all of them guarantee the entity
// schema's key and nullability invariants or fail with a ConformanceError.
// Rows removed by filters are never fatal: they are counted per reason on
// the Result so data loss stays observable.
package conform

import (
	"fmt"

	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

type conformer func(b *bronze.RawBatch, res *Result) (types.Dataset, error)

var conformers = map[string]conformer{
	types.EntityCustomers:          conformCustomers,
	types.EntityProducts:           conformProducts,
	types.EntityOrders:             conformOrders,
	types.EntityOrderLines:         conformOrderLines,
	types.EntityInventoryMovements: conformInventory,
	types.EntitySensorReadings:     conformSensorReadings,
	types.EntityDowntimeEvents:     conformDowntime,
	types.EntityCalendar:           conformCalendar,
}

// Entity conforms one raw batch into the silver table of its entity.
// Errors are a SchemaError for missing or mistyped columns, a TypeError for
// a non-coercible product price, and a ConformanceError for key invariants
// that filtering cannot restore.
func Entity(b *bronze.RawBatch) (types.Dataset, Result, error) {
	fn, ok := conformers[b.Entity]
	if !ok {
		return nil, Result{Entity: b.Entity}, fmt.Errorf("conform %q: %w", b.Entity, types.ErrTableNotFound)
	}
	res := newResult(b, types.SilverTableFor[b.Entity])

	if err := b.Require(bronze.InputColumns[b.Entity]); err != nil {
		return nil, *res, err
	}
	ds, err := fn(b, res)
	if err != nil {
		return nil, *res, err
	}
	if err := checkInvariants(ds); err != nil {
		return nil, *res, err
	}
	res.RowsOut = ds.Len()
	return ds, *res, nil
}

// probeKeys runs probe over integer key columns.
func probeKeys(b *bronze.RawBatch, cols ...string) error {
	for _, col := range cols {
		if err := probe(b, col, isInt); err != nil {
			return err
		}
	}
	return nil
}

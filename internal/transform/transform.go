// Package transform derives the gold layer from conformed silver tables:
// the order fact, the republished dimensions and three aggregates. Every
// builder is a full recomputation and is deterministic for a given input.
package transform

import (
	"fmt"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Builder derives one gold table from the silver tables it names.
type Builder struct {
	Table  string
	Inputs []string
	Build  func(silver types.TableSet) (types.Dataset, error)
}

// Builders returns the builder of every gold table, in gold table order.
func Builders() []Builder {
	return []Builder{
		passthrough(types.TableDimCustomers),
		passthrough(types.TableDimProducts),
		passthrough(types.TableDimCalendar),
		{
			Table:  types.TableFactOrders,
			Inputs: []string{types.TableOrdersLines, types.TableOrdersHead, types.TableDimProducts},
			Build: func(silver types.TableSet) (types.Dataset, error) {
				lines, err := tableOf[types.OrderLine](silver, types.TableOrdersLines)
				if err != nil {
					return nil, err
				}
				head, err := tableOf[types.OrderHeader](silver, types.TableOrdersHead)
				if err != nil {
					return nil, err
				}
				products, err := tableOf[types.Product](silver, types.TableDimProducts)
				if err != nil {
					return nil, err
				}
				return BuildFactOrders(lines, head, products), nil
			},
		},
		aggregate(types.TableAggInventory, types.TableInventory, BuildInventoryAgg),
		aggregate(types.TableKPIMachineHour, types.TableSensorReadings, BuildMachineKPI),
		aggregate(types.TableAggDowntimeDay, types.TableDowntimeEvents, BuildDowntimeDaily),
	}
}

// passthrough republishes a dimension unchanged.
func passthrough(table string) Builder {
	return Builder{
		Table:  table,
		Inputs: []string{table},
		Build: func(silver types.TableSet) (types.Dataset, error) {
			return silver.Get(table)
		},
	}
}

func aggregate[In, Out types.Record](table, input string, build func(*types.Table[In]) *types.Table[Out]) Builder {
	return Builder{
		Table:  table,
		Inputs: []string{input},
		Build: func(silver types.TableSet) (types.Dataset, error) {
			in, err := tableOf[In](silver, input)
			if err != nil {
				return nil, err
			}
			return build(in), nil
		},
	}
}

// tableOf fetches a silver table with its concrete row type.
func tableOf[T types.Record](set types.TableSet, name string) (*types.Table[T], error) {
	ds, err := set.Get(name)
	if err != nil {
		return nil, fmt.Errorf("transform input %s: %w", name, err)
	}
	t, ok := ds.(*types.Table[T])
	if !ok {
		return nil, fmt.Errorf("transform input %s: unexpected row type %T", name, ds)
	}
	return t, nil
}

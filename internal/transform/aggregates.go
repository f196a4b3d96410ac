package transform

import (
	"sort"
	"time"

	"github.com/mesh-intelligence/strata/pkg/types"
)

type inventoryKey struct {
	date      time.Time
	productID int64
	typ       string
	typed     bool
}

// BuildInventoryAgg sums movement quantities per day, product and movement
// type. A null movement type forms its own group and sorts first.
func BuildInventoryAgg(movements *types.Table[types.InventoryMovement]) *types.Table[types.InventoryAgg] {
	groups := make(map[inventoryKey]*types.InventoryAgg)
	var keys []inventoryKey
	for _, m := range movements.Rows {
		k := inventoryKey{date: types.Day(m.MovementDate), productID: m.ProductID}
		if m.MovementType != nil {
			k.typ, k.typed = *m.MovementType, true
		}
		g, ok := groups[k]
		if !ok {
			g = &types.InventoryAgg{Date: k.date, ProductID: k.productID, MovementType: m.MovementType}
			groups[k] = g
			keys = append(keys, k)
		}
		g.Quantity += m.Quantity
		g.Movements++
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		if a.productID != b.productID {
			return a.productID < b.productID
		}
		if a.typed != b.typed {
			return !a.typed
		}
		return a.typ < b.typ
	})
	rows := make([]types.InventoryAgg, len(keys))
	for i, k := range keys {
		rows[i] = *groups[k]
	}
	return types.NewTable(types.AggInventorySchema, rows)
}

type machineKey struct {
	at        time.Time
	machineID string
}

func (k machineKey) less(o machineKey) bool {
	if !k.at.Equal(o.at) {
		return k.at.Before(o.at)
	}
	return k.machineID < o.machineID
}

type kpiAcc struct {
	temp, vib float64
	units, n  int64
}

// BuildMachineKPI floors each reading to its hour and reports, per hour and
// machine, mean temperature, mean vibration, total throughput and the
// number of readings.
func BuildMachineKPI(readings *types.Table[types.SensorReading]) *types.Table[types.MachineKPI] {
	groups := make(map[machineKey]*kpiAcc)
	var keys []machineKey
	for _, r := range readings.Rows {
		k := machineKey{at: types.Hour(r.Timestamp), machineID: r.MachineID}
		acc, ok := groups[k]
		if !ok {
			acc = &kpiAcc{}
			groups[k] = acc
			keys = append(keys, k)
		}
		acc.temp += r.TempC
		acc.vib += r.VibrationG
		acc.units += r.UnitsPerHour
		acc.n++
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	rows := make([]types.MachineKPI, len(keys))
	for i, k := range keys {
		acc := groups[k]
		rows[i] = types.MachineKPI{
			Hour:         k.at,
			MachineID:    k.machineID,
			AvgTemp:      acc.temp / float64(acc.n),
			AvgVibration: acc.vib / float64(acc.n),
			TotalUnits:   acc.units,
			Readings:     acc.n,
		}
	}
	return types.NewTable(types.KPIMachineHourlySchema, rows)
}

// BuildDowntimeDaily counts events and sums their minutes per start day and
// machine.
func BuildDowntimeDaily(events *types.Table[types.DowntimeEvent]) *types.Table[types.DowntimeAgg] {
	groups := make(map[machineKey]*types.DowntimeAgg)
	var keys []machineKey
	for _, e := range events.Rows {
		k := machineKey{at: types.Day(e.StartTS), machineID: e.MachineID}
		g, ok := groups[k]
		if !ok {
			g = &types.DowntimeAgg{Date: k.at, MachineID: k.machineID}
			groups[k] = g
			keys = append(keys, k)
		}
		g.Events++
		g.MinutesDown += e.DurationMins
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	rows := make([]types.DowntimeAgg, len(keys))
	for i, k := range keys {
		rows[i] = *groups[k]
	}
	return types.NewTable(types.AggDowntimeDailySchema, rows)
}

package conform

import (
	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

var sensorMeasures = []string{"temp_c", "vibration_g", "units_per_hour"}

// conformSensorReadings drops readings missing a measure or a usable
// timestamp.
func conformSensorReadings(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probeKeys(b, "reading_id"); err != nil {
		return nil, err
	}
	if err := probe(b, "timestamp", isTimestamp); err != nil {
		return nil, err
	}
	rows := make([]types.SensorReading, 0, b.Len())
records:
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		id, ok := c.key("reading_id")
		if !ok {
			return nil, nullKey(types.TableSensorReadings, "reading_id", i)
		}
		temp := c.number("temp_c")
		vib := c.number("vibration_g")
		units := c.integer("units_per_hour")
		for j, present := range []bool{temp != nil, vib != nil, units != nil} {
			if !present {
				res.drop(reasonMissingMeasurePfx + sensorMeasures[j])
				continue records
			}
		}
		ts := c.timestamp("timestamp")
		if ts == nil {
			res.drop(reasonMissingTimestamp)
			continue
		}
		machine := c.text("machine_id", upperCase)
		if machine == nil {
			return nil, nullKey(types.TableSensorReadings, "machine_id", i)
		}
		rows = append(rows, types.SensorReading{
			ReadingID:    id,
			Timestamp:    *ts,
			MachineID:    *machine,
			TempC:        *temp,
			VibrationG:   *vib,
			UnitsPerHour: *units,
		})
	}
	return types.NewTable(types.SensorReadingsSchema, rows), nil
}

// conformDowntime drops events whose duration is missing or not positive,
// and events without a usable start time.
func conformDowntime(b *bronze.RawBatch, res *Result) (types.Dataset, error) {
	if err := probeKeys(b, "event_id"); err != nil {
		return nil, err
	}
	if err := probe(b, "start_ts", isTimestamp); err != nil {
		return nil, err
	}
	rows := make([]types.DowntimeEvent, 0, b.Len())
	for i := range b.Records {
		c := cells{b: b, res: res, row: i}
		id, ok := c.key("event_id")
		if !ok {
			return nil, nullKey(types.TableDowntimeEvents, "event_id", i)
		}
		mins := c.integer("duration_mins")
		if mins == nil || *mins <= 0 {
			res.drop(reasonNonPositiveMins)
			continue
		}
		machine := c.text("machine_id", upperCase)
		if machine == nil {
			return nil, nullKey(types.TableDowntimeEvents, "machine_id", i)
		}
		start := c.timestamp("start_ts")
		if start == nil {
			res.drop(reasonMissingStart)
			continue
		}
		rows = append(rows, types.DowntimeEvent{
			EventID:      id,
			MachineID:    *machine,
			StartTS:      *start,
			EndTS:        c.timestamp("end_ts"),
			DurationMins: *mins,
			Reason:       c.text("reason", titleCase),
		})
	}
	return types.NewTable(types.DowntimeEventsSchema, rows), nil
}

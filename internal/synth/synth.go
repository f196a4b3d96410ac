// Package synth generates deterministic synthetic bronze extracts. The same
// options always produce byte-identical files.
package synth

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/strata/internal/bronze"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// DefaultSeed is the seed of the reference data set.
const DefaultSeed = 42

// Options sizes the generated data set.
type Options struct {
	Seed           uint64
	Customers      int
	Products       int
	Orders         int
	MaxLines       int
	Movements      int
	Readings       int
	Machines       int
	DowntimeEvents int
	CalendarStart  time.Time
	CalendarEnd    time.Time
	// DirtyRatio is the share of rows in the filtered entities that carry
	// a defect conformance removes or repairs. Dirty rows never break a
	// reference, so a dirty extract still passes the gate.
	DirtyRatio float64
}

// DefaultOptions returns the reference data set sizes.
func DefaultOptions() Options {
	return Options{
		Seed:           DefaultSeed,
		Customers:      1000,
		Products:       200,
		Orders:         5000,
		MaxLines:       5,
		Movements:      10000,
		Readings:       20000,
		Machines:       6,
		DowntimeEvents: 800,
		CalendarStart:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		CalendarEnd:    time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Validate rejects option sets that cannot produce a consistent extract.
func (o Options) Validate() error {
	switch {
	case o.Customers < 1 || o.Products < 1:
		return fmt.Errorf("need at least one customer and one product")
	case o.Orders < 0 || o.Movements < 0 || o.Readings < 0 || o.DowntimeEvents < 0:
		return fmt.Errorf("row counts must not be negative")
	case o.MaxLines < 1:
		return fmt.Errorf("max lines must be at least 1")
	case o.Machines < 1:
		return fmt.Errorf("need at least one machine")
	case o.DirtyRatio < 0 || o.DirtyRatio > 1:
		return fmt.Errorf("dirty ratio must be within [0, 1]")
	case o.CalendarEnd.Before(o.CalendarStart):
		return fmt.Errorf("calendar end before start")
	}
	return nil
}

var (
	firstNames = []string{"Aoife", "Jack", "Grace", "James", "Emily", "Conor", "Sophie", "Daniel", "Amelia", "Adam",
		"Liam", "Emma", "Olivia", "Noah", "Mia", "Ethan", "Ella", "Harry", "Chloe", "Michael"}
	lastNames = []string{"Murphy", "Kelly", "Byrne", "Ryan", "O'Brien", "Walsh", "O'Sullivan", "Doyle", "McCarthy", "Gallagher",
		"Cosgrove", "Healy", "Cullen", "Conlisk", "O'Connor", "Nolan", "Brennan", "Daly", "Dempsey", "Fitzgerald"}
	domains    = []string{"example.com", "mail.com", "test.org"}
	countries  = []string{"Ireland", "UK", "Germany", "France", "Spain", "USA"}
	categories = []string{"Sensors", "Transceivers", "Batteries", "Cables", "Controllers", "Test Kits"}
	reasons    = []string{"Jam", "Blocked", "Power", "Changeover", "Quality", "Unknown"}
)

// Status and downtime reason weights.
var (
	statusWeights = []float64{0.1, 0.3, 0.55, 0.05}
	reasonWeights = []float64{0.25, 0.2, 0.15, 0.15, 0.15, 0.1}
)

const timestampLayout = time.DateTime

// generator draws every entity from its own stream so resizing one entity
// leaves the others unchanged.
type generator struct {
	opts Options
}

func (g generator) rng(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(g.opts.Seed, stream))
}

func (g generator) dirty(r *rand.Rand) bool {
	return g.opts.DirtyRatio > 0 && r.Float64() < g.opts.DirtyRatio
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}

func weighted(r *rand.Rand, weights []float64) int {
	x := r.Float64()
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}

func itoa(n int) string { return strconv.Itoa(n) }

// Generate writes one CSV per bronze entity into dir.
func Generate(dir string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating bronze dir: %w", err)
	}
	g := generator{opts: opts}
	entities := []struct {
		entity string
		rows   func() [][]string
	}{
		{types.EntityCustomers, g.customers},
		{types.EntityProducts, g.products},
		{types.EntityOrders, g.orders},
		{types.EntityOrderLines, g.orderLines},
		{types.EntityInventoryMovements, g.movements},
		{types.EntitySensorReadings, g.readings},
		{types.EntityDowntimeEvents, g.downtime},
		{types.EntityCalendar, g.calendar},
	}
	for _, e := range entities {
		if err := writeCSV(filepath.Join(dir, bronze.FileName(e.entity)), e.rows()); err != nil {
			return fmt.Errorf("generating %s: %w", e.entity, err)
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (g generator) customers() [][]string {
	r := g.rng(1)
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{bronze.InputColumns[types.EntityCustomers]}
	for id := 1; id <= g.opts.Customers; id++ {
		name := pick(r, firstNames) + " " + pick(r, lastNames)
		email := fmt.Sprintf("%s@%s", strings.ReplaceAll(strings.ToLower(name), " ", "."), pick(r, domains))
		country := pick(r, countries)
		created := start.AddDate(0, 0, r.IntN(365*3))
		if g.dirty(r) {
			email = "  " + strings.ToUpper(email) + " "
			country = strings.ToLower(country)
		}
		rows = append(rows, []string{itoa(id), name, email, country, created.Format(time.DateOnly)})
	}
	return rows
}

func (g generator) products() [][]string {
	r := g.rng(2)
	rows := [][]string{bronze.InputColumns[types.EntityProducts]}
	for id := 1; id <= g.opts.Products; id++ {
		cat := pick(r, categories)
		price := math.Round((5+r.Float64()*495)*100) / 100
		rows = append(rows, []string{
			itoa(id), fmt.Sprintf("SKU-%05d", id), fmt.Sprintf("%s %d", cat, id), cat,
			strconv.FormatFloat(price, 'f', 2, 64),
		})
	}
	return rows
}

func (g generator) orders() [][]string {
	r := g.rng(3)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{bronze.InputColumns[types.EntityOrders]}
	for id := 1; id <= g.opts.Orders; id++ {
		date := start.AddDate(0, 0, r.IntN(365*2))
		customer := 1 + r.IntN(g.opts.Customers)
		status := types.OrderStatuses[weighted(r, statusWeights)]
		rows = append(rows, []string{itoa(id), date.Format(time.DateOnly), itoa(customer), status})
	}
	return rows
}

func (g generator) orderLines() [][]string {
	r := g.rng(4)
	rows := [][]string{bronze.InputColumns[types.EntityOrderLines]}
	line := 1
	for order := 1; order <= g.opts.Orders; order++ {
		n := 1 + r.IntN(g.opts.MaxLines)
		for range n {
			product := 1 + r.IntN(g.opts.Products)
			qty := itoa(1 + r.IntN(9))
			if g.dirty(r) {
				qty = pick(r, []string{"0", "-1", ""})
			}
			rows = append(rows, []string{itoa(line), itoa(order), itoa(product), qty})
			line++
		}
	}
	return rows
}

func (g generator) movements() [][]string {
	r := g.rng(5)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{bronze.InputColumns[types.EntityInventoryMovements]}
	for i := 1; i <= g.opts.Movements; i++ {
		product := 1 + r.IntN(g.opts.Products)
		date := start.AddDate(0, 0, r.IntN(365*2))
		typ := pick(r, []string{types.MovementInbound, types.MovementOutbound})
		qty := itoa(1 + r.IntN(99))
		if g.dirty(r) {
			qty = "0"
		}
		rows = append(rows, []string{itoa(i), itoa(product), date.Format(time.DateOnly), typ, qty})
	}
	return rows
}

func (g generator) readings() [][]string {
	r := g.rng(6)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{bronze.InputColumns[types.EntitySensorReadings]}
	for i := 0; i < g.opts.Readings; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		machine := fmt.Sprintf("M%d", i%g.opts.Machines+1)
		temp := round(20+5*math.Sin(float64(i)/200)+r.NormFloat64()*0.8, 2)
		vib := round(0.5+0.1*math.Sin(float64(i)/50)+r.NormFloat64()*0.05, 3)
		units := max(0, int(48+r.NormFloat64()*7))
		tempCell := strconv.FormatFloat(temp, 'f', -1, 64)
		if g.dirty(r) {
			tempCell = ""
		}
		rows = append(rows, []string{
			itoa(i + 1), ts.Format(timestampLayout), machine, tempCell,
			strconv.FormatFloat(vib, 'f', -1, 64), itoa(units),
		})
	}
	return rows
}

func (g generator) downtime() [][]string {
	r := g.rng(7)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{bronze.InputColumns[types.EntityDowntimeEvents]}
	for i := 0; i < g.opts.DowntimeEvents; i++ {
		start := base.Add(time.Duration(r.IntN(24*180)) * time.Hour)
		mins := int(math.Min(240, math.Max(5, 45+r.NormFloat64()*20)))
		end := start.Add(time.Duration(mins) * time.Minute)
		machine := fmt.Sprintf("M%d", i%g.opts.Machines+1)
		reason := reasons[weighted(r, reasonWeights)]
		minsCell := itoa(mins)
		if g.dirty(r) {
			minsCell = "0"
		}
		rows = append(rows, []string{
			itoa(i + 1), machine, start.Format(timestampLayout), end.Format(timestampLayout), minsCell, reason,
		})
	}
	return rows
}

func (g generator) calendar() [][]string {
	rows := [][]string{{"date", "year", "month", "day", "dow", "is_weekend"}}
	for d := g.opts.CalendarStart; !d.After(g.opts.CalendarEnd); d = d.AddDate(0, 0, 1) {
		c := types.NewCalendarDay(d)
		rows = append(rows, []string{
			d.Format(time.DateOnly),
			strconv.FormatInt(c.Year, 10), strconv.FormatInt(c.Month, 10), strconv.FormatInt(c.Day, 10),
			c.DayOfWeek, strconv.FormatBool(c.IsWeekend),
		})
	}
	return rows
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Package store persists silver and gold tables as JSONL files under a data
// directory. Every table write is atomic. Gold tables of a run are written
// to a staging directory first and replace the published gold files only
// when the run promotes them.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Layer directory names.
const (
	LayerSilver = "silver"
	LayerGold   = "gold"

	stagingPrefix = ".gold-staging-"
	tableExt      = ".jsonl"
)

var decoders = map[string]func(types.Schema, []json.RawMessage) (types.Dataset, error){
	types.TableDimCustomers:   decodeTable[types.Customer],
	types.TableDimProducts:    decodeTable[types.Product],
	types.TableOrdersHead:     decodeTable[types.OrderHeader],
	types.TableOrdersLines:    decodeTable[types.OrderLine],
	types.TableInventory:      decodeTable[types.InventoryMovement],
	types.TableSensorReadings: decodeTable[types.SensorReading],
	types.TableDowntimeEvents: decodeTable[types.DowntimeEvent],
	types.TableDimCalendar:    decodeTable[types.CalendarDay],
	types.TableFactOrders:     decodeTable[types.FactOrder],
	types.TableAggInventory:   decodeTable[types.InventoryAgg],
	types.TableKPIMachineHour: decodeTable[types.MachineKPI],
	types.TableAggDowntimeDay: decodeTable[types.DowntimeAgg],
}

// Lake is the on-disk layout of the silver and gold layers.
type Lake struct {
	Root string
}

// NewLake returns a lake rooted at root.
func NewLake(root string) *Lake {
	return &Lake{Root: root}
}

// Dir returns the directory of a layer.
func (l *Lake) Dir(layer string) string {
	return filepath.Join(l.Root, layer)
}

// TablePath returns the file a table of layer is stored in.
func (l *Lake) TablePath(layer, table string) string {
	return filepath.Join(l.Dir(layer), table+tableExt)
}

// WriteTable atomically replaces the file of ds in layer.
func (l *Lake) WriteTable(layer string, ds types.Dataset) error {
	if err := os.MkdirAll(l.Dir(layer), 0o755); err != nil {
		return fmt.Errorf("creating %s layer: %w", layer, err)
	}
	return writeTable(l.TablePath(layer, ds.Name()), ds)
}

func writeTable(path string, ds types.Dataset) error {
	records, err := encodeTable(ds)
	if err != nil {
		return err
	}
	if err := writeJSONL(path, records); err != nil {
		return fmt.Errorf("writing %s: %w", ds.Name(), err)
	}
	return nil
}

// ReadTable loads one table of layer with its typed rows.
func (l *Lake) ReadTable(layer, table string) (types.Dataset, error) {
	decode, ok := decoders[table]
	if !ok {
		return nil, fmt.Errorf("reading %s/%s: %w", layer, table, types.ErrTableNotFound)
	}
	schema, err := types.SchemaFor(table)
	if err != nil {
		return nil, err
	}
	path := l.TablePath(layer, table)
	records, err := readJSONL(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s/%s: %w", layer, table, types.ErrTableNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decode(schema, records)
}

// ReadLayer loads the named tables of layer.
func (l *Lake) ReadLayer(layer string, tables []string) (types.TableSet, error) {
	set := make(types.TableSet, len(tables))
	for _, name := range tables {
		ds, err := l.ReadTable(layer, name)
		if err != nil {
			return nil, err
		}
		set.Add(ds)
	}
	return set, nil
}

// Tables lists the table names present in layer, sorted.
func (l *Lake) Tables(layer string) ([]string, error) {
	entries, err := os.ReadDir(l.Dir(layer))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s layer: %w", layer, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), tableExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), tableExt))
	}
	sort.Strings(names)
	return names, nil
}

// Stage opens a gold staging area for runID. Any staging area left behind
// by an earlier run with the same id is cleared.
func (l *Lake) Stage(runID string) (*Staging, error) {
	dir := filepath.Join(l.Root, stagingPrefix+runID)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clearing staging area: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging area: %w", err)
	}
	return &Staging{lake: l, dir: dir}, nil
}

// Staging holds the gold tables of one run until they are promoted. Write
// is safe for concurrent use.
type Staging struct {
	lake   *Lake
	dir    string
	mu     sync.Mutex
	tables []string
	done   bool
}

// Dir returns the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// Write stages ds.
func (s *Staging) Write(ds types.Dataset) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done {
		return types.ErrSessionClosed
	}
	if err := writeTable(filepath.Join(s.dir, ds.Name()+tableExt), ds); err != nil {
		return err
	}
	s.mu.Lock()
	s.tables = append(s.tables, ds.Name())
	s.mu.Unlock()
	return nil
}

// Promote moves every staged table over its published gold file and removes
// the staging area. Each file is replaced by a single rename.
func (s *Staging) Promote() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return types.ErrSessionClosed
	}
	gold := s.lake.Dir(LayerGold)
	if err := os.MkdirAll(gold, 0o755); err != nil {
		return fmt.Errorf("creating gold layer: %w", err)
	}
	for _, name := range s.tables {
		src := filepath.Join(s.dir, name+tableExt)
		if err := os.Rename(src, s.lake.TablePath(LayerGold, name)); err != nil {
			return fmt.Errorf("promoting %s: %w", name, err)
		}
	}
	s.done = true
	return os.RemoveAll(s.dir)
}

// Discard removes the staging area without touching published gold.
// Discarding after Promote is a no-op.
func (s *Staging) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return os.RemoveAll(s.dir)
}

package bronze

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Read parses CSV from r into a batch for entity. The first record is the
// header. Input with no bytes at all yields an empty batch carrying the
// entity's contract columns, so an empty extract conforms to an empty table.
func Read(entity string, r io.Reader) (*RawBatch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return NewRawBatch(entity, InputColumns[entity], nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", entity, err)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s records: %w", entity, err)
	}

	b, err := NewRawBatch(entity, header, records)
	if err != nil {
		return nil, err
	}
	if err := b.Require(InputColumns[entity]); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadFile reads the bronze file of entity from dir.
func ReadFile(dir, entity string) (*RawBatch, error) {
	path := filepath.Join(dir, FileName(entity))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(entity, f)
}

// ReadDir reads every bronze entity from dir. It fails on the first missing
// or malformed file; a schema mismatch aborts the run before any stage runs.
func ReadDir(dir string) (map[string]*RawBatch, error) {
	batches := make(map[string]*RawBatch, len(types.Entities))
	for _, entity := range types.Entities {
		b, err := ReadFile(dir, entity)
		if err != nil {
			return nil, err
		}
		batches[entity] = b
	}
	return batches, nil
}

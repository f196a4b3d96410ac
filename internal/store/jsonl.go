package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// encodeRow renders one row as a JSON object with keys in schema column
// order, so identical tables encode to identical bytes.
func encodeRow(schema types.Schema, row []any) (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range schema.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(col.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(row[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeTable renders every row of ds.
func encodeTable(ds types.Dataset) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, ds.Len())
	for i := range records {
		rec, err := encodeRow(ds.Schema(), ds.Row(i))
		if err != nil {
			return nil, fmt.Errorf("encoding %s row %d: %w", ds.Name(), i+1, err)
		}
		records[i] = rec
	}
	return records, nil
}

// readJSONL reads a JSONL file and returns each non-empty line. A line that
// is not valid JSON fails the read: a table is either loaded whole or not
// at all.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if !json.Valid(b) {
			return nil, fmt.Errorf("%s line %d: malformed JSON", path, line)
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern. Readers see either the old file or the new one.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// decodeTable parses records into typed rows of schema.
func decodeTable[T types.Record](schema types.Schema, records []json.RawMessage) (types.Dataset, error) {
	rows := make([]T, len(records))
	for i, rec := range records {
		if err := json.Unmarshal(rec, &rows[i]); err != nil {
			return nil, fmt.Errorf("decoding %s row %d: %w", schema.Name, i+1, err)
		}
	}
	return types.NewTable(schema, rows), nil
}

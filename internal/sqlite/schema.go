package sqlite

import (
	"fmt"
	"regexp"

	"github.com/huandu/go-sqlbuilder"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Catalog bookkeeping tables.
const (
	runsTable   = "_strata_runs"
	tablesTable = "_strata_tables"
)

const (
	createRuns = `CREATE TABLE IF NOT EXISTS _strata_runs (
    run_id TEXT PRIMARY KEY,
    published_at TEXT NOT NULL,
    table_count INTEGER NOT NULL,
    row_count INTEGER NOT NULL
);`

	createTables = `CREATE TABLE IF NOT EXISTS _strata_tables (
    table_name TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    row_count INTEGER NOT NULL,
    columns TEXT NOT NULL,
    published_at TEXT NOT NULL
);`
)

// catalogDDL lists the bookkeeping DDL run on attach.
var catalogDDL = []string{createRuns, createTables}

var identifier = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// sqlType maps a column type onto its SQLite storage class. Dates and
// timestamps are stored as ISO-8601 text.
func sqlType(t types.ColumnType) string {
	switch t {
	case types.TypeInt, types.TypeBool:
		return "INTEGER"
	case types.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// createTableSQL renders the DDL of a published table from its schema.
func createTableSQL(schema types.Schema) (string, error) {
	if !identifier.MatchString(schema.Name) {
		return "", fmt.Errorf("invalid table name %q", schema.Name)
	}
	ctb := sqlbuilder.SQLite.NewCreateTableBuilder()
	ctb.CreateTable(schema.Name)
	for _, col := range schema.Columns {
		if !identifier.MatchString(col.Name) {
			return "", fmt.Errorf("invalid column name %q in %s", col.Name, schema.Name)
		}
		def := []string{col.Name, sqlType(col.Type)}
		if !col.Nullable {
			def = append(def, "NOT NULL")
		}
		ctb.Define(def...)
	}
	if key := schema.Key(); len(key) > 0 && uniqueKey(schema) {
		ctb.Define(fmt.Sprintf("PRIMARY KEY (%s)", joinColumns(key)))
	}
	sql, _ := ctb.Build()
	return sql, nil
}

// uniqueKey reports whether the key columns are all non-nullable. Grains
// with a nullable column (a null movement type) cannot be a SQLite key.
func uniqueKey(schema types.Schema) bool {
	for _, name := range schema.Key() {
		col, ok := schema.Column(name)
		if !ok || col.Nullable {
			return false
		}
	}
	return true
}

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
)

// TableInfo describes one table registered in the catalog.
type TableInfo struct {
	Name        string   `db:"table_name" json:"table_name"`
	RunID       string   `db:"run_id" json:"run_id"`
	Rows        int      `db:"row_count" json:"row_count"`
	ColumnsJSON string   `db:"columns" json:"-"`
	PublishedAt string   `db:"published_at" json:"published_at"`
	Columns     []string `db:"-" json:"columns"`
}

// RunInfo is one committed publish.
type RunInfo struct {
	RunID       string `db:"run_id" json:"run_id"`
	PublishedAt string `db:"published_at" json:"published_at"`
	Tables      int    `db:"table_count" json:"table_count"`
	Rows        int    `db:"row_count" json:"row_count"`
}

// ListTables returns the registered tables ordered by name.
func (c *Catalog) ListTables(ctx context.Context) ([]TableInfo, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("table_name", "run_id", "row_count", "columns", "published_at")
	sb.From(tablesTable)
	sb.OrderBy("table_name")
	query, args := sb.Build()

	var tables []TableInfo
	if err := db.SelectContext(ctx, &tables, query, args...); err != nil {
		return nil, fmt.Errorf("listing catalog tables: %w", err)
	}
	for i := range tables {
		if err := json.Unmarshal([]byte(tables[i].ColumnsJSON), &tables[i].Columns); err != nil {
			return nil, fmt.Errorf("decoding columns of %s: %w", tables[i].Name, err)
		}
	}
	return tables, nil
}

// Runs returns the committed runs, most recent first.
func (c *Catalog) Runs(ctx context.Context) ([]RunInfo, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("run_id", "published_at", "table_count", "row_count")
	sb.From(runsTable)
	sb.OrderBy("published_at DESC", "run_id DESC")
	query, args := sb.Build()

	var runs []RunInfo
	if err := db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// CountRows returns the number of rows in a published table.
func (c *Catalog) CountRows(ctx context.Context, table string) (int, error) {
	db, err := c.handle()
	if err != nil {
		return 0, err
	}
	if !identifier.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From(table)
	query, args := sb.Build()

	var n int
	if err := db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// insertBatchSize bounds the rows per INSERT statement so the bound
// parameter count stays well under SQLite's limit.
const insertBatchSize = 500

type published struct {
	name    string
	rows    int
	columns []string
}

// session is the publish context of one run, backed by one transaction.
type session struct {
	ctx    context.Context
	tx     *sqlx.Tx
	runID  string
	logger *zap.Logger
	now    func() time.Time
	tables []published
	closed bool
}

// Publish drops any table named tableName and recreates it from data, all
// inside the session transaction.
func (s *session) Publish(tableName string, data types.Dataset) error {
	if s.closed {
		return types.ErrSessionClosed
	}
	schema := data.Schema()
	schema.Name = tableName

	ddl, err := createTableSQL(schema)
	if err != nil {
		return err
	}
	if _, err := s.tx.ExecContext(s.ctx, "DROP TABLE IF EXISTS "+tableName); err != nil {
		return fmt.Errorf("dropping %s: %w", tableName, err)
	}
	if _, err := s.tx.ExecContext(s.ctx, ddl); err != nil {
		return fmt.Errorf("creating %s: %w", tableName, err)
	}
	if err := insertRows(s.ctx, s.tx, schema, data); err != nil {
		return fmt.Errorf("loading %s: %w", tableName, err)
	}

	s.tables = append(s.tables, published{name: tableName, rows: data.Len(), columns: schema.ColumnNames()})
	s.logger.Debug("table published", zap.String("table", tableName), zap.Int("rows", data.Len()))
	return nil
}

// Commit records the run in the catalog bookkeeping tables and commits.
func (s *session) Commit() error {
	if s.closed {
		return types.ErrSessionClosed
	}
	at := s.now().UTC().Format(time.RFC3339)
	total := 0
	for _, t := range s.tables {
		total += t.rows
		cols, err := json.Marshal(t.columns)
		if err != nil {
			return err
		}
		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.ReplaceInto(tablesTable)
		ib.Cols("table_name", "run_id", "row_count", "columns", "published_at")
		ib.Values(t.name, s.runID, t.rows, string(cols), at)
		query, args := ib.Build()
		if _, err := s.tx.ExecContext(s.ctx, query, args...); err != nil {
			return fmt.Errorf("registering %s: %w", t.name, err)
		}
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.ReplaceInto(runsTable)
	ib.Cols("run_id", "published_at", "table_count", "row_count")
	ib.Values(s.runID, at, len(s.tables), total)
	query, args := ib.Build()
	if _, err := s.tx.ExecContext(s.ctx, query, args...); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing publish transaction: %w", err)
	}
	s.closed = true
	s.logger.Info("catalog committed", zap.Int("tables", len(s.tables)), zap.Int("rows", total))
	return nil
}

// Rollback abandons the session. It is a no-op once the session closed.
func (s *session) Rollback() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// insertRows loads every row of data in batches.
func insertRows(ctx context.Context, tx *sqlx.Tx, schema types.Schema, data types.Dataset) error {
	cols := schema.ColumnNames()
	for start := 0; start < data.Len(); start += insertBatchSize {
		end := min(start+insertBatchSize, data.Len())

		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertInto(schema.Name)
		ib.Cols(cols...)
		for i := start; i < end; i++ {
			ib.Values(sqlValues(schema, data.Row(i))...)
		}
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}

// sqlValues converts row values to driver values of the column storage
// class.
func sqlValues(schema types.Schema, row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case time.Time:
			if schema.Columns[i].Type == types.TypeDate {
				out[i] = x.UTC().Format(time.DateOnly)
			} else {
				out[i] = x.UTC().Format(time.RFC3339)
			}
		case bool:
			if x {
				out[i] = 1
			} else {
				out[i] = 0
			}
		default:
			out[i] = v
		}
	}
	return out
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

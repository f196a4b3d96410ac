// Package sqlite implements the catalog publisher on SQLite. Gold tables
// are registered as physical tables in one catalog database so they can be
// queried by name. Each run publishes inside a single transaction: readers
// see the previous catalog until the run commits.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Catalog implements types.Publisher on a SQLite database file.
type Catalog struct {
	mu       sync.RWMutex
	attached bool
	path     string
	db       *sqlx.DB
	logger   *zap.Logger
	now      func() time.Time
}

// NewCatalog creates a catalog instance. The catalog is not attached; call
// Attach before publishing.
func NewCatalog(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{logger: logger, now: time.Now}
}

// Attach opens the catalog database at config.CatalogPath, creating the
// file and the catalog bookkeeping tables if needed. Published tables from
// earlier runs are kept.
func (c *Catalog) Attach(config types.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attached {
		return nil
	}
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(config.CatalogPath), 0o755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", config.CatalogPath)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	// A single connection serializes writers; SQLite allows one anyway.
	db.SetMaxOpenConns(1)

	for _, ddl := range catalogDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating catalog schema: %w", err)
		}
	}

	c.db = db
	c.path = config.CatalogPath
	c.attached = true
	c.logger.Debug("catalog attached", zap.String("path", c.path))
	return nil
}

// Detach closes the database. Detach is idempotent.
func (c *Catalog) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return err
	}
	c.db = nil
	c.attached = false
	return nil
}

// Path returns the database file of an attached catalog.
func (c *Catalog) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Begin opens the publish session of one run. The session holds the only
// write transaction until it commits or rolls back.
func (c *Catalog) Begin(ctx context.Context, runID string) (types.PublishSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return nil, types.ErrPublisherDetached
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning publish transaction: %w", err)
	}
	return &session{
		ctx:    ctx,
		tx:     tx,
		runID:  runID,
		logger: c.logger.With(zap.String("run_id", runID)),
		now:    c.now,
	}, nil
}

func (c *Catalog) handle() (*sqlx.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.attached {
		return nil, types.ErrPublisherDetached
	}
	return c.db, nil
}

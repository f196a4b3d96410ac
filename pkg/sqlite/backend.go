// Package sqlite opens the SQLite catalog that gold tables are published
// to, keeping the implementation internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// Open attaches a catalog at config.CatalogPath. The caller must Detach it.
//
// Example:
//
//	catalog, err := sqlite.Open(types.Config{DataDir: "data"}, logger)
//	if err != nil {
//	    return err
//	}
//	defer catalog.Detach()
func Open(config types.Config, logger *zap.Logger) (*sqlite.Catalog, error) {
	c := sqlite.NewCatalog(logger)
	if err := c.Attach(config); err != nil {
		return nil, err
	}
	return c, nil
}

package catalog

import (
	"context"

	"github.com/starford/daybook/internal/models"
)

// Catalog is the read/write surface consumers depend on instead of *DB.
type Catalog interface {
	Replace(ctx context.Context, entries []models.FileEntry) error
	Recent(ctx context.Context, q Query) ([]models.FileEntry, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

var _ Catalog = (*DB)(nil)

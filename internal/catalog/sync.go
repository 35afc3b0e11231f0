package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/access"
	"github.com/starford/daybook/internal/models"
)

// Sync scans dirs and replaces the catalog with the result.
func Sync(ctx context.Context, db Catalog, ix *access.Index, dirs []models.BaseDirectory, logger *slog.Logger) (int, error) {
	start := time.Now()
	entries, err := ix.PreviouslyAccessedSync(ctx, 0, dirs)
	if err != nil {
		return 0, err
	}
	if err := db.Replace(ctx, entries); err != nil {
		return 0, err
	}
	logger.Info("catalog: synced",
		slog.Int("files", len(entries)),
		slog.Duration("took", time.Since(start)))
	return len(entries), nil
}

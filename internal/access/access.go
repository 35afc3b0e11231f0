// Package access builds classified FileEntry listings from scanner output.
package access

import (
	"context"
	"path/filepath"
	"time"

	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/pathmatch"
	"github.com/starford/daybook/internal/scanner"
)

// Update is delivered to streaming callers: one per entry, then one with Done set.
type Update struct {
	Entry models.FileEntry
	Done  bool
	Err   error
}

// Index turns scanner records into FileEntry values.
type Index struct {
	scanner *scanner.Scanner
	matcher *pathmatch.Matcher
}

// New creates an index over s classifying with m.
func New(s *scanner.Scanner, m *pathmatch.Matcher) *Index {
	return &Index{scanner: s, matcher: m}
}

// Entry classifies a scanner record.
func (ix *Index) Entry(r scanner.Record) models.FileEntry {
	return models.FileEntry{
		Path:      r.Path,
		Name:      filepath.Base(r.Path),
		Scope:     r.Scope,
		UpdateAt:  r.ModTime.UnixMilli(),
		CreatedAt: r.CreatedAt.UnixMilli(),
		Type:      ix.matcher.InferPath(r.Path),
	}
}

// PreviouslyAccessedSync returns every file under dirs.
//
// threshold is accepted but not applied: callers rely on full enumeration.
func (ix *Index) PreviouslyAccessedSync(ctx context.Context, threshold time.Duration, dirs []models.BaseDirectory) ([]models.FileEntry, error) {
	_ = threshold

	records, err := ix.scanner.WalkSync(ctx, dirs)
	if err != nil {
		return nil, err
	}
	out := make([]models.FileEntry, 0, len(records))
	for _, r := range records {
		out = append(out, ix.Entry(r))
	}
	return out, nil
}

// PreviouslyAccessed streams entries of type typ (PageTypeAny for all) to cb
// as they are discovered and finishes with a single Done update. It returns
// immediately; cb runs on the walking goroutine. threshold is ignored as in
// PreviouslyAccessedSync.
func (ix *Index) PreviouslyAccessed(ctx context.Context, threshold time.Duration, typ models.PageType, dirs []models.BaseDirectory, cb func(Update)) {
	_ = threshold

	ix.scanner.WalkAsync(ctx, dirs, func(r scanner.Record) {
		e := ix.Entry(r)
		if e.Type.Matches(typ) {
			cb(Update{Entry: e})
		}
	}, func(err error) {
		cb(Update{Done: true, Err: err})
	})
}

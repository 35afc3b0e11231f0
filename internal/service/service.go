// Package service is the facade the HTTP, MCP and CLI surfaces share. It
// composes the scanner, classifier, resolvers and catalog for one journal.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/daybook/internal/access"
	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/catalog"
	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/journal"
	"github.com/starford/daybook/internal/layout"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/pathmatch"
	"github.com/starford/daybook/internal/refs"
)

// ErrCatalogDisabled is returned by catalog reads when no catalog is configured.
var ErrCatalogDisabled = errors.New("service: catalog disabled")

// Publisher receives scan progress. *sse.Broker satisfies it.
type Publisher interface {
	PublishDiscovered(scanID string, f models.FileEntry)
	PublishScanCompleted(scanID string, err error)
}

// Deps are the collaborators a Service is built from. Catalog and Events may be nil.
type Deps struct {
	Layout  *layout.Layout
	Matcher *pathmatch.Matcher
	Access  *access.Index
	Refs    *refs.Resolver
	Journal *journal.Resolver
	Docs    *document.FS
	Catalog catalog.Catalog
	Events  Publisher
	Logger  *slog.Logger
}

// Service coordinates journal operations.
type Service struct {
	Deps
}

// New creates a service from d.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{Deps: d}
}

// Files returns every file in the journal whose type matches typ.
func (s *Service) Files(ctx context.Context, typ models.PageType) ([]models.FileEntry, error) {
	all, err := s.Access.PreviouslyAccessedSync(ctx, 0, s.Layout.BaseDirectories())
	if err != nil {
		return nil, err
	}
	out := make([]models.FileEntry, 0, len(all))
	for _, e := range all {
		if e.Type.Matches(typ) {
			out = append(out, e)
		}
	}
	return out, nil
}

// StartScan walks the journal in the background and returns the scan id its
// events are tagged with. A full scan that completes refreshes the catalog.
func (s *Service) StartScan(ctx context.Context, typ models.PageType) string {
	id := uuid.NewString()
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	var found []models.FileEntry
	s.Access.PreviouslyAccessed(ctx, 0, typ, s.Layout.BaseDirectories(), func(u access.Update) {
		if !u.Done {
			found = append(found, u.Entry)
			if s.Events != nil {
				s.Events.PublishDiscovered(id, u.Entry)
			}
			return
		}

		err := u.Err
		if err == nil && typ == models.PageTypeAny && s.Catalog != nil {
			err = s.Catalog.Replace(ctx, found)
		}
		if err != nil {
			s.Logger.Warn("service: scan failed", slog.String("scan_id", id), slog.String("error", err.Error()))
		} else {
			s.Logger.Info("service: scan completed",
				slog.String("scan_id", id),
				slog.Int("files", len(found)),
				slog.Duration("took", time.Since(start)))
		}
		if s.Events != nil {
			s.Events.PublishScanCompleted(id, err)
		}
	})
	return id
}

// Sync rebuilds the catalog from a fresh scan.
func (s *Service) Sync(ctx context.Context) (int, error) {
	if s.Catalog == nil {
		return 0, ErrCatalogDisabled
	}
	return catalog.Sync(ctx, s.Catalog, s.Access, s.Layout.BaseDirectories(), s.Logger)
}

// Recent lists catalogued files, newest first.
func (s *Service) Recent(ctx context.Context, q catalog.Query) ([]models.FileEntry, error) {
	if s.Catalog == nil {
		return nil, ErrCatalogDisabled
	}
	return s.Catalog.Recent(ctx, q)
}

// EntryForDate opens an existing entry without creating it.
func (s *Service) EntryForDate(ctx context.Context, date time.Time, scope string) (*document.Document, error) {
	return s.Journal.LoadEntryForDate(ctx, date, scope)
}

// OpenEntry returns the entry in points at, creating it when missing.
func (s *Service) OpenEntry(ctx context.Context, in models.Input) (*document.Document, error) {
	return s.Journal.LoadEntryForInput(ctx, in)
}

// OpenNote returns the note titled in.Text, creating it when missing.
func (s *Service) OpenNote(ctx context.Context, in models.Input) (*document.Document, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("service: note title is required: %w", apperr.ErrPathResolution)
	}
	return s.Journal.LoadNoteForInput(ctx, in)
}

// ReferencedFiles resolves the local files the document at path links to.
func (s *Service) ReferencedFiles(ctx context.Context, path string) ([]models.ResourceRef, error) {
	doc, err := s.Docs.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.Refs.ReferencedFiles(ctx, doc)
}

// NotesFolderFiles lists the notes folder of date. With all set every scope
// is searched and scope is ignored.
func (s *Service) NotesFolderFiles(ctx context.Context, date time.Time, scope string, all bool) ([]models.ResourceRef, error) {
	entry, err := s.Journal.EntryPath(date, scope)
	if err != nil {
		return nil, err
	}
	doc := &document.Document{Path: entry}
	if all {
		return s.Refs.FilesInNotesFolderAllScopes(ctx, doc, date)
	}
	return s.Refs.FilesInNotesFolder(ctx, doc, date, scope)
}

// Attach stores data as a new file in the notes folder of date. An empty or
// hidden name is replaced by a random one keeping the extension.
func (s *Service) Attach(ctx context.Context, date time.Time, scope, name string, data []byte) (models.ResourceRef, error) {
	folder, err := s.Layout.NotesPath(layout.Day(date), scope)
	if err != nil {
		return models.ResourceRef{}, err
	}
	name, err = attachmentName(name)
	if err != nil {
		return models.ResourceRef{}, err
	}
	path := filepath.Join(folder, name)
	if err := s.Docs.Create(ctx, path, data); err != nil {
		return models.ResourceRef{}, err
	}
	return models.ResourceRef{
		Path:  path,
		Name:  name,
		Scope: s.Layout.ScopeOf(path),
		Type:  s.Matcher.InferPath(path),
	}, nil
}

// attachmentName rejects names carrying directories and renames hidden or
// empty ones so the scanner can see them.
func attachmentName(name string) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == ".." {
		return "", fmt.Errorf("service: invalid attachment name %q", name)
	}
	if name == "" || strings.HasPrefix(name, ".") {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "." {
			ext = ""
		}
		return uuid.NewString() + ext, nil
	}
	return name, nil
}

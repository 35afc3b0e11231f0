// Package journal resolves dates and day offsets to entry documents,
// loading existing entries and creating missing ones with a header.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/layout"
	"github.com/starford/daybook/internal/models"
)

// CreateHook is called after the host created a document.
type CreateHook func(doc *document.Document)

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides time.Now, used to resolve offsets.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithCreateHook registers a callback for newly created documents.
func WithCreateHook(h CreateHook) Option {
	return func(r *Resolver) { r.onCreate = h }
}

// Resolver maps dates and inputs to documents.
type Resolver struct {
	layout   *layout.Layout
	host     document.Host
	now      func() time.Time
	logger   *slog.Logger
	onCreate CreateHook
}

// New creates a resolver over l backed by host.
func New(l *layout.Layout, host document.Host, opts ...Option) *Resolver {
	r := &Resolver{
		layout: l,
		host:   host,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the layout paths are resolved with.
func (r *Resolver) Layout() *layout.Layout { return r.layout }

// ResolveDate returns the calendar day in's offset points at.
func (r *Resolver) ResolveDate(in models.Input) time.Time {
	return layout.ResolveDate(r.now(), in.Offset)
}

// EntryPath returns the canonical entry path for date in scope.
func (r *Resolver) EntryPath(date time.Time, scope string) (string, error) {
	return r.layout.EntryPath(layout.Day(date), scope)
}

// LoadEntryForDate opens the entry for date. A missing entry is reported as
// *apperr.EntryNotFoundError carrying the path; nothing is created.
func (r *Resolver) LoadEntryForDate(ctx context.Context, date time.Time, scope string) (*document.Document, error) {
	path, err := r.EntryPath(date, scope)
	if err != nil {
		return nil, fmt.Errorf("journal: entry for %s: %w", date.Format(time.DateOnly), err)
	}
	doc, err := r.host.Open(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, &apperr.EntryNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return doc, nil
}

// LoadEntryForInput returns the entry for today plus in.Offset days,
// creating it with a dated header when missing.
func (r *Resolver) LoadEntryForInput(ctx context.Context, in models.Input) (*document.Document, error) {
	date := r.ResolveDate(in)
	path, err := r.layout.EntryPath(date, in.Scope)
	if err != nil {
		return nil, fmt.Errorf("journal: entry for %s: %w", date.Format(time.DateOnly), err)
	}
	header, err := r.layout.EntryHeader(date, in.Scope)
	if err != nil {
		return nil, fmt.Errorf("journal: header for %s: %w", date.Format(time.DateOnly), err)
	}
	return r.LoadNote(ctx, path, header)
}

// LoadNoteForInput returns the note titled in.Text in the notes folder of the
// day in.Offset points at, creating it when missing.
func (r *Resolver) LoadNoteForInput(ctx context.Context, in models.Input) (*document.Document, error) {
	date := r.ResolveDate(in)
	path, err := r.layout.NotePath(date, in.Scope, in.Text)
	if err != nil {
		return nil, fmt.Errorf("journal: note %q: %w", in.Text, err)
	}
	header, err := r.layout.NoteHeader(date, in.Scope, in.Text)
	if err != nil {
		return nil, fmt.Errorf("journal: note header %q: %w", in.Text, err)
	}
	return r.LoadNote(ctx, path, header)
}

// LoadNote opens path, creating it with content if it does not exist.
func (r *Resolver) LoadNote(ctx context.Context, path, content string) (*document.Document, error) {
	doc, err := r.host.OpenOrCreate(ctx, path, []byte(content))
	if err != nil {
		return nil, fmt.Errorf("journal: load %s: %w", path, err)
	}
	if doc.Created {
		r.logger.Info("journal: created", slog.String("path", doc.Path))
		if r.onCreate != nil {
			r.onCreate(doc)
		}
	}
	return doc, nil
}

// Package refs finds the local files an entry points at: links inside its
// text and the files sitting in its notes folder.
package refs

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/layout"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/parser"
	"github.com/starford/daybook/internal/pathmatch"
	"github.com/starford/daybook/internal/scanner"
)

var schemeRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):`)

// Resolver resolves references and notes folders.
type Resolver struct {
	layout  *layout.Layout
	scanner *scanner.Scanner
	matcher *pathmatch.Matcher
	logger  *slog.Logger
}

// New creates a resolver.
func New(l *layout.Layout, s *scanner.Scanner, m *pathmatch.Matcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{layout: l, scanner: s, matcher: m, logger: logger}
}

// ReferencedFiles returns the existing local files referenced in doc's text,
// in order of appearance. References that do not resolve to a regular file
// are dropped silently.
func (r *Resolver) ReferencedFiles(ctx context.Context, doc *document.Document) ([]models.ResourceRef, error) {
	res, err := parser.Parse([]byte(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("refs: parse %s: %w", doc.Path, err)
	}

	dir := filepath.Dir(doc.Path)
	seen := make(map[string]struct{})
	out := []models.ResourceRef{}
	for _, raw := range res.References {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := localPath(dir, raw)
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			r.logger.Debug("refs: unresolved", slog.String("document", doc.Path), slog.String("reference", raw))
			continue
		}
		seen[p] = struct{}{}
		out = append(out, r.ref(p, r.layout.ScopeOf(p)))
	}
	return out, nil
}

// FilesInNotesFolder lists the files directly inside the notes folder of date
// in scope, leaving out doc itself. A missing folder yields an empty slice.
func (r *Resolver) FilesInNotesFolder(ctx context.Context, doc *document.Document, date time.Time, scope string) ([]models.ResourceRef, error) {
	s, err := r.layout.Scope(scope)
	if err != nil {
		return nil, fmt.Errorf("refs: notes folder: %w", err)
	}
	dir, err := r.layout.NotesPath(layout.Day(date), s.Name)
	if err != nil {
		return nil, fmt.Errorf("refs: notes folder: %w", err)
	}
	records, err := r.scanner.List(ctx, models.BaseDirectory{Path: dir, Scope: s.Name})
	if err != nil {
		return nil, err
	}

	out := make([]models.ResourceRef, 0, len(records))
	for _, rec := range records {
		if doc != nil && rec.Path == doc.Path {
			continue
		}
		out = append(out, r.ref(rec.Path, rec.Scope))
	}
	return out, nil
}

// FilesInNotesFolderAllScopes merges FilesInNotesFolder over every scope,
// deduplicated by path. Results follow scope order, then path order.
func (r *Resolver) FilesInNotesFolderAllScopes(ctx context.Context, doc *document.Document, date time.Time) ([]models.ResourceRef, error) {
	scopes := r.layout.Scopes()
	perScope := make([][]models.ResourceRef, len(scopes))

	g, gCtx := errgroup.WithContext(ctx)
	for i, s := range scopes {
		g.Go(func() error {
			refs, err := r.FilesInNotesFolder(gCtx, doc, date, s.Name)
			if err != nil {
				return err
			}
			perScope[i] = refs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := []models.ResourceRef{}
	for _, refs := range perScope {
		sort.Slice(refs, func(a, b int) bool { return refs[a].Path < refs[b].Path })
		for _, ref := range refs {
			if _, dup := seen[ref.Path]; dup {
				continue
			}
			seen[ref.Path] = struct{}{}
			out = append(out, ref)
		}
	}
	return out, nil
}

func (r *Resolver) ref(p, scope string) models.ResourceRef {
	return models.ResourceRef{
		Path:  p,
		Name:  filepath.Base(p),
		Scope: scope,
		Type:  r.matcher.InferPath(p),
	}
}

// localPath turns a raw reference into an absolute path relative to dir.
// Remote URLs are rejected.
func localPath(dir, raw string) (string, bool) {
	if m := schemeRe.FindStringSubmatch(raw); m != nil && len(m[1]) > 1 {
		if !strings.EqualFold(m[1], "file") {
			return "", false
		}
		u, err := url.Parse(raw)
		if err != nil || u.Path == "" {
			return "", false
		}
		return filepath.Clean(filepath.FromSlash(u.Path)), true
	}

	if i := strings.IndexAny(raw, "#?"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return layout.ResolvePath(dir, raw), true
}

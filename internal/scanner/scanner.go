// Package scanner walks journal base directories and reports every regular file.
//
// One traversal serves both modes: WalkSync collects into a slice, WalkAsync
// streams to a callback from its own goroutine and reports completion
// separately. Unreadable nodes and symlink cycles are logged and skipped.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
)

// Record is a raw file found by the scanner.
type Record struct {
	Path      string
	Scope     string
	ModTime   time.Time
	CreatedAt time.Time
}

// Sink receives records in discovery order.
type Sink interface {
	Add(Record)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Record)

// Add calls f(r).
func (f SinkFunc) Add(r Record) { f(r) }

// Scanner walks base directories. The zero value logs to slog.Default.
type Scanner struct {
	logger *slog.Logger
}

// New creates a scanner logging skipped nodes to logger.
func New(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logger}
}

func (s *Scanner) log() *slog.Logger {
	if s == nil || s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// Walk recursively descends every directory in order, feeding sink. Entries
// within a directory arrive in lexical order. A base nested inside another is
// reported only under its own scope, and a base repeated under a second scope
// only under the first. The only error returned is the context's.
func (s *Scanner) Walk(ctx context.Context, dirs []models.BaseDirectory, sink Sink) error {
	bases := make(map[string]struct{}, len(dirs))
	roots := make([]string, len(dirs))
	for i, d := range dirs {
		roots[i] = realPath(d.Path)
		if roots[i] != "" {
			bases[roots[i]] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(dirs))
	for i, d := range dirs {
		if roots[i] != "" {
			if _, ok := seen[roots[i]]; ok {
				continue
			}
			seen[roots[i]] = struct{}{}
		}
		if err := s.walkBase(ctx, d, true, bases, sink); err != nil {
			return err
		}
	}
	return nil
}

// realPath returns the absolute, symlink-free form of p, or "" when it cannot
// be resolved.
func realPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return ""
	}
	return resolved
}

// WalkSync walks dirs and returns every record once the walk has finished.
func (s *Scanner) WalkSync(ctx context.Context, dirs []models.BaseDirectory) ([]Record, error) {
	var out []Record
	err := s.Walk(ctx, dirs, SinkFunc(func(r Record) {
		out = append(out, r)
	}))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WalkAsync walks dirs in a new goroutine. onEntry is called once per file as
// it is found, then onDone exactly once with the walk's result. Both callbacks
// run on the walking goroutine.
func (s *Scanner) WalkAsync(ctx context.Context, dirs []models.BaseDirectory, onEntry func(Record), onDone func(error)) {
	go func() {
		err := s.Walk(ctx, dirs, SinkFunc(func(r Record) {
			if onEntry != nil {
				onEntry(r)
			}
		}))
		if onDone != nil {
			onDone(err)
		}
	}()
}

// List returns the regular files directly inside dir. A missing directory
// yields an empty result.
func (s *Scanner) List(ctx context.Context, dir models.BaseDirectory) ([]Record, error) {
	out := []Record{}
	err := s.walkBase(ctx, dir, false, nil, SinkFunc(func(r Record) {
		out = append(out, r)
	}))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Scanner) walkBase(ctx context.Context, base models.BaseDirectory, recursive bool, bases map[string]struct{}, sink Sink) error {
	root, err := filepath.Abs(base.Path)
	if err != nil {
		s.skip(&apperr.ScanIOError{Path: base.Path, Op: "resolve", Err: err})
		return nil
	}
	info, err := os.Stat(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.skip(&apperr.ScanIOError{Path: root, Op: "stat", Err: err})
		}
		return nil
	}
	if !info.IsDir() {
		return nil
	}
	w := &walker{
		scanner:   s,
		scope:     base.Scope,
		recursive: recursive,
		sink:      sink,
		bases:     bases,
		visiting:  make(map[string]struct{}),
	}
	return w.dir(ctx, root, true)
}

func (s *Scanner) skip(err *apperr.ScanIOError) {
	s.log().Warn("scanner: skipped",
		slog.String("path", err.Path),
		slog.String("op", err.Op),
		slog.String("error", err.Err.Error()))
}

type walker struct {
	scanner   *Scanner
	scope     string
	recursive bool
	sink      Sink
	// real paths of every base directory in the walk; descent stops at them
	bases map[string]struct{}
	// real paths of the directories on the current descent
	visiting map[string]struct{}
}

func (w *walker) dir(ctx context.Context, dir string, root bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		w.scanner.skip(&apperr.ScanIOError{Path: dir, Op: "eval", Err: err})
		return nil
	}
	if _, ok := w.bases[resolved]; ok && !root {
		w.scanner.log().Debug("scanner: nested base", slog.String("path", dir))
		return nil
	}
	if _, ok := w.visiting[resolved]; ok {
		w.scanner.log().Debug("scanner: symlink cycle", slog.String("path", dir), slog.String("target", resolved))
		return nil
	}
	w.visiting[resolved] = struct{}{}
	defer delete(w.visiting, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.scanner.skip(&apperr.ScanIOError{Path: dir, Op: "readdir", Err: err})
		return nil
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		p := filepath.Join(dir, name)

		var info fs.FileInfo
		if e.Type()&fs.ModeSymlink != 0 {
			info, err = os.Stat(p)
			if err != nil {
				w.scanner.skip(&apperr.ScanIOError{Path: p, Op: "stat", Err: err})
				continue
			}
		} else if !e.IsDir() {
			info, err = e.Info()
			if err != nil {
				w.scanner.skip(&apperr.ScanIOError{Path: p, Op: "stat", Err: err})
				continue
			}
		}

		if e.IsDir() || (info != nil && info.IsDir()) {
			if !w.recursive {
				continue
			}
			if err := w.dir(ctx, p, false); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		w.sink.Add(Record{
			Path:      p,
			Scope:     w.scope,
			ModTime:   info.ModTime(),
			CreatedAt: birthTime(p, info),
		})
	}
	return nil
}

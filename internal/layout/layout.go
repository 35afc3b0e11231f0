// Package layout turns dates, offsets and scopes into journal paths and headers.
// Nothing in here touches the filesystem.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
)

// Template variables.
const (
	VarBase      = "base"
	VarYear      = "year"
	VarMonth     = "month"
	VarDay       = "day"
	VarExt       = "ext"
	VarWeekday   = "weekday"
	VarLocalDate = "localDate"
	VarInput     = "input"
	VarHomeDir   = "homeDir"
	VarScope     = "scope"
)

// DefaultScope names the scope used when a request does not pick one.
const DefaultScope = "default"

// Templates holds the configured path and header templates.
type Templates struct {
	Entry      string `yaml:"entry"`
	Notes      string `yaml:"notes"`
	Note       string `yaml:"note"`
	Header     string `yaml:"header"`
	NoteHeader string `yaml:"note_header"`
}

// DefaultTemplates returns the ${year}/${month}/${day} layout.
func DefaultTemplates() Templates {
	return Templates{
		Entry:      "${base}/${year}/${month}/${day}.${ext}",
		Notes:      "${base}/${year}/${month}/${day}",
		Note:       "${input}.${ext}",
		Header:     "# ${weekday}, ${localDate}\n\n",
		NoteHeader: "# ${input}\n\n",
	}
}

// Scope is a named base directory.
type Scope struct {
	Name string `yaml:"name"`
	Base string `yaml:"base"`
}

// Layout resolves paths for a set of scopes. The first scope is the default.
type Layout struct {
	ext       string
	home      string
	scopes    []Scope
	templates Templates
}

// New validates scopes and makes their bases absolute.
func New(ext string, scopes []Scope, tpl Templates) (*Layout, error) {
	if len(scopes) == 0 {
		return nil, errors.New("layout: at least one scope is required")
	}
	home, _ := os.UserHomeDir()
	l := &Layout{
		ext:       strings.TrimPrefix(ext, "."),
		home:      home,
		templates: tpl,
	}
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		if s.Name == "" || s.Base == "" {
			return nil, fmt.Errorf("layout: scope %q: name and base are required", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("layout: duplicate scope %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		base, err := filepath.Abs(expandHome(s.Base, home))
		if err != nil {
			return nil, fmt.Errorf("layout: scope %q: %w", s.Name, err)
		}
		l.scopes = append(l.scopes, Scope{Name: s.Name, Base: base})
	}
	return l, nil
}

// Ext returns the entry file extension without the dot.
func (l *Layout) Ext() string { return l.ext }

// Templates returns the path and header templates in use.
func (l *Layout) Templates() Templates { return l.templates }

// Scopes returns the configured scopes in order.
func (l *Layout) Scopes() []Scope {
	return append([]Scope(nil), l.scopes...)
}

// BaseDirectories returns one base directory per scope.
func (l *Layout) BaseDirectories() []models.BaseDirectory {
	out := make([]models.BaseDirectory, 0, len(l.scopes))
	for _, s := range l.scopes {
		out = append(out, models.BaseDirectory{Path: s.Base, Scope: s.Name})
	}
	return out
}

// Scope looks up a scope by name; the empty name selects the default scope.
func (l *Layout) Scope(name string) (Scope, error) {
	if name == "" {
		return l.scopes[0], nil
	}
	for _, s := range l.scopes {
		if s.Name == name {
			return s, nil
		}
	}
	return Scope{}, &apperr.PathResolutionError{Template: name, Err: fmt.Errorf("%w: %s", apperr.ErrUnknownScope, name)}
}

// ScopeOf returns the scope whose base contains path, preferring the deepest
// base, or "" when none does.
func (l *Layout) ScopeOf(path string) string {
	best, bestLen := "", -1
	for _, s := range l.scopes {
		if path == s.Base || strings.HasPrefix(path, s.Base+string(filepath.Separator)) {
			if len(s.Base) > bestLen {
				best, bestLen = s.Name, len(s.Base)
			}
		}
	}
	return best
}

// EntryPath returns the canonical entry path for date in scope.
func (l *Layout) EntryPath(date time.Time, scope string) (string, error) {
	return l.path(l.templates.Entry, date, scope)
}

// NotesPath returns the notes folder for date in scope.
func (l *Layout) NotesPath(date time.Time, scope string) (string, error) {
	return l.path(l.templates.Notes, date, scope)
}

// NotePath returns the path of a note titled title inside the notes folder of date.
func (l *Layout) NotePath(date time.Time, scope, title string) (string, error) {
	dir, err := l.NotesPath(date, scope)
	if err != nil {
		return "", err
	}
	s, err := l.Scope(scope)
	if err != nil {
		return "", err
	}
	vars := l.vars(date, s)
	vars[VarInput] = Slug(title)
	name, err := Expand(l.templates.Note, vars)
	if err != nil {
		return "", err
	}
	return ResolvePath(dir, name), nil
}

// EntryHeader renders the initial content of a new entry for date in scope.
func (l *Layout) EntryHeader(date time.Time, scope string) (string, error) {
	s, err := l.Scope(scope)
	if err != nil {
		return "", err
	}
	return Expand(l.templates.Header, l.vars(date, s))
}

// NoteHeader renders the initial content of a new note titled title in scope.
func (l *Layout) NoteHeader(date time.Time, scope, title string) (string, error) {
	s, err := l.Scope(scope)
	if err != nil {
		return "", err
	}
	vars := l.vars(date, s)
	vars[VarInput] = title
	return Expand(l.templates.NoteHeader, vars)
}

func (l *Layout) path(tpl string, date time.Time, scope string) (string, error) {
	s, err := l.Scope(scope)
	if err != nil {
		return "", err
	}
	p, err := Expand(tpl, l.vars(date, s))
	if err != nil {
		return "", err
	}
	return ResolvePath(s.Base, p), nil
}

func (l *Layout) vars(date time.Time, s Scope) map[string]string {
	return map[string]string{
		VarBase:      s.Base,
		VarScope:     s.Name,
		VarYear:      date.Format("2006"),
		VarMonth:     date.Format("01"),
		VarDay:       date.Format("02"),
		VarWeekday:   date.Weekday().String(),
		VarLocalDate: date.Format("January 2, 2006"),
		VarExt:       l.ext,
		VarHomeDir:   l.home,
	}
}

// Expand substitutes ${name} placeholders. A placeholder without a value,
// or an empty template, is a PathResolutionError.
func Expand(tpl string, vars map[string]string) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		return "", &apperr.PathResolutionError{Template: tpl, Err: errors.New("empty template")}
	}
	var missing string
	out := os.Expand(tpl, func(name string) string {
		v, ok := vars[name]
		if (!ok || v == "") && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", &apperr.PathResolutionError{Template: tpl, Variable: missing}
	}
	return out, nil
}

// ResolvePath joins filename onto pathname and cleans the result. An
// absolute filename wins; a leading ~ is replaced by the home directory.
func ResolvePath(pathname, filename string) string {
	home, _ := os.UserHomeDir()
	filename = filepath.FromSlash(expandHome(filename, home))
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename)
	}
	return filepath.Join(filepath.FromSlash(expandHome(pathname, home)), filename)
}

func expandHome(p, home string) string {
	if home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		return filepath.Join(home, p[2:])
	}
	return p
}

// ResolveDate returns the calendar day offset days away from now, at
// midnight in now's location. Month and year rollovers follow time.Date.
func ResolveDate(now time.Time, offset int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, now.Location())
}

// Day truncates t to midnight in its location.
func Day(t time.Time) time.Time {
	return ResolveDate(t, 0)
}

// Slug lower-cases s and collapses everything but letters and digits into dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Package pathmatch classifies journal files by the shape of their path.
package pathmatch

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/starford/daybook/internal/models"
)

// ParsedPath is a path split into the components rules look at.
type ParsedPath struct {
	Dir  string // parent directory
	Base string // file name with extension
	Name string // file name without extension
	Ext  string // extension without the dot, lower-cased
}

// Parse splits p into its components. It accepts any string.
func Parse(p string) ParsedPath {
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	return ParsedPath{
		Dir:  filepath.Dir(p),
		Base: base,
		Name: strings.TrimSuffix(base, ext),
		Ext:  strings.ToLower(strings.TrimPrefix(ext, ".")),
	}
}

// Rule maps a path shape to a page type. Empty predicates match anything.
// Dir is matched against the base name of the parent directory, Name against
// the file name without extension.
type Rule struct {
	Type       models.PageType `yaml:"type"`
	Extensions []string        `yaml:"extensions"`
	Dir        string          `yaml:"dir"`
	Name       string          `yaml:"name"`
}

type compiledRule struct {
	typ  models.PageType
	exts map[string]struct{}
	dir  *regexp.Regexp
	name *regexp.Regexp
}

func (r *compiledRule) match(p ParsedPath) bool {
	if len(r.exts) > 0 {
		if _, ok := r.exts[p.Ext]; !ok {
			return false
		}
	}
	if r.dir != nil && !r.dir.MatchString(filepath.Base(p.Dir)) {
		return false
	}
	if r.name != nil && !r.name.MatchString(p.Name) {
		return false
	}
	return true
}

// Matcher evaluates rules in configured order; the first match wins.
type Matcher struct {
	rules []compiledRule
}

// New compiles rules, keeping their order.
func New(rules []Rule) (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if !r.Type.Valid() {
			return nil, fmt.Errorf("pathmatch: rule %d: invalid type %q", i, r.Type)
		}
		cr := compiledRule{typ: r.Type}
		if len(r.Extensions) > 0 {
			cr.exts = make(map[string]struct{}, len(r.Extensions))
			for _, e := range r.Extensions {
				cr.exts[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
			}
		}
		var err error
		if r.Dir != "" {
			if cr.dir, err = regexp.Compile(r.Dir); err != nil {
				return nil, fmt.Errorf("pathmatch: rule %d: dir: %w", i, err)
			}
		}
		if r.Name != "" {
			if cr.name, err = regexp.Compile(r.Name); err != nil {
				return nil, fmt.Errorf("pathmatch: rule %d: name: %w", i, err)
			}
		}
		m.rules = append(m.rules, cr)
	}
	return m, nil
}

// MustNew is New for rule sets known to be valid.
func MustNew(rules []Rule) *Matcher {
	m, err := New(rules)
	if err != nil {
		panic(err)
	}
	return m
}

// InferType returns the type of the first matching rule, or PageTypeUnknown.
func (m *Matcher) InferType(p ParsedPath) models.PageType {
	if m == nil {
		return models.PageTypeUnknown
	}
	for i := range m.rules {
		if m.rules[i].match(p) {
			return m.rules[i].typ
		}
	}
	return models.PageTypeUnknown
}

// InferPath parses and classifies p.
func (m *Matcher) InferPath(p string) models.PageType {
	return m.InferType(Parse(p))
}

// DefaultRules matches the default ${year}/${month}/${day}.md layout with
// notes folders at ${year}/${month}/${day}/.
func DefaultRules() []Rule {
	return []Rule{
		{Type: models.PageTypeEntry, Extensions: []string{"md"}, Dir: `^\d{2}$`, Name: `^\d{2}$`},
		{Type: models.PageTypeNote, Extensions: []string{"md", "txt"}, Dir: `^\d{2}$`},
		{Type: models.PageTypeAttachment, Dir: `^\d{2}$`},
	}
}

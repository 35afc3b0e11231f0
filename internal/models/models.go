// Package models defines the domain types shared by the scanner, resolvers and surfaces.
package models

import "fmt"

// PageType is the role of a journal file inferred from its path shape.
type PageType string

// Page types. PageTypeAny is only valid as a filter.
const (
	PageTypeAny        PageType = ""
	PageTypeEntry      PageType = "entry"
	PageTypeNote       PageType = "note"
	PageTypeAttachment PageType = "attachment"
	PageTypeUnknown    PageType = "unknown"
)

// PageTypes lists every classification in declaration order.
var PageTypes = []PageType{PageTypeEntry, PageTypeNote, PageTypeAttachment, PageTypeUnknown}

// Valid reports whether t is a concrete classification.
func (t PageType) Valid() bool {
	switch t {
	case PageTypeEntry, PageTypeNote, PageTypeAttachment, PageTypeUnknown:
		return true
	}
	return false
}

// ParsePageType parses a filter value. The empty string is PageTypeAny.
func ParsePageType(s string) (PageType, error) {
	t := PageType(s)
	if t != PageTypeAny && !t.Valid() {
		return "", fmt.Errorf("unknown page type %q", s)
	}
	return t, nil
}

// Matches reports whether t passes the filter f. PageTypeAny lets everything through.
func (t PageType) Matches(f PageType) bool {
	return f == PageTypeAny || t == f
}

// BaseDirectory is a scanned root tagged with the scope it belongs to.
type BaseDirectory struct {
	Path  string `json:"path" yaml:"path"`
	Scope string `json:"scope" yaml:"scope"`
}

// FileEntry is a classified snapshot of a file found during a scan.
// Timestamps are milliseconds since the Unix epoch.
type FileEntry struct {
	Path      string   `json:"path"`
	Name      string   `json:"name"`
	Scope     string   `json:"scope"`
	UpdateAt  int64    `json:"update_at"`
	CreatedAt int64    `json:"created_at"`
	Type      PageType `json:"type"`
}

// Input is a relative day request: 0 is today, -1 yesterday, +1 tomorrow.
type Input struct {
	Offset int    `json:"offset"`
	Scope  string `json:"scope,omitempty"`
	Text   string `json:"text,omitempty"` // note title, used when creating notes
}

// ResourceRef is an existing local file found through a document or a notes folder.
type ResourceRef struct {
	Path  string   `json:"path"`
	Name  string   `json:"name"`
	Scope string   `json:"scope,omitempty"`
	Type  PageType `json:"type"`
}

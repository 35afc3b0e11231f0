// Package apperr holds the error taxonomy shared across packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrPathResolution = errors.New("path resolution failed")
	ErrEntryNotFound  = errors.New("entry not found")
	ErrDocumentCreate = errors.New("document create failed")
	ErrUnknownScope   = errors.New("unknown scope")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
)

// ScanIOError reports a node the scanner could not read. It is logged and skipped.
type ScanIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *ScanIOError) Error() string {
	return fmt.Sprintf("scan %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ScanIOError) Unwrap() error { return e.Err }

// PathResolutionError reports a canonical path that could not be built.
type PathResolutionError struct {
	Template string
	Variable string
	Err      error
}

func (e *PathResolutionError) Error() string {
	switch {
	case e.Variable != "":
		return fmt.Sprintf("resolve path %q: variable %q has no value", e.Template, e.Variable)
	case e.Err != nil:
		return fmt.Sprintf("resolve path %q: %v", e.Template, e.Err)
	}
	return fmt.Sprintf("resolve path %q", e.Template)
}

func (e *PathResolutionError) Is(target error) bool { return target == ErrPathResolution }

func (e *PathResolutionError) Unwrap() error { return e.Err }

// EntryNotFoundError carries the path that was looked up.
type EntryNotFoundError struct {
	Path string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("no entry at %s", e.Path)
}

func (e *EntryNotFoundError) Is(target error) bool { return target == ErrEntryNotFound }

// DocumentCreateError reports that the host refused to create a document.
type DocumentCreateError struct {
	Path string
	Err  error
}

func (e *DocumentCreateError) Error() string {
	return fmt.Sprintf("create document %s: %v", e.Path, e.Err)
}

func (e *DocumentCreateError) Is(target error) bool { return target == ErrDocumentCreate }

func (e *DocumentCreateError) Unwrap() error { return e.Err }

// Package document provides the host side of entry loading: opening existing
// documents and creating missing ones.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is an opened text document.
type Document struct {
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
	// Created is set when the document did not exist and was created by this call.
	Created bool `json:"created"`
}

// Checksum returns the hex SHA-256 of data, the value reported in Document.Checksum.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Host opens and creates documents by absolute path.
type Host interface {
	// Open returns the document at path or an error wrapping apperr.ErrNotFound.
	Open(ctx context.Context, path string) (*Document, error)
	// OpenOrCreate returns the document at path, creating it with content if
	// it is missing. Creation failures wrap apperr.ErrDocumentCreate.
	OpenOrCreate(ctx context.Context, path string, content []byte) (*Document, error)
}

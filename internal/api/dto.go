package api

import (
	"time"

	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/models"
)

// InputRequest is the body of POST /entries and POST /notes.
type InputRequest struct {
	Offset int    `json:"offset" example:"-1"`
	Scope  string `json:"scope,omitempty" example:"work"`
	Text   string `json:"text,omitempty" example:"Design review"`
}

func (r InputRequest) input() models.Input {
	return models.Input{Offset: r.Offset, Scope: r.Scope, Text: r.Text}
}

// DocumentResponse is a loaded entry or note.
type DocumentResponse struct {
	Path      string    `json:"path" example:"/home/me/journal/2026/10/16.md"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	Created   bool      `json:"created"`
	UpdatedAt time.Time `json:"updated_at"`
}

func documentResponse(d *document.Document) DocumentResponse {
	return DocumentResponse{
		Path:      d.Path,
		Content:   d.Content,
		Checksum:  d.Checksum,
		Created:   d.Created,
		UpdatedAt: d.UpdatedAt,
	}
}

// FileListResponse wraps file listings.
type FileListResponse struct {
	Files []models.FileEntry `json:"files"`
	Total int                `json:"total"`
}

// ScanResponse is returned when a background scan starts.
type ScanResponse struct {
	ScanID string `json:"scan_id"`
}

// RefListResponse wraps resolved references and notes folder listings.
type RefListResponse struct {
	Files []models.ResourceRef `json:"files"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	models.ResourceRef
	Size int64 `json:"size"`
}

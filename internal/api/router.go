package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daybook/internal/service"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *service.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Listings.
	r.Get("/files", h.ListFiles)
	r.Post("/scans", h.StartScan)
	r.Get("/recent", h.Recent)

	// Entries and notes.
	r.Get("/entries/{date}", h.GetEntry)
	r.Post("/entries", h.OpenEntry)
	r.Post("/notes", h.OpenNote)

	// Resources around a document.
	r.Get("/references", h.References)
	r.Get("/notes-folder", h.NotesFolder)

	// Attachments upload into a notes folder.
	r.Post("/attachments", h.Upload)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/daybook/internal/catalog"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/service"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Handler holds API route handlers.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// pageTypeParam reads the "type" query parameter; empty means any type.
func pageTypeParam(r *http.Request) (models.PageType, bool) {
	t, err := models.ParsePageType(r.URL.Query().Get("type"))
	return t, err == nil
}

// dateParam parses a YYYY-MM-DD value in local time.
func dateParam(s string) (time.Time, bool) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	return d, err == nil
}

// ListFiles handles GET /api/files.
//
//	@Summary		List journal files, optionally filtered by type
//	@Tags			files
//	@Produce		json
//	@Param			type	query		string	false	"Page type"	Enums(entry, note, attachment, unknown)
//	@Success		200		{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	typ, ok := pageTypeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid type"))
		return
	}
	files, err := h.svc.Files(r.Context(), typ)
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}

// StartScan handles POST /api/scans. Progress is streamed on /api/events.
//
//	@Summary		Start a background scan
//	@Tags			files
//	@Produce		json
//	@Param			type	query		string	false	"Page type"
//	@Success		202		{object}	ScanResponse
//	@Security		BearerAuth
//	@Router			/scans [post]
func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	typ, ok := pageTypeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid type"))
		return
	}
	id := h.svc.StartScan(r.Context(), typ)
	writeJSON(w, http.StatusAccepted, ScanResponse{ScanID: id})
}

// Recent handles GET /api/recent.
//
//	@Summary		List catalogued files, newest first
//	@Tags			files
//	@Produce		json
//	@Param			type	query		string	false	"Page type"
//	@Param			scope	query		string	false	"Scope"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	FileListResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	typ, ok := pageTypeParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid type"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	files, err := h.svc.Recent(r.Context(), catalog.Query{
		Type:  typ,
		Scope: r.URL.Query().Get("scope"),
		Limit: limit,
	})
	if err != nil {
		writeError(w, "recent", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}

// GetEntry handles GET /api/entries/{date}. It never creates the entry.
//
//	@Summary		Load the entry for a date
//	@Tags			entries
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Param			scope	query		string	false	"Scope"
//	@Success		200		{object}	DocumentResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{date} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(chi.URLParam(r, "date"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
		return
	}
	doc, err := h.svc.EntryForDate(r.Context(), date, r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, "get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(doc))
}

// OpenEntry handles POST /api/entries.
//
//	@Summary		Load or create the entry for a day offset
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InputRequest	true	"Offset and scope"
//	@Success		200		{object}	DocumentResponse
//	@Success		201		{object}	DocumentResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries [post]
func (h *Handler) OpenEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInput(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.OpenEntry(r.Context(), req.input())
	if err != nil {
		writeError(w, "open entry", err)
		return
	}
	writeJSON(w, createdStatus(doc.Created), documentResponse(doc))
}

// OpenNote handles POST /api/notes.
//
//	@Summary		Load or create a titled note in a day's notes folder
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InputRequest	true	"Offset, scope and title"
//	@Success		200		{object}	DocumentResponse
//	@Success		201		{object}	DocumentResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) OpenNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeInput(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.OpenNote(r.Context(), req.input())
	if err != nil {
		writeError(w, "open note", err)
		return
	}
	writeJSON(w, createdStatus(doc.Created), documentResponse(doc))
}

// References handles GET /api/references.
//
//	@Summary		Resolve the local files a document links to
//	@Tags			resources
//	@Produce		json
//	@Param			path	query		string	true	"Absolute document path"
//	@Success		200		{object}	RefListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/references [get]
func (h *Handler) References(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	refs, err := h.svc.ReferencedFiles(r.Context(), path)
	if err != nil {
		writeError(w, "references", err)
		return
	}
	writeJSON(w, http.StatusOK, RefListResponse{Files: refs})
}

// NotesFolder handles GET /api/notes-folder.
//
//	@Summary		List the files in a day's notes folder
//	@Tags			resources
//	@Produce		json
//	@Param			date	query		string	true	"Date (YYYY-MM-DD)"
//	@Param			scope	query		string	false	"Scope; '*' searches all scopes"
//	@Success		200		{object}	RefListResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes-folder [get]
func (h *Handler) NotesFolder(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r.URL.Query().Get("date"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
		return
	}
	scope := r.URL.Query().Get("scope")
	all := scope == "*"
	if all {
		scope = ""
	}
	refs, err := h.svc.NotesFolderFiles(r.Context(), date, scope, all)
	if err != nil {
		writeError(w, "notes folder", err)
		return
	}
	writeJSON(w, http.StatusOK, RefListResponse{Files: refs})
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
//
//	@Summary		Store an attachment in a day's notes folder
//	@Tags			resources
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Attachment"
//	@Param			date	formData	string	false	"Date (YYYY-MM-DD), default today"
//	@Param			scope	formData	string	false	"Scope"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	date := time.Now()
	if v := r.FormValue("date"); v != "" {
		d, ok := dateParam(v)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
			return
		}
		date = d
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	ref, err := h.svc.Attach(r.Context(), date, r.FormValue("scope"), header.Filename, data)
	if err != nil {
		writeError(w, "upload attachment", err)
		return
	}
	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{ResourceRef: ref, Size: int64(len(data))})
}

func decodeInput(w http.ResponseWriter, r *http.Request) (InputRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	return req, true
}

func createdStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

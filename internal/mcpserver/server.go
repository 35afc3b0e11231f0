// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes journal tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/service"
)

// Server wraps the MCP server with journal tools.
type Server struct {
	mcp *server.MCPServer
	svc *service.Service
}

// New creates a new MCP server with all journal tools registered.
func New(svc *service.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Daybook",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("load_entry",
		mcp.WithDescription("Load the journal entry for today plus a day offset, creating it with a dated header when missing."),
		mcp.WithNumber("offset", mcp.Description("Days relative to today: 0 today, -1 yesterday, 1 tomorrow")),
		mcp.WithString("scope", mcp.Description("Journal scope (empty for the default)")),
	), s.loadEntry)

	s.mcp.AddTool(mcp.NewTool("entry_for_date",
		mcp.WithDescription("Read the existing entry for a calendar date. Never creates it."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
		mcp.WithString("scope", mcp.Description("Journal scope (empty for the default)")),
	), s.entryForDate)

	s.mcp.AddTool(mcp.NewTool("open_note",
		mcp.WithDescription("Load or create a titled note inside a day's notes folder."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title; the file name is derived from it")),
		mcp.WithNumber("offset", mcp.Description("Days relative to today")),
		mcp.WithString("scope", mcp.Description("Journal scope (empty for the default)")),
	), s.openNote)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List every journal file, optionally filtered by page type."),
		mcp.WithString("type", mcp.Description("Page type filter"), mcp.Enum("entry", "note", "attachment", "unknown")),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("referenced_files",
		mcp.WithDescription("List the existing local files a document links to."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute document path")),
	), s.referencedFiles)

	s.mcp.AddTool(mcp.NewTool("notes_folder_files",
		mcp.WithDescription("List the files in the notes folder of a date."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
		mcp.WithString("scope", mcp.Description("Journal scope; '*' searches every scope")),
	), s.notesFolderFiles)

	s.mcp.AddTool(mcp.NewTool("attach_file",
		mcp.WithDescription("Store a base64 data URI as a file in a day's notes folder. "+
			"Returns a markdown snippet ready to paste into the entry."),
		mcp.WithString("data_uri", mcp.Required(), mcp.Description("data:<mime>;base64,<payload>")),
		mcp.WithString("filename", mcp.Description("Optional file name; generated when empty")),
		mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD (default today)")),
		mcp.WithString("scope", mcp.Description("Journal scope (empty for the default)")),
	), s.attachFile)

	s.mcp.AddResource(
		mcp.NewResource(layoutURI, "Journal Layout",
			mcp.WithResourceDescription("Scopes, path templates and headers used to place journal files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error) *mcp.CallToolResult {
	var nf *apperr.EntryNotFoundError
	if errors.As(err, &nf) {
		return mcp.NewToolResultError(fmt.Sprintf("no entry at %s", nf.Path))
	}
	return mcp.NewToolResultError(err.Error())
}

func input(req mcp.CallToolRequest) models.Input {
	return models.Input{
		Offset: req.GetInt("offset", 0),
		Scope:  req.GetString("scope", ""),
		Text:   req.GetString("title", ""),
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}
	return d, nil
}

func (s *Server) loadEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.svc.OpenEntry(ctx, input(req))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(doc), nil
}

func (s *Server) entryForDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := parseDate(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.EntryForDate(ctx, date, req.GetString("scope", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) openNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := req.RequireString("title"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.OpenNote(ctx, input(req))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(doc), nil
}

func (s *Server) listFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := models.ParsePageType(req.GetString("type", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	files, err := s.svc.Files(ctx, typ)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(files), nil
}

func (s *Server) referencedFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.ReferencedFiles(ctx, path)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(refs), nil
}

func (s *Server) notesFolderFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := parseDate(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scope := req.GetString("scope", "")
	all := scope == "*"
	if all {
		scope = ""
	}
	refs, err := s.svc.NotesFolderFiles(ctx, date, scope, all)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(refs), nil
}

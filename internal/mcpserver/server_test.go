package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/daybook/internal/layout"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/pathmatch"
	"github.com/starford/daybook/internal/service"
	"github.com/starford/daybook/internal/testutil"
)

// 1x1 transparent PNG.
const pngB64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := testutil.Journal(t)
	svc, err := service.Build(service.Setup{
		Ext:       "md",
		Scopes:    []layout.Scope{{Name: layout.DefaultScope, Base: root}},
		Templates: layout.DefaultTemplates(),
		Rules:     pathmatch.DefaultRules(),
		Clock:     func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local) },
		Logger:    testutil.Logger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(svc, "test"), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so dispatch to the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "load_entry":
		result, err = srv.loadEntry(ctx, req)
	case "entry_for_date":
		result, err = srv.entryForDate(ctx, req)
	case "open_note":
		result, err = srv.openNote(ctx, req)
	case "list_files":
		result, err = srv.listFiles(ctx, req)
	case "referenced_files":
		result, err = srv.referencedFiles(ctx, req)
	case "notes_folder_files":
		result, err = srv.notesFolderFiles(ctx, req)
	case "attach_file":
		result, err = srv.attachFile(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestLoadEntryThenEntryForDate(t *testing.T) {
	srv, root := testServer(t)

	r := callTool(t, srv, "entry_for_date", map[string]any{"date": "2026-10-15"})
	if !r.IsError || !strings.Contains(resultText(r), filepath.Join(root, "2026", "10", "15.md")) {
		t.Errorf("missing entry result = %q", resultText(r))
	}

	r = callTool(t, srv, "load_entry", map[string]any{"offset": -1})
	if r.IsError {
		t.Fatalf("load_entry: %s", resultText(r))
	}
	var doc struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Path != filepath.Join(root, "2026", "10", "15.md") {
		t.Errorf("path = %q", doc.Path)
	}

	r = callTool(t, srv, "entry_for_date", map[string]any{"date": "2026-10-15"})
	if r.IsError || !strings.HasPrefix(resultText(r), "# Thursday, October 15, 2026") {
		t.Errorf("entry = %q", resultText(r))
	}
}

func TestEntryForDate_BadDate(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "entry_for_date", map[string]any{"date": "tomorrow"})
	if !r.IsError {
		t.Error("expected error for bad date")
	}
	r = callTool(t, srv, "entry_for_date", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing date")
	}
}

func TestOpenNote(t *testing.T) {
	srv, root := testServer(t)
	r := callTool(t, srv, "open_note", map[string]any{"title": "Standup"})
	if r.IsError {
		t.Fatalf("open_note: %s", resultText(r))
	}
	if _, err := os.Stat(filepath.Join(root, "2026", "10", "16", "standup.md")); err != nil {
		t.Errorf("note not created: %v", err)
	}

	r = callTool(t, srv, "open_note", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing title")
	}
}

func TestListFiles(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "2026/10/16.md", "a")
	testutil.WriteFile(t, root, "2026/10/16/b.md", "b")

	r := callTool(t, srv, "list_files", map[string]any{"type": "note"})
	var files []models.FileEntry
	if err := json.Unmarshal([]byte(resultText(r)), &files); err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "b.md" {
		t.Errorf("files = %+v", files)
	}

	r = callTool(t, srv, "list_files", map[string]any{"type": "bogus"})
	if !r.IsError {
		t.Error("expected error for bogus type")
	}
}

func TestReferencedAndNotesFolderFiles(t *testing.T) {
	srv, root := testServer(t)
	testutil.WriteFile(t, root, "2026/10/16/pic.png", "png")
	entry := testutil.WriteFile(t, root, "2026/10/16.md", "see ![](16/pic.png)")

	r := callTool(t, srv, "referenced_files", map[string]any{"path": entry})
	var refs []models.ResourceRef
	if err := json.Unmarshal([]byte(resultText(r)), &refs); err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].Name != "pic.png" {
		t.Errorf("refs = %+v", refs)
	}

	r = callTool(t, srv, "notes_folder_files", map[string]any{"date": "2026-10-16", "scope": "*"})
	refs = nil
	if err := json.Unmarshal([]byte(resultText(r)), &refs); err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Errorf("notes folder = %+v", refs)
	}

	r = callTool(t, srv, "referenced_files", map[string]any{"path": filepath.Join(root, "nope.md")})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestAttachFile(t *testing.T) {
	srv, root := testServer(t)

	r := callTool(t, srv, "attach_file", map[string]any{
		"data_uri": "data:image/png;base64," + pngB64,
		"filename": "whiteboard photo.png",
		"date":     "2026-10-16",
	})
	if r.IsError {
		t.Fatalf("attach_file: %s", resultText(r))
	}
	var res attachResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Path != filepath.Join(root, "2026", "10", "16", "whiteboard_photo.png") {
		t.Errorf("path = %q", res.Path)
	}
	if res.Markdown != "![whiteboard_photo.png](16/whiteboard_photo.png)" {
		t.Errorf("markdown = %q", res.Markdown)
	}

	r = callTool(t, srv, "attach_file", map[string]any{
		"data_uri": "data:image/png;base64," + pngB64,
		"filename": "whiteboard photo.png",
		"date":     "2026-10-16",
	})
	if !r.IsError {
		t.Error("expected error for duplicate attachment")
	}
}

func TestAttachFile_Rejects(t *testing.T) {
	srv, _ := testServer(t)
	cases := map[string]map[string]any{
		"http url":       {"data_uri": "https://example.com/a.png"},
		"not base64":     {"data_uri": "data:image/png,abc"},
		"bad mime":       {"data_uri": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi"))},
		"magic mismatch": {"data_uri": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))},
		"bad extension":  {"data_uri": "data:image/png;base64," + pngB64, "filename": "x.exe"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "attach_file", args); !r.IsError {
				t.Errorf("expected error, got %q", resultText(r))
			}
		})
	}
}

func TestAttachFile_GeneratedName(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "attach_file", map[string]any{"data_uri": "data:image/png;base64," + pngB64})
	if r.IsError {
		t.Fatalf("attach_file: %s", resultText(r))
	}
	var res attachResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	if filepath.Ext(res.Path) != ".png" {
		t.Errorf("generated path = %q", res.Path)
	}
}

func TestLayoutResource(t *testing.T) {
	srv, root := testServer(t)
	contents, err := srv.readLayoutResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, "`default` (default): `"+root+"`") {
		t.Errorf("layout missing scope: %q", text)
	}
	if !strings.Contains(text, "${year}/${month}/${day}") {
		t.Errorf("layout missing templates: %q", text)
	}
}

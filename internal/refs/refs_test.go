package refs

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/document"
	"github.com/starford/daybook/internal/layout"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/pathmatch"
	"github.com/starford/daybook/internal/scanner"
	"github.com/starford/daybook/internal/testutil"
)

var day = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func testResolver(t *testing.T) (*Resolver, string, string) {
	t.Helper()
	root := testutil.Journal(t)
	work := testutil.Journal(t)
	l, err := layout.New("md", []layout.Scope{
		{Name: layout.DefaultScope, Base: root},
		{Name: "work", Base: work},
	}, layout.DefaultTemplates())
	require.NoError(t, err)
	r := New(l, scanner.New(testutil.Logger()), pathmatch.MustNew(pathmatch.DefaultRules()), testutil.Logger())
	return r, root, work
}

func names(refs []models.ResourceRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}

func TestReferencedFiles_DropsMissing(t *testing.T) {
	r, root, _ := testResolver(t)
	entry := testutil.WriteFile(t, root, "2026/10/16.md", "")
	meeting := testutil.WriteFile(t, root, "2026/10/16/meeting.md", "notes")

	doc := &document.Document{
		Path:    entry,
		Content: "# Friday\n\n- [meeting](16/meeting.md)\n- [gone](16/missing.md)\n",
	}
	refs, err := r.ReferencedFiles(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, meeting, refs[0].Path)
	assert.Equal(t, models.PageTypeNote, refs[0].Type)
	assert.Equal(t, layout.DefaultScope, refs[0].Scope)
}

func TestReferencedFiles_AllSyntaxes(t *testing.T) {
	r, root, work := testResolver(t)
	entry := testutil.WriteFile(t, root, "2026/10/16.md", "")
	testutil.WriteFile(t, root, "2026/10/16/photo one.png", "p")
	testutil.WriteFile(t, root, "2026/10/16/plan.md", "p")
	testutil.WriteFile(t, root, "2026/10/15.md", "y")
	abs := testutil.WriteFile(t, work, "shared.txt", "s")
	fileURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()

	doc := &document.Document{
		Path: entry,
		Content: "![photo](16/photo%20one.png)\n" +
			"[[16/plan]] and [[15]]\n" +
			"see ./16/plan.md#section\n" +
			"[web](https://example.com/a.md) [mail](mailto:x@y.z)\n" +
			"[abs](" + fileURL + ")\n" +
			"[dir](16)\n",
	}
	refs, err := r.ReferencedFiles(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"photo one.png", "shared.txt", "plan.md", "15.md"}, names(refs))
	assert.Equal(t, "work", refs[1].Scope)
	assert.Equal(t, models.PageTypeEntry, refs[3].Type)
}

func TestReferencedFiles_EmptyDocument(t *testing.T) {
	r, root, _ := testResolver(t)
	refs, err := r.ReferencedFiles(context.Background(), &document.Document{Path: filepath.Join(root, "x.md")})
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestFilesInNotesFolder(t *testing.T) {
	r, root, _ := testResolver(t)
	entry := testutil.WriteFile(t, root, "2026/10/16.md", "")
	testutil.WriteFile(t, root, "2026/10/16/b.md", "b")
	testutil.WriteFile(t, root, "2026/10/16/a.png", "a")
	testutil.WriteFile(t, root, "2026/10/16/nested/deep.md", "deep")

	refs, err := r.FilesInNotesFolder(context.Background(), &document.Document{Path: entry}, day, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.md"}, names(refs))
	assert.Equal(t, models.PageTypeAttachment, refs[0].Type)
	assert.Equal(t, models.PageTypeNote, refs[1].Type)
}

func TestFilesInNotesFolder_MissingFolderIsEmpty(t *testing.T) {
	r, _, _ := testResolver(t)
	refs, err := r.FilesInNotesFolder(context.Background(), nil, day, "work")
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestFilesInNotesFolder_UnknownScope(t *testing.T) {
	r, _, _ := testResolver(t)
	_, err := r.FilesInNotesFolder(context.Background(), nil, day, "nope")
	require.Error(t, err)
}

func TestFilesInNotesFolderAllScopes(t *testing.T) {
	r, root, work := testResolver(t)
	testutil.WriteFile(t, root, "2026/10/16/z.md", "z")
	testutil.WriteFile(t, root, "2026/10/16/a.md", "a")
	testutil.WriteFile(t, work, "2026/10/16/w.md", "w")
	testutil.WriteFile(t, work, "2026/10/17/other-day.md", "x")

	refs, err := r.FilesInNotesFolderAllScopes(context.Background(), nil, day)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "z.md", "w.md"}, names(refs))
	assert.Equal(t, "work", refs[2].Scope)
}

func TestFilesInNotesFolderAllScopes_DeduplicatesSharedBase(t *testing.T) {
	root := testutil.Journal(t)
	l, err := layout.New("md", []layout.Scope{
		{Name: "a", Base: root},
		{Name: "b", Base: root},
	}, layout.DefaultTemplates())
	require.NoError(t, err)
	r := New(l, scanner.New(testutil.Logger()), pathmatch.MustNew(pathmatch.DefaultRules()), testutil.Logger())
	testutil.WriteFile(t, root, "2026/10/16/x.md", "x")

	refs, err := r.FilesInNotesFolderAllScopes(context.Background(), nil, day)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "a", refs[0].Scope)
}

func TestLocalPath(t *testing.T) {
	dir := filepath.FromSlash("/j/2026/10")
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"16.md", "/j/2026/10/16.md", true},
		{"../09/30.md", "/j/2026/09/30.md", true},
		{"a%20b.md?x=1", "/j/2026/10/a b.md", true},
		{"file:///tmp/x.md", "/tmp/x.md", true},
		{"https://example.com/x.md", "", false},
		{"#anchor", "", false},
	}
	for _, c := range cases {
		got, ok := localPath(dir, c.raw)
		assert.Equal(t, c.ok, ok, c.raw)
		if c.ok {
			assert.Equal(t, filepath.FromSlash(c.want), got, c.raw)
		}
	}
}

package layout

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/apperr"
)

func testLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := New("md", []Scope{
		{Name: DefaultScope, Base: "/j"},
		{Name: "work", Base: "/w"},
	}, DefaultTemplates())
	require.NoError(t, err)
	return l
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 4, 5, 0, time.UTC)
}

func TestResolveDate_Offsets(t *testing.T) {
	now := date(2026, time.October, 16)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), ResolveDate(now, 0))
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), ResolveDate(now, -1))
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), ResolveDate(now, 1))
}

func TestResolveDate_Rollovers(t *testing.T) {
	cases := []struct {
		now    time.Time
		offset int
		want   time.Time
	}{
		{date(2026, time.March, 1), -1, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		{date(2024, time.March, 1), -1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{date(2026, time.January, 1), -1, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)},
		{date(2026, time.December, 31), 1, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{date(2026, time.October, 1), -1, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got := ResolveDate(c.now, c.offset)
		assert.Equal(t, c.want, got, "%s %+d", c.now.Format(time.DateOnly), c.offset)
		// Matches subtracting whole days directly.
		assert.Equal(t, Day(c.now).AddDate(0, 0, c.offset), got)
	}
}

func TestEntryPath(t *testing.T) {
	l := testLayout(t)
	d := date(2026, time.October, 16)

	p, err := l.EntryPath(d, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/j/2026/10/16.md"), p)

	p, err = l.EntryPath(d, "work")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/w/2026/10/16.md"), p)
}

func TestEntryPath_RelativeTemplateJoinsBase(t *testing.T) {
	tpl := DefaultTemplates()
	tpl.Entry = "${year}-${month}-${day}.${ext}"
	l, err := New("txt", []Scope{{Name: "a", Base: "/base"}}, tpl)
	require.NoError(t, err)

	p, err := l.EntryPath(date(2026, time.October, 16), "a")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/base/2026-10-16.txt"), p)
}

func TestEntryPath_UnknownScope(t *testing.T) {
	l := testLayout(t)
	_, err := l.EntryPath(date(2026, time.October, 16), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrPathResolution))
	assert.True(t, errors.Is(err, apperr.ErrUnknownScope))
}

func TestEntryPath_UnsetVariable(t *testing.T) {
	tpl := DefaultTemplates()
	tpl.Entry = "${base}/${journalRoot}/${day}.md"
	l, err := New("md", []Scope{{Name: "a", Base: "/base"}}, tpl)
	require.NoError(t, err)

	_, err = l.EntryPath(date(2026, time.October, 16), "")
	var perr *apperr.PathResolutionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "journalRoot", perr.Variable)
}

func TestEntryPath_EmptyTemplate(t *testing.T) {
	tpl := DefaultTemplates()
	tpl.Entry = ""
	l, err := New("md", []Scope{{Name: "a", Base: "/base"}}, tpl)
	require.NoError(t, err)

	_, err = l.EntryPath(date(2026, time.October, 16), "")
	assert.ErrorIs(t, err, apperr.ErrPathResolution)
}

func TestNotesAndNotePath(t *testing.T) {
	l := testLayout(t)
	d := date(2026, time.October, 16)

	dir, err := l.NotesPath(d, "work")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/w/2026/10/16"), dir)

	p, err := l.NotePath(d, "work", "Weekly Sync: Q4!")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/w/2026/10/16/weekly-sync-q4.md"), p)

	_, err = l.NotePath(d, "work", "  ")
	assert.ErrorIs(t, err, apperr.ErrPathResolution)
}

func TestHeaders(t *testing.T) {
	l := testLayout(t)
	d := date(2026, time.October, 16)

	h, err := l.EntryHeader(d, "")
	require.NoError(t, err)
	assert.Equal(t, "# Friday, October 16, 2026\n\n", h)

	h, err = l.NoteHeader(d, "", "Standup")
	require.NoError(t, err)
	assert.Equal(t, "# Standup\n\n", h)

	_, err = l.EntryHeader(d, "missing")
	assert.ErrorIs(t, err, apperr.ErrPathResolution)
}

func TestHeaders_UseRequestScope(t *testing.T) {
	tpl := DefaultTemplates()
	tpl.Header = "# ${scope} ${localDate}\n"
	tpl.NoteHeader = "# ${scope}: ${input}\n"
	l, err := New("md", []Scope{{Name: "personal", Base: "/p"}, {Name: "work", Base: "/w"}}, tpl)
	require.NoError(t, err)
	d := date(2026, time.October, 16)

	h, err := l.EntryHeader(d, "work")
	require.NoError(t, err)
	assert.Equal(t, "# work October 16, 2026\n", h)

	h, err = l.EntryHeader(d, "")
	require.NoError(t, err)
	assert.Equal(t, "# personal October 16, 2026\n", h)

	h, err = l.NoteHeader(d, "work", "Standup")
	require.NoError(t, err)
	assert.Equal(t, "# work: Standup\n", h)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/a/b/c.md"), ResolvePath("/a/b", "c.md"))
	assert.Equal(t, filepath.FromSlash("/a/c.md"), ResolvePath("/a/b", "../c.md"))
	assert.Equal(t, filepath.FromSlash("/x/y.md"), ResolvePath("/a/b", "/x/y.md"))
	assert.Equal(t, filepath.FromSlash("/a/b/c/d.md"), ResolvePath("/a/b/", "./c//d.md"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New("md", nil, DefaultTemplates())
	require.Error(t, err)

	_, err = New("md", []Scope{{Name: "a", Base: "/a"}, {Name: "a", Base: "/b"}}, DefaultTemplates())
	require.Error(t, err)

	_, err = New("md", []Scope{{Name: "", Base: "/a"}}, DefaultTemplates())
	require.Error(t, err)
}

func TestBaseDirectories(t *testing.T) {
	l := testLayout(t)
	dirs := l.BaseDirectories()
	require.Len(t, dirs, 2)
	assert.Equal(t, DefaultScope, dirs[0].Scope)
	assert.Equal(t, "work", dirs[1].Scope)
	assert.True(t, filepath.IsAbs(dirs[1].Path))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "hello-world", Slug("Hello, World!"))
	assert.Equal(t, "été-2026", Slug("  Été 2026 "))
	assert.Equal(t, "", Slug("!!!"))
}

func TestScopeOf(t *testing.T) {
	l, err := New("md", []Scope{
		{Name: DefaultScope, Base: "/j"},
		{Name: "work", Base: "/j/work"},
	}, DefaultTemplates())
	require.NoError(t, err)

	assert.Equal(t, DefaultScope, l.ScopeOf(filepath.FromSlash("/j/2026/10/16.md")))
	assert.Equal(t, "work", l.ScopeOf(filepath.FromSlash("/j/work/2026/10/16.md")))
	assert.Equal(t, DefaultScope, l.ScopeOf(filepath.FromSlash("/j/workshop.md")))
	assert.Equal(t, "", l.ScopeOf(filepath.FromSlash("/elsewhere/a.md")))
}

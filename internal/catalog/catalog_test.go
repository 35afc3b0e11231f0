package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/daybook/internal/access"
	"github.com/starford/daybook/internal/models"
	"github.com/starford/daybook/internal/pathmatch"
	"github.com/starford/daybook/internal/scanner"
	"github.com/starford/daybook/internal/testutil"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "daybook-test-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	n, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReplaceAndRecent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	entries := []models.FileEntry{
		{Path: "/j/a.md", Name: "a.md", Scope: "default", UpdateAt: 100, CreatedAt: 1, Type: models.PageTypeEntry},
		{Path: "/j/b.md", Name: "b.md", Scope: "default", UpdateAt: 300, CreatedAt: 2, Type: models.PageTypeNote},
		{Path: "/w/c.md", Name: "c.md", Scope: "work", UpdateAt: 200, CreatedAt: 3, Type: models.PageTypeEntry},
	}
	require.NoError(t, db.Replace(ctx, entries))

	all, err := db.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"/j/b.md", "/w/c.md", "/j/a.md"}, []string{all[0].Path, all[1].Path, all[2].Path})
	assert.Equal(t, entries[1], all[0])

	onlyEntries, err := db.Recent(ctx, Query{Type: models.PageTypeEntry})
	require.NoError(t, err)
	assert.Len(t, onlyEntries, 2)

	work, err := db.Recent(ctx, Query{Scope: "work", Limit: 1})
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "/w/c.md", work[0].Path)
}

func TestReplaceDropsStale(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.Replace(ctx, []models.FileEntry{{Path: "/old.md", Name: "old.md", Type: models.PageTypeUnknown}}))
	require.NoError(t, db.Replace(ctx, []models.FileEntry{{Path: "/new.md", Name: "new.md", Type: models.PageTypeUnknown}}))

	all, err := db.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "/new.md", all[0].Path)
}

func TestSync(t *testing.T) {
	db := testDB(t)
	root := testutil.Journal(t)
	testutil.WriteFile(t, root, "2026/10/16.md", "# today")
	testutil.WriteFile(t, root, "2026/10/16/n.md", "note")

	ix := access.New(scanner.New(testutil.Logger()), pathmatch.MustNew(pathmatch.DefaultRules()))
	n, err := Sync(context.Background(), db, ix, []models.BaseDirectory{{Path: root, Scope: "default"}}, testutil.Logger())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	notes, err := db.Recent(context.Background(), Query{Type: models.PageTypeNote})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "n.md", notes[0].Name)
}

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferences_MarkdownLinks(t *testing.T) {
	body := []byte("# Day\n\nSee [notes](16/meeting.md) and ![pic](16/photo.png \"title\").\n" +
		"Ref style [plan][s].\n\n[s]: ../projects/plan.md\n\n<https://example.com/x>\n")
	refs := References(body)
	assert.Equal(t, []string{"16/meeting.md", "16/photo.png", "../projects/plan.md", "https://example.com/x"}, refs)
}

func TestReferences_Wikilinks(t *testing.T) {
	refs := References([]byte("Links: [[meeting]], [[topics/go|Go notes]], [[plan.txt#todo]], [[ ]]"))
	assert.Equal(t, []string{"meeting.md", "topics/go.md", "plan.txt"}, refs)
}

func TestReferences_InlinePaths(t *testing.T) {
	refs := References([]byte("look at ./drafts/a.md, then ../b.txt; also ~/inbox/c.md.\nnot this/one.md"))
	assert.Equal(t, []string{"./drafts/a.md", "../b.txt", "~/inbox/c.md"}, refs)
}

func TestReferences_CodeIgnored(t *testing.T) {
	body := []byte("Real [a](a.md)\n\n```\n[b](b.md)\n```\n\nand `[c](c.md)`\n")
	assert.Equal(t, []string{"a.md"}, References(body))
}

func TestReferences_Deduplicated(t *testing.T) {
	refs := References([]byte("[a](./x.md) and [again](./x.md) and ./x.md"))
	assert.Equal(t, []string{"./x.md"}, refs)
}

func TestParse_WithFrontmatter(t *testing.T) {
	input := "---\ntitle: Friday\nlink: ./ignored.md\n---\n# Friday\n[n](n.md)\n"
	res, err := Parse([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, "Friday", res.Frontmatter["title"])
	assert.Equal(t, []string{"n.md"}, res.References)
}

func TestParse_NoFrontmatter(t *testing.T) {
	res, err := Parse([]byte("# Just a heading\n"))
	require.NoError(t, err)
	assert.Nil(t, res.Frontmatter)
	assert.Equal(t, "# Just a heading\n", res.Body)
	assert.Empty(t, res.References)
}

func TestParse_InvalidYAMLFallsBackToBody(t *testing.T) {
	input := "---\n: [invalid\n---\nBody [x](x.md)\n"
	res, err := Parse([]byte(input))
	require.NoError(t, err)
	assert.Nil(t, res.Frontmatter)
	assert.Equal(t, input, res.Body)
	assert.Equal(t, []string{"x.md"}, res.References)
}

package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const layoutURI = "daybook://layout"

// layoutDoc renders the journal layout for LLM consumers.
func (s *Server) layoutDoc() string {
	l := s.svc.Layout
	tpl := l.Templates()

	var b strings.Builder
	b.WriteString("# Journal Layout\n\n")
	b.WriteString("Entries are dated Markdown files. Each day may have a notes folder holding notes and attachments.\n\n")

	b.WriteString("## Scopes\n\n")
	for i, sc := range l.Scopes() {
		def := ""
		if i == 0 {
			def = " (default)"
		}
		fmt.Fprintf(&b, "- `%s`%s: `%s`\n", sc.Name, def, sc.Base)
	}

	b.WriteString("\n## Templates\n\n")
	fmt.Fprintf(&b, "- entry: `%s`\n", tpl.Entry)
	fmt.Fprintf(&b, "- notes folder: `%s`\n", tpl.Notes)
	fmt.Fprintf(&b, "- note file: `%s`\n", tpl.Note)
	fmt.Fprintf(&b, "- entry extension: `%s`\n", l.Ext())

	b.WriteString("\n## Linking\n\n")
	b.WriteString("Reference files from an entry with relative Markdown links (`![](16/photo.png)`), ")
	b.WriteString("`[[wikilinks]]` or `./` paths. Links resolve against the entry's directory; ")
	b.WriteString("links to files that do not exist are ignored.\n")
	return b.String()
}

func (s *Server) readLayoutResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      layoutURI,
			MIMEType: "text/markdown",
			Text:     s.layoutDoc(),
		},
	}, nil
}

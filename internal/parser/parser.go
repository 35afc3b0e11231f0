// Package parser extracts local file references from Markdown content.
package parser

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	// ./x, ../x and ~/x tokens standing on their own in prose.
	inlinePathRe = regexp.MustCompile("(?:^|[\\s(<\\[])((?:\\.{1,2}|~)/[^\\s()<>\\[\\]\"'`]+)")
)

var markdown = goldmark.New()

// Result holds the output of parsing an entry.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	References  []string
}

// Parse splits off frontmatter and collects reference candidates from the body.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		References:  References([]byte(body)),
	}, nil
}

// References returns the raw reference strings found in body, in order of
// first appearance per kind: Markdown links and images, then wikilinks, then
// bare path tokens. Duplicates are dropped. Candidates are not validated.
func References(body []byte) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, l := range markdownLinks(body) {
		add(l)
	}
	for _, l := range extractLinks(string(body)) {
		add(l)
	}
	for _, m := range inlinePathRe.FindAllSubmatch(body, -1) {
		add(strings.TrimRight(string(m[1]), ".,;:!?"))
	}
	return out
}

// markdownLinks walks the Markdown AST and returns link, image and autolink destinations.
func markdownLinks(body []byte) []string {
	doc := markdown.Parser().Parse(text.NewReader(body))
	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Link:
			out = append(out, string(v.Destination))
		case *ast.Image:
			out = append(out, string(v.Destination))
		case *ast.AutoLink:
			if v.AutoLinkType == ast.AutoLinkURL {
				out = append(out, string(v.URL(body)))
			}
		case *ast.CodeSpan, *ast.FencedCodeBlock, *ast.CodeBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Not frontmatter after all, e.g. a horizontal rule.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractLinks returns wikilink targets, dropping aliases and headings. A
// target without an extension gets ".md".
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if filepath.Ext(target) == "" {
			target += ".md"
		}
		out = append(out, target)
	}
	return out
}

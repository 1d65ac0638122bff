// Package parser extracts titles and wiki link targets from page Markdown.
package parser

import (
	"regexp"
	"strings"

	"github.com/starford/tinywiki/internal/pathkey"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Result holds the output of parsing a page.
type Result struct {
	Title string
	Links []pathkey.Key
}

// Parse extracts the title and outgoing link targets from raw Markdown.
func Parse(data []byte) *Result {
	body := string(data)
	return &Result{
		Title: deriveTitle(body),
		Links: extractLinks(body),
	}
}

// extractLinks returns deduplicated link targets in order of appearance.
// Labels that sanitize to the empty key are skipped.
func extractLinks(body string) []pathkey.Key {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[pathkey.Key]struct{}, len(matches))
	var out []pathkey.Key
	for _, m := range matches {
		target := pathkey.LinkTarget(strings.TrimSpace(m[1]))
		if !target.Valid() {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// deriveTitle returns the first H1 heading, or empty string.
func deriveTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

package catalog

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// StripHTML returns the text content of an HTML fragment with entities
// decoded.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read.
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// containsFold reports whether text contains query, ignoring case.
func containsFold(text, query string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(text), fold.String(query))
}

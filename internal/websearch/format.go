package websearch

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/ddgsearch/internal/search"
)

const heading = "# DuckDuckGo Search Results"

// FormatNoResults renders the answer for a query that matched nothing.
func FormatNoResults(query string) string {
	return fmt.Sprintf("%s\nNo results found for \"%s\".", heading, query)
}

// FormatResults renders items in the given order as one markdown document.
func FormatResults(query string, items []search.Result) string {
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		blocks = append(blocks, formatItem(it))
	}
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Search results for \"%s\" (%d found)\n", query, len(items))
	b.WriteString("---\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	return b.String()
}

func formatItem(it search.Result) string {
	return fmt.Sprintf("### %s\n%s\n\n🔗 [Read more](%s)", it.Title, it.Description, it.URL)
}

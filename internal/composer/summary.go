package composer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanSummary strips HTML markup from a feed summary and collapses runs of
// whitespace into single spaces. Feed descriptions routinely arrive as HTML
// fragments; posts and prompts want plain text.
func CleanSummary(raw string) string {
	if raw == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(raw)
	}

	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// joinParts joins non-empty parts with blank lines between them.
func joinParts(parts []string) string {
	kept := make([]string, 0, len(parts))

	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, "\n\n")
}

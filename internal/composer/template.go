package composer

import (
	"context"

	"github.com/Happyfeet01/reblogging/internal/models"
)

// Template composes a deterministic post without calling any external API:
// title, link, cleaned summary, publication date footer.
type Template struct{}

// Compose implements Composer.
func (Template) Compose(_ context.Context, article models.Article) (string, error) {
	title := article.Title
	if title == "" {
		title = "Untitled"
	}

	parts := []string{
		title,
		article.URL,
		CleanSummary(article.Summary),
		publishedFooter(article),
	}

	return joinParts(parts), nil
}

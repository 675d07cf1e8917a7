// Package composer turns selected articles into post text.
//
// Three backends exist: a deterministic template, OpenAI, and Anthropic. The
// LLM backends fall back to the template (with a warning) when the API call
// fails, so a flaky LLM never aborts a run on its own.
package composer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Happyfeet01/reblogging/internal/config"
	"github.com/Happyfeet01/reblogging/internal/logger"
	"github.com/Happyfeet01/reblogging/internal/models"
)

// ErrMissingAPIKey indicates an LLM provider selected without a key.
var ErrMissingAPIKey = errors.New("missing API key for composer provider")

// Composer produces the post body for an article. Implementations may call
// an external API and may fail; a returned error aborts the run.
type Composer interface {
	Compose(ctx context.Context, article models.Article) (string, error)
}

// New returns the composer for the configured provider.
func New(cfg config.ComposerConfig, log *logger.Logger) (Composer, error) {
	switch cfg.Provider {
	case config.ProviderTemplate:
		return Template{}, nil
	case config.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("%w: openai", ErrMissingAPIKey)
		}

		return NewOpenAI(cfg.OpenAIKey, cfg.Model, log), nil
	case config.ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("%w: anthropic", ErrMissingAPIKey)
		}

		return NewAnthropic(cfg.AnthropicKey, cfg.Model, log), nil
	default:
		return nil, fmt.Errorf("unknown composer provider %q", cfg.Provider)
	}
}

// publishedFooter renders the original publication date note appended to
// every post. Selected articles always carry a publish date.
func publishedFooter(article models.Article) string {
	return fmt.Sprintf("(Originally published on %s)", article.PublishedAt.UTC().Format("2006-01-02"))
}

// decorate appends the read-more link and publication date to LLM output.
func decorate(text string, article models.Article) string {
	parts := []string{text}

	if article.URL != "" {
		parts = append(parts, "Read more: "+article.URL)
	}

	parts = append(parts, publishedFooter(article))

	return joinParts(parts)
}

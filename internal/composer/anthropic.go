package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Happyfeet01/reblogging/internal/logger"
	"github.com/Happyfeet01/reblogging/internal/models"
)

// Anthropic composes posts through the Anthropic messages API, falling back
// to the template composer when the API call fails.
type Anthropic struct {
	client   *anthropic.Client
	model    anthropic.Model
	fallback Template
	logger   *logger.Logger
}

// NewAnthropic creates an Anthropic-backed composer. An empty model selects
// the default.
func NewAnthropic(apiKey, model string, log *logger.Logger) *Anthropic {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	m := anthropic.ModelClaude3_5HaikuLatest
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Anthropic{
		client: &client,
		model:  m,
		logger: log,
	}
}

// Compose implements Composer.
func (c *Anthropic) Compose(ctx context.Context, article models.Article) (string, error) {
	text, err := c.generate(ctx, article)
	if err != nil {
		c.logger.Warn("LLM composition failed, falling back to template", "error", err)

		return c.fallback.Compose(ctx, article)
	}

	return decorate(text, article), nil
}

func (c *Anthropic) generate(ctx context.Context, article models.Article) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(articlePrompt(article))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", errors.New("no response from anthropic")
	}

	text := strings.TrimSpace(resp.Content[0].Text)
	if text == "" {
		return "", errors.New("empty response from anthropic")
	}

	return text, nil
}

package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Happyfeet01/reblogging/internal/logger"
	"github.com/Happyfeet01/reblogging/internal/models"
)

const defaultOpenAIModel = "gpt-5-mini"

const systemPrompt = `You write short, factual notes for a Sharkey/Misskey instance. Summarize the linked blog article in a friendly tone, mention that it was originally published some time ago, and encourage readers to take a look. Respond with the note text only, no markdown fences and no preamble.`

// OpenAI composes posts through the OpenAI chat completions API, falling
// back to the template composer when the API call fails.
type OpenAI struct {
	client   *openai.Client
	model    openai.ChatModel
	fallback Template
	logger   *logger.Logger
}

// NewOpenAI creates an OpenAI-backed composer. An empty model selects the
// default.
func NewOpenAI(apiKey, model string, log *logger.Logger) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAI{
		client: &client,
		model:  openai.ChatModel(model),
		logger: log,
	}
}

// Compose implements Composer.
func (c *OpenAI) Compose(ctx context.Context, article models.Article) (string, error) {
	text, err := c.generate(ctx, article)
	if err != nil {
		c.logger.Warn("LLM composition failed, falling back to template", "error", err)

		return c.fallback.Compose(ctx, article)
	}

	return decorate(text, article), nil
}

func (c *OpenAI) generate(ctx context.Context, article models.Article) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(articlePrompt(article)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from openai")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty response from openai")
	}

	return text, nil
}

// articlePrompt renders the user message shared by both LLM backends.
func articlePrompt(article models.Article) string {
	return fmt.Sprintf(
		"Title: %s\nLink: %s\nPublished on: %s\nSummary: %s",
		article.Title,
		article.URL,
		article.PublishedAt.UTC().Format("2006-01-02"),
		CleanSummary(article.Summary),
	)
}

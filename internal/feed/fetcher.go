// Package feed fetches the source RSS/Atom feed and turns it into articles.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/Happyfeet01/reblogging/internal/config"
	"github.com/Happyfeet01/reblogging/internal/models"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

const (
	userAgent = "reblogging-worker/1.0 (+https://github.com/Happyfeet01/reblogging)"

	// Feeds are small; anything past this is a misbehaving server.
	maxFeedBytes = 8 * 1024 * 1024
)

// Fetcher downloads the feed over HTTP with bounded retries and parses it.
type Fetcher struct {
	client      *http.Client
	parser      *gofeed.Parser
	retryPolicy *config.RetryPolicy
}

// NewFetcher creates a fetcher using the given retry policy.
func NewFetcher(retryPolicy *config.RetryPolicy) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		parser:      gofeed.NewParser(),
		retryPolicy: retryPolicy,
	}
}

// Fetch downloads and parses the feed at feedURL. Items fall back to their
// updated date when no published date is present; items with neither carry a
// nil PublishedAt and are left for the selector to skip.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]models.Article, error) {
	body, err := f.download(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	articles := make([]models.Article, 0, len(parsed.Items))

	for _, item := range parsed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		articles = append(articles, models.Article{
			Title:       item.Title,
			URL:         item.Link,
			Summary:     summary,
			PublishedAt: published,
		})
	}

	return articles, nil
}

func (f *Fetcher) download(ctx context.Context, feedURL string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		body, retryable, err := f.downloadOnce(ctx, feedURL)
		if err == nil {
			return body, nil
		}

		lastErr = fmt.Errorf("feed request failed (attempt %d/%d): %w", attempt, f.retryPolicy.MaxAttempts, err)

		if !retryable {
			return "", lastErr
		}

		if attempt < f.retryPolicy.MaxAttempts {
			delay := f.retryPolicy.GetRetryDelay(attempt)
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
		}
	}

	return "", lastErr
}

func (f *Fetcher) downloadOnce(ctx context.Context, feedURL string) (body string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", true, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", true, fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), false, nil
}

// isRetryableStatus determines if a fetch should be retried based on status.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}

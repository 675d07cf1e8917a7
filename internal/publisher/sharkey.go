// Package publisher posts notes to a Sharkey/Misskey instance.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Happyfeet01/reblogging/internal/logger"
)

// Publisher errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrMissingCredentials   = errors.New("instance URL and token are required to publish")
)

// Visibility levels accepted by the notes/create endpoint.
const (
	VisibilityPublic    = "public"
	VisibilityHome      = "home"
	VisibilityFollowers = "followers"
)

// Sharkey publishes notes through the Misskey-compatible notes/create API.
// Each publish is a single attempt; failed publishes are not retried.
type Sharkey struct {
	httpClient  *http.Client
	instanceURL string
	token       string
	logger      *logger.Logger
}

// NewSharkey creates a publisher for the given instance.
func NewSharkey(instanceURL, token string, log *logger.Logger) *Sharkey {
	return &Sharkey{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		instanceURL: strings.TrimRight(instanceURL, "/"),
		token:       token,
		logger:      log,
	}
}

// noteRequest is the notes/create payload. Misskey-family APIs carry the
// token in the body as "i".
type noteRequest struct {
	Token      string `json:"i"`
	Text       string `json:"text"`
	Visibility string `json:"visibility"`
}

// Publish creates one note with the given text and visibility.
func (s *Sharkey) Publish(ctx context.Context, text, visibility string) error {
	if s.instanceURL == "" || s.token == "" {
		return ErrMissingCredentials
	}

	body, err := json.Marshal(noteRequest{
		Token:      s.token,
		Text:       text,
		Visibility: visibility,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal note request: %w", err)
	}

	endpoint := s.instanceURL + "/api/notes/create"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatusCode, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	s.logger.Debug("note created", "status", resp.StatusCode, "visibility", visibility)

	return nil
}

// Package runner orchestrates a single reblog run.
//
// A run is single-threaded and run-to-completion. The ledger file is the
// only shared mutable resource and exclusive access is assumed, not
// enforced: overlapping runs against the same ledger are a misuse the
// design does not protect against.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Happyfeet01/reblogging/internal/composer"
	"github.com/Happyfeet01/reblogging/internal/config"
	"github.com/Happyfeet01/reblogging/internal/ledger"
	"github.com/Happyfeet01/reblogging/internal/logger"
	"github.com/Happyfeet01/reblogging/internal/models"
	"github.com/Happyfeet01/reblogging/internal/report"
	"github.com/Happyfeet01/reblogging/internal/selector"
)

// FeedSource supplies the candidate articles.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) ([]models.Article, error)
}

// Publisher performs one publish attempt per call.
type Publisher interface {
	Publish(ctx context.Context, text, visibility string) error
}

// Clock supplies the current time; injected for deterministic tests.
type Clock func() time.Time

// Runner wires the pipeline together for one run.
type Runner struct {
	cfg       *config.Config
	logger    *logger.Logger
	feed      FeedSource
	composer  composer.Composer
	publisher Publisher
	now       Clock
	out       io.Writer
}

// New creates a runner using the real clock and stdout for dry-run output.
func New(cfg *config.Config, log *logger.Logger, feed FeedSource, comp composer.Composer, pub Publisher) *Runner {
	return NewWithClock(cfg, log, feed, comp, pub, time.Now, os.Stdout)
}

// NewWithClock creates a runner with an injected clock and output writer
// (useful for testing).
func NewWithClock(cfg *config.Config, log *logger.Logger, feed FeedSource, comp composer.Composer, pub Publisher, now Clock, out io.Writer) *Runner {
	return &Runner{
		cfg:       cfg,
		logger:    log,
		feed:      feed,
		composer:  comp,
		publisher: pub,
		now:       now,
		out:       out,
	}
}

// Run executes one selection run.
//
// The ledger is loaded before any network activity so that a corrupt ledger
// aborts the run with nothing published. In live mode the ledger is saved
// after each successful publish, not batched at the end: a mid-run failure
// leaves the file consistent with exactly the articles actually published.
func (r *Runner) Run(ctx context.Context) error {
	led, err := ledger.Load(r.cfg.Ledger.Path)
	if err != nil {
		return err
	}

	r.logger.Info("loaded publication ledger", "path", r.cfg.Ledger.Path, "entries", led.Len())

	articles, err := r.feed.Fetch(ctx, r.cfg.Feed.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	r.logger.Info("fetched feed", "url", r.cfg.Feed.URL, "items", len(articles))

	picks := selector.Select(articles, led, r.cfg.Selection.MinAge(), r.cfg.Selection.MaxPosts, r.now())
	if len(picks) == 0 {
		r.logger.Info("no eligible articles found, nothing to do")

		return nil
	}

	r.logger.Info("selected articles", "count", len(picks))

	if r.cfg.DryRun {
		fmt.Fprint(r.out, report.SelectionTable(picks))

		for _, pick := range picks {
			text, err := r.composer.Compose(ctx, pick.Article)
			if err != nil {
				return fmt.Errorf("failed to compose post for %s: %w", pick.NormalizedURL, err)
			}

			fmt.Fprintf(r.out, "\nwould post:\n---\n%s\n---\n", text)
		}

		return nil
	}

	for _, pick := range picks {
		text, err := r.composer.Compose(ctx, pick.Article)
		if err != nil {
			return fmt.Errorf("failed to compose post for %s: %w", pick.NormalizedURL, err)
		}

		if err := r.publisher.Publish(ctx, text, r.cfg.Publish.Visibility); err != nil {
			return fmt.Errorf("failed to publish %s: %w", pick.NormalizedURL, err)
		}

		led.Append(ledger.Entry{
			URL:      pick.NormalizedURL,
			PostedAt: ledger.Timestamp{Time: r.now().UTC()},
		})

		if err := led.Save(r.cfg.Ledger.Path); err != nil {
			return fmt.Errorf("published %s but failed to save ledger: %w", pick.NormalizedURL, err)
		}

		r.logger.Info("published article", "url", pick.NormalizedURL)
	}

	r.logger.Info("run complete", "published", len(picks))

	return nil
}

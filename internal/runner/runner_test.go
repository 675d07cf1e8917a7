package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Happyfeet01/reblogging/internal/composer"
	"github.com/Happyfeet01/reblogging/internal/config"
	"github.com/Happyfeet01/reblogging/internal/ledger"
	"github.com/Happyfeet01/reblogging/internal/logger"
	"github.com/Happyfeet01/reblogging/internal/models"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

type fakeFeed struct {
	articles []models.Article
	err      error
	calls    int
}

func (f *fakeFeed) Fetch(_ context.Context, _ string) ([]models.Article, error) {
	f.calls++

	return f.articles, f.err
}

type publishCall struct {
	text       string
	visibility string
}

type fakePublisher struct {
	calls  []publishCall
	failAt int // 1-based index of the call that fails; 0 = never
}

func (p *fakePublisher) Publish(_ context.Context, text, visibility string) error {
	p.calls = append(p.calls, publishCall{text: text, visibility: visibility})

	if p.failAt > 0 && len(p.calls) == p.failAt {
		return errors.New("instance rejected the note")
	}

	return nil
}

type failingComposer struct{}

func (failingComposer) Compose(_ context.Context, _ models.Article) (string, error) {
	return "", errors.New("composer exploded")
}

func article(url string, ageDays int) models.Article {
	published := now.Add(-time.Duration(ageDays) * 24 * time.Hour)

	return models.Article{
		Title:       url,
		URL:         url,
		PublishedAt: &published,
	}
}

func testConfig(t *testing.T, dryRun bool) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Feed.URL = "https://x.test/feed"
	cfg.Ledger.Path = filepath.Join(t.TempDir(), "posted_urls.json")
	cfg.DryRun = dryRun

	return cfg
}

func newRunner(cfg *config.Config, feed FeedSource, pub Publisher, out *bytes.Buffer) *Runner {
	if out == nil {
		out = &bytes.Buffer{}
	}

	return NewWithClock(cfg, logger.New("error"), feed, composer.Template{}, pub, func() time.Time { return now }, out)
}

func TestRun_PublishesOldestFirstAndRecordsLedger(t *testing.T) {
	cfg := testConfig(t, false)

	feed := &fakeFeed{articles: []models.Article{
		article("https://x.test/newer", 190),
		article("https://x.test/older", 200),
	}}
	pub := &fakePublisher{}

	if err := newRunner(cfg, feed, pub, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	if len(pub.calls) != 2 {
		t.Fatalf("publisher saw %d calls, want 2", len(pub.calls))
	}

	if !strings.Contains(pub.calls[0].text, "https://x.test/older") {
		t.Errorf("first publish %q is not the oldest article", pub.calls[0].text)
	}

	if pub.calls[0].visibility != "public" {
		t.Errorf("visibility = %q, want public", pub.calls[0].visibility)
	}

	led, err := ledger.Load(cfg.Ledger.Path)
	if err != nil {
		t.Fatalf("failed to load ledger after run: %v", err)
	}

	for _, url := range []string{"https://x.test/older", "https://x.test/newer"} {
		if !led.Contains(url) {
			t.Errorf("ledger is missing %q after a successful run", url)
		}
	}
}

func TestRun_SecondRunPublishesNothing(t *testing.T) {
	cfg := testConfig(t, false)

	feed := &fakeFeed{articles: []models.Article{article("https://x.test/a", 200)}}
	pub := &fakePublisher{}

	r := newRunner(cfg, feed, pub, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("first Run returned unexpected error: %v", err)
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("second Run returned unexpected error: %v", err)
	}

	if len(pub.calls) != 1 {
		t.Errorf("publisher saw %d calls across two runs, want 1", len(pub.calls))
	}
}

func TestRun_MidRunPublishFailure(t *testing.T) {
	cfg := testConfig(t, false)

	feed := &fakeFeed{articles: []models.Article{
		article("https://x.test/first", 200),
		article("https://x.test/second", 190),
		article("https://x.test/third", 185),
	}}
	pub := &fakePublisher{failAt: 2}

	err := newRunner(cfg, feed, pub, nil).Run(context.Background())
	if err == nil {
		t.Fatal("Run succeeded despite a publish failure")
	}

	// The failure aborts the run: the third article is never attempted.
	if len(pub.calls) != 2 {
		t.Errorf("publisher saw %d calls, want 2", len(pub.calls))
	}

	// The ledger holds exactly the articles actually published.
	led, lerr := ledger.Load(cfg.Ledger.Path)
	if lerr != nil {
		t.Fatalf("failed to load ledger after failed run: %v", lerr)
	}

	if !led.Contains("https://x.test/first") {
		t.Error("ledger lost the successfully published article")
	}

	if led.Contains("https://x.test/second") || led.Contains("https://x.test/third") {
		t.Error("ledger contains articles that were never published")
	}
}

func TestRun_ComposeFailureIsFatal(t *testing.T) {
	cfg := testConfig(t, false)

	feed := &fakeFeed{articles: []models.Article{article("https://x.test/a", 200)}}
	pub := &fakePublisher{}

	r := NewWithClock(cfg, logger.New("error"), feed, failingComposer{}, pub, func() time.Time { return now }, &bytes.Buffer{})

	if err := r.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite a compose failure")
	}

	if len(pub.calls) != 0 {
		t.Errorf("publisher saw %d calls after compose failure, want 0", len(pub.calls))
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	cfg := testConfig(t, true)

	feed := &fakeFeed{articles: []models.Article{article("https://x.test/a", 200)}}
	pub := &fakePublisher{}
	out := &bytes.Buffer{}

	if err := newRunner(cfg, feed, pub, out).Run(context.Background()); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	if len(pub.calls) != 0 {
		t.Errorf("dry run called the publisher %d times", len(pub.calls))
	}

	if _, err := os.Stat(cfg.Ledger.Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("dry run created or modified the ledger file: %v", err)
	}

	if !strings.Contains(out.String(), "https://x.test/a") {
		t.Errorf("dry-run output %q does not list the selected article", out.String())
	}
}

func TestRun_NoCandidatesIsNotAnError(t *testing.T) {
	cfg := testConfig(t, false)

	feed := &fakeFeed{articles: []models.Article{article("https://x.test/fresh", 10)}}
	pub := &fakePublisher{}

	if err := newRunner(cfg, feed, pub, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	if len(pub.calls) != 0 {
		t.Errorf("publisher saw %d calls, want 0", len(pub.calls))
	}

	if _, err := os.Stat(cfg.Ledger.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("no-op run wrote a ledger file")
	}
}

func TestRun_CorruptLedgerAbortsBeforeFetch(t *testing.T) {
	cfg := testConfig(t, false)

	if err := os.WriteFile(cfg.Ledger.Path, []byte("{{{"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt ledger: %v", err)
	}

	feed := &fakeFeed{articles: []models.Article{article("https://x.test/a", 200)}}
	pub := &fakePublisher{}

	err := newRunner(cfg, feed, pub, nil).Run(context.Background())
	if !errors.Is(err, ledger.ErrCorrupt) {
		t.Fatalf("Run error = %v, want ErrCorrupt", err)
	}

	if feed.calls != 0 {
		t.Errorf("feed was fetched %d times despite a corrupt ledger", feed.calls)
	}
}

func TestRun_FeedFailure(t *testing.T) {
	cfg := testConfig(t, false)

	feed := &fakeFeed{err: fmt.Errorf("connection refused")}
	pub := &fakePublisher{}

	if err := newRunner(cfg, feed, pub, nil).Run(context.Background()); err == nil {
		t.Fatal("Run succeeded despite a feed failure")
	}

	if len(pub.calls) != 0 {
		t.Errorf("publisher saw %d calls after feed failure", len(pub.calls))
	}
}

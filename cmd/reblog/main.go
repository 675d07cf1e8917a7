// Package main provides the reblog worker that republishes old feed articles
// as notes on a Sharkey/Misskey instance.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Happyfeet01/reblogging/internal/composer"
	"github.com/Happyfeet01/reblogging/internal/config"
	"github.com/Happyfeet01/reblogging/internal/feed"
	"github.com/Happyfeet01/reblogging/internal/logger"
	"github.com/Happyfeet01/reblogging/internal/publisher"
	"github.com/Happyfeet01/reblogging/internal/runner"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	feedURL := flag.String("feed-url", "", "RSS feed URL")
	daysOld := flag.Int("days-old", -1, "Minimum article age in days")
	maxPosts := flag.Int("max-posts", -1, "Maximum number of articles to publish (0 = all)")
	postedLog := flag.String("posted-log", "", "Path to the posted-URLs ledger file")
	dryRun := flag.Bool("dry-run", false, "List the selected articles without publishing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Flags override file and environment values.
	if *feedURL != "" {
		cfg.Feed.URL = *feedURL
	}

	if *daysOld >= 0 {
		cfg.Selection.MinAgeDays = *daysOld
	}

	if *maxPosts >= 0 {
		cfg.Selection.MaxPosts = *maxPosts
	}

	if *postedLog != "" {
		cfg.Ledger.Path = *postedLog
	}

	cfg.DryRun = *dryRun

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	log.Info("🚀 Starting reblog run",
		"feed", cfg.Feed.URL,
		"min_age_days", cfg.Selection.MinAgeDays,
		"max_posts", cfg.Selection.MaxPosts,
		"composer", cfg.Composer.Provider,
		"dry_run", cfg.DryRun,
	)

	comp, err := composer.New(cfg.Composer, log)
	if err != nil {
		log.Error("failed to set up composer", "error", err)
		os.Exit(1)
	}

	fetcher := feed.NewFetcher(&cfg.Feed.Retry)
	pub := publisher.NewSharkey(cfg.Publish.InstanceURL, cfg.Publish.Token, log)

	startTime := time.Now()

	r := runner.New(cfg, log, fetcher, comp, pub)
	if err := r.Run(context.Background()); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}

	log.Info("✨ Done", "duration", time.Since(startTime).Round(time.Millisecond).String())
}

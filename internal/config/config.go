// Package config provides configuration management for the reblog worker.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file, and environment variables (a .env file is honored). Command-line
// flags in cmd/reblog override all three.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultMinAgeDays = 180
	DefaultMaxPosts   = 0
	DefaultLedgerPath = "./posted_urls.json"
	DefaultVisibility = "public"
	DefaultLogLevel   = "info"
)

// Composer providers.
const (
	ProviderTemplate  = "template"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Configuration validation errors.
var (
	ErrMissingFeedURL      = errors.New("feed.url is required")
	ErrInvalidMinAge       = errors.New("selection.min_age_days must be non-negative")
	ErrInvalidMaxPosts     = errors.New("selection.max_posts must be non-negative")
	ErrMissingLedgerPath   = errors.New("ledger.path is required")
	ErrInvalidVisibility   = errors.New("publish.visibility must be one of: public, home, followers")
	ErrMissingInstanceURL  = errors.New("instance URL is required to publish (set SHARKEY_INSTANCE_URL or publish.instance_url)")
	ErrMissingToken        = errors.New("API token is required to publish (set SHARKEY_TOKEN)")
	ErrInvalidProvider     = errors.New("composer.provider must be one of: template, openai, anthropic")
	ErrInvalidMaxAttempts  = errors.New("feed.retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay = errors.New("feed.retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoff      = errors.New("feed.retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout      = errors.New("feed.retry.timeout_sec must be at least 1")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete worker configuration.
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Selection SelectionConfig `yaml:"selection"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Publish   PublishConfig   `yaml:"publish"`
	Composer  ComposerConfig  `yaml:"composer"`
	Logging   LoggingConfig   `yaml:"logging"`

	// DryRun is a runtime switch, never persisted in the config file.
	DryRun bool `yaml:"-"`
}

// FeedConfig identifies the source feed and how to fetch it.
type FeedConfig struct {
	URL   string      `yaml:"url"`
	Retry RetryPolicy `yaml:"retry"`
}

// RetryPolicy defines retry behavior for the feed fetch. The publish call is
// deliberately single-attempt and does not use this policy.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// GetRetryDelay calculates the exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 2; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// SelectionConfig bounds which articles are eligible for republishing.
type SelectionConfig struct {
	MinAgeDays int `yaml:"min_age_days"`
	MaxPosts   int `yaml:"max_posts"`
}

// MinAge returns the minimum article age as a duration.
func (s SelectionConfig) MinAge() time.Duration {
	return time.Duration(s.MinAgeDays) * 24 * time.Hour
}

// LedgerConfig locates the publication ledger file.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// PublishConfig identifies the Sharkey/Misskey instance to post to.
// The token only ever comes from the environment.
type PublishConfig struct {
	InstanceURL string `yaml:"instance_url"`
	Visibility  string `yaml:"visibility"`
	Token       string `yaml:"-"`
}

// ComposerConfig selects and parameterizes the post text composer.
// API keys only ever come from the environment.
type ComposerConfig struct {
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	OpenAIKey    string `yaml:"-"`
	AnthropicKey string `yaml:"-"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with all defaults applied and no feed URL.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        20,
			},
		},
		Selection: SelectionConfig{
			MinAgeDays: DefaultMinAgeDays,
			MaxPosts:   DefaultMaxPosts,
		},
		Ledger: LedgerConfig{
			Path: DefaultLedgerPath,
		},
		Publish: PublishConfig{
			Visibility: DefaultVisibility,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path (empty path skips the file layer), and environment variables.
// A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; real deployments often use plain env vars.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.resolveProvider()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FEED_URL"); v != "" {
		c.Feed.URL = v
	}

	if v := os.Getenv("DAYS_OLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DAYS_OLD %q: %w", v, err)
		}

		c.Selection.MinAgeDays = n
	}

	if v := os.Getenv("MAX_POSTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_POSTS %q: %w", v, err)
		}

		c.Selection.MaxPosts = n
	}

	if v := os.Getenv("POSTED_LOG_PATH"); v != "" {
		c.Ledger.Path = v
	}

	if v := os.Getenv("SHARKEY_INSTANCE_URL"); v != "" {
		c.Publish.InstanceURL = v
	}

	if v := os.Getenv("SHARKEY_VISIBILITY"); v != "" {
		c.Publish.Visibility = v
	}

	c.Publish.Token = os.Getenv("SHARKEY_TOKEN")
	c.Composer.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.Composer.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")

	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Composer.Model = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// resolveProvider picks a composer backend when none is configured: the
// first LLM provider with an API key present, otherwise the plain template.
func (c *Config) resolveProvider() {
	if c.Composer.Provider != "" {
		return
	}

	switch {
	case c.Composer.OpenAIKey != "":
		c.Composer.Provider = ProviderOpenAI
	case c.Composer.AnthropicKey != "":
		c.Composer.Provider = ProviderAnthropic
	default:
		c.Composer.Provider = ProviderTemplate
	}
}

// Validate validates the configuration. Publish credentials are only
// required in live mode; a dry run never contacts the instance.
func (c *Config) Validate() error {
	if c.Feed.URL == "" {
		return ErrMissingFeedURL
	}

	if c.Selection.MinAgeDays < 0 {
		return ErrInvalidMinAge
	}

	if c.Selection.MaxPosts < 0 {
		return ErrInvalidMaxPosts
	}

	if c.Ledger.Path == "" {
		return ErrMissingLedgerPath
	}

	switch c.Publish.Visibility {
	case "public", "home", "followers":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidVisibility, c.Publish.Visibility)
	}

	if !c.DryRun {
		if c.Publish.InstanceURL == "" {
			return ErrMissingInstanceURL
		}

		if c.Publish.Token == "" {
			return ErrMissingToken
		}
	}

	switch c.Composer.Provider {
	case ProviderTemplate, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidProvider, c.Composer.Provider)
	}

	if c.Feed.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Feed.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Feed.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoff
	}

	if c.Feed.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// String returns a one-line summary safe for logging (no secrets).
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Feed: %s, MinAgeDays: %d, MaxPosts: %d, Ledger: %s, DryRun: %t}",
		c.Feed.URL,
		c.Selection.MinAgeDays,
		c.Selection.MaxPosts,
		c.Ledger.Path,
		c.DryRun,
	)
}

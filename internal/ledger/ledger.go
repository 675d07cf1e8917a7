// Package ledger persists the record of already-published article URLs.
//
// The on-disk format is a single JSON array of {"url", "posted_at"} objects.
// That shape is a durable contract: existing ledger files written by earlier
// versions of the tool must keep loading, and anything this package writes
// must keep loading in them. Entries are append-only and never expire; a URL
// that appears in the ledger is never republished, regardless of elapsed time.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrCorrupt indicates a ledger file that exists but cannot be parsed.
// Corruption is never downgraded to an empty ledger: silently forgetting the
// publication history would allow duplicate posts.
var ErrCorrupt = errors.New("corrupt ledger file")

// Timestamp is a time.Time whose JSON form is ISO-8601. Parsing accepts both
// RFC 3339 and timezone-naive timestamps (treated as UTC), because existing
// ledger files contain either.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON parses an ISO-8601 timestamp string.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed

			return nil
		}
	}

	return fmt.Errorf("invalid posted_at timestamp %q", raw)
}

// MarshalJSON writes the timestamp as RFC 3339 in UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// Entry records one completed publication.
type Entry struct {
	URL      string    `json:"url"`
	PostedAt Timestamp `json:"posted_at"`
}

// Ledger is the in-memory publication history. The seen set mirrors the
// entries and provides O(1) membership tests on normalized URLs.
type Ledger struct {
	entries []Entry
	seen    map[string]struct{}
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// Load reads the ledger file at path. A missing file yields an empty ledger;
// a file that exists but is not a JSON array of well-formed entries fails
// with ErrCorrupt.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	led := New()

	for i, entry := range entries {
		if entry.URL == "" {
			return nil, fmt.Errorf("%w: %s: entry %d has no url", ErrCorrupt, path, i)
		}

		if entry.PostedAt.IsZero() {
			return nil, fmt.Errorf("%w: %s: entry %d has no posted_at", ErrCorrupt, path, i)
		}

		led.entries = append(led.entries, entry)
		led.seen[entry.URL] = struct{}{}
	}

	return led, nil
}

// Contains reports whether the normalized URL has already been published.
func (l *Ledger) Contains(normalizedURL string) bool {
	_, ok := l.seen[normalizedURL]

	return ok
}

// Append adds one entry to the in-memory ledger. The on-disk file is not
// touched until Save is called.
func (l *Ledger) Append(entry Entry) {
	l.entries = append(l.entries, entry)
	l.seen[entry.URL] = struct{}{}
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries in append order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	return out
}

// Save atomically replaces the ledger file with the full serialized array.
// The data is written to a temporary file in the target directory and then
// renamed over path, so a crash mid-write cannot truncate the history.
func (l *Ledger) Save(path string) error {
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("failed to write temporary ledger file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("failed to close temporary ledger file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("failed to replace ledger file %s: %w", path, err)
	}

	return nil
}

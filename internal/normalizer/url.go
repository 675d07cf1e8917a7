// Package normalizer canonicalizes article URLs into stable deduplication keys.
//
// Two raw URLs that normalize to the same string refer to the same publication
// target; the normalized form is the sole identity used by the ledger and the
// selector.
package normalizer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL indicates a URL that cannot be canonicalized.
var ErrInvalidURL = errors.New("invalid article URL")

// Normalize canonicalizes a raw article URL:
//   - query string and fragment are dropped
//   - trailing slashes are stripped from the path (a bare root path becomes empty)
//   - scheme and host are lowercased
//   - http is rewritten to https
//
// Normalize is idempotent: applying it to its own output returns the same
// string. Input that does not parse, or parses without a scheme and host,
// fails with ErrInvalidURL and must never be used as a key.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty string", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidURL, raw)
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Scheme = "https"
	}

	return u.String(), nil
}

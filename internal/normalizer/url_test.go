package normalizer

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "already normalized",
			raw:  "https://x.test/p",
			want: "https://x.test/p",
		},
		{
			name: "drops query string",
			raw:  "https://x.test/p?utm=1&ref=feed",
			want: "https://x.test/p",
		},
		{
			name: "drops fragment",
			raw:  "https://x.test/p#section-2",
			want: "https://x.test/p",
		},
		{
			name: "strips one trailing slash",
			raw:  "https://x.test/p/",
			want: "https://x.test/p",
		},
		{
			name: "strips repeated trailing slashes",
			raw:  "https://x.test/p//",
			want: "https://x.test/p",
		},
		{
			name: "root path becomes empty",
			raw:  "https://x.test/",
			want: "https://x.test",
		},
		{
			name: "http upgraded to https",
			raw:  "http://x.test/p",
			want: "https://x.test/p",
		},
		{
			name: "query fragment and slash together",
			raw:  "https://x.test/p/?utm=1#s",
			want: "https://x.test/p",
		},
		{
			name: "http with trailing slash",
			raw:  "http://x.test/p/",
			want: "https://x.test/p",
		},
		{
			name: "host lowercased",
			raw:  "HTTPS://X.Test/Path",
			want: "https://x.test/Path",
		},
		{
			name: "nested path keeps inner slashes",
			raw:  "https://x.test/a/b/c/",
			want: "https://x.test/a/b/c",
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  https://x.test/p  ",
			want: "https://x.test/p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("Normalize(%q) returned unexpected error: %v", tt.raw, err)
			}

			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Equivalence(t *testing.T) {
	// Raw forms that must all collapse to the same key.
	raws := []string{
		"https://x.test/p/?utm=1#s",
		"http://x.test/p/",
		"https://x.test/p",
	}

	const want = "https://x.test/p"

	for _, raw := range raws {
		got, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) returned unexpected error: %v", raw, err)
		}

		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raws := []string{
		"https://x.test/p",
		"http://x.test/p/?a=1#frag",
		"https://x.test/",
		"https://x.test//",
		"https://x.test/p//",
		"https://x.test/p///",
		"HTTP://X.TEST/A/B/",
		"https://x.test/a%20b/",
	}

	for _, raw := range raws {
		once, err := Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) returned unexpected error: %v", raw, err)
		}

		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) returned unexpected error: %v", once, err)
		}

		if once != twice {
			t.Errorf("not idempotent: Normalize(%q) = %q, but Normalize of that = %q", raw, once, twice)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	raws := []string{
		"",
		"   ",
		"not a url",
		"/relative/path",
		"http://",
		"://missing-scheme",
		"http://x.test/%zz",
	}

	for _, raw := range raws {
		got, err := Normalize(raw)
		if err == nil {
			t.Errorf("Normalize(%q) = %q, expected error", raw, got)

			continue
		}

		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Normalize(%q) error = %v, want ErrInvalidURL", raw, err)
		}
	}
}

// Package selector implements the selection engine that decides which feed
// articles get republished in a run.
package selector

import (
	"sort"
	"time"

	"github.com/Happyfeet01/reblogging/internal/ledger"
	"github.com/Happyfeet01/reblogging/internal/models"
	"github.com/Happyfeet01/reblogging/internal/normalizer"
)

// Candidate is an article chosen for publication, together with the
// normalized URL used as its ledger key.
type Candidate struct {
	Article       models.Article
	NormalizedURL string
}

// Select computes the ordered, bounded list of articles to publish.
//
// Articles are dropped when they have no publish date, are younger than
// minAge relative to now, have a URL that cannot be normalized, or whose
// normalized URL is already in the ledger. When the batch itself lists the
// same canonical URL under several raw forms, only the earliest-published
// occurrence survives. Survivors are ordered oldest-first, with ties broken
// by normalized URL, and truncated to maxCount when maxCount > 0 (0 means
// unbounded).
//
// Select is pure: now is injected rather than read from the clock, there is
// no I/O, and identical inputs always produce identical ordered output.
func Select(articles []models.Article, led *ledger.Ledger, minAge time.Duration, maxCount int, now time.Time) []Candidate {
	best := make(map[string]models.Article)

	for _, article := range articles {
		if article.PublishedAt == nil {
			continue
		}

		if now.Sub(*article.PublishedAt) < minAge {
			continue
		}

		key, err := normalizer.Normalize(article.URL)
		if err != nil {
			// Unparseable URL: skip the article, never fail the run.
			continue
		}

		if led.Contains(key) {
			continue
		}

		current, ok := best[key]
		if !ok || article.PublishedAt.Before(*current.PublishedAt) {
			best[key] = article
		}
	}

	picks := make([]Candidate, 0, len(best))
	for key, article := range best {
		picks = append(picks, Candidate{Article: article, NormalizedURL: key})
	}

	sort.Slice(picks, func(i, j int) bool {
		ti := *picks[i].Article.PublishedAt
		tj := *picks[j].Article.PublishedAt

		if ti.Equal(tj) {
			return picks[i].NormalizedURL < picks[j].NormalizedURL
		}

		return ti.Before(tj)
	})

	if maxCount > 0 && len(picks) > maxCount {
		picks = picks[:maxCount]
	}

	return picks
}

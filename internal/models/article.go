// Package models defines the data structures shared across the reblog pipeline.
package models

import "time"

// Article is a single item from the source feed.
// PublishedAt is nil when the feed supplies no usable date.
type Article struct {
	Title       string
	URL         string
	Summary     string
	PublishedAt *time.Time
}

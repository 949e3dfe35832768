// Package news ingests and filters the financial-news stream that drives the
// trading pipeline.
package news

import "time"

// Event is one news item from the feed. Events are ephemeral; they are
// filtered, logged, and discarded.
type Event struct {
	Title      string
	Kind       string // category tag, may be empty
	Importance int    // 1 low .. 3 high
	Received   time.Time
}

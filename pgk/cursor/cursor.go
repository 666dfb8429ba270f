// Package cursor tracks per-feed pagination state.
package cursor

import (
	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/generic"
)

// Cursor oldest timestamp seen, seen ids and whether more history is expected.
// oldest never increases until Reset.
type Cursor struct {
	oldest        *nostr.Timestamp
	loading       bool
	hasMore       bool
	seen          generic.Set
	eventsInQuery int
	queryLimit    int
}

// New new cursor
func New() *Cursor {
	return &Cursor{
		hasMore: true,
		seen:    generic.NewSet(),
	}
}

// Oldest oldest accepted timestamp, nil before the first acceptance
func (c *Cursor) Oldest() *nostr.Timestamp {
	if c.oldest == nil {
		return nil
	}
	ts := *c.oldest

	return &ts
}

// Observe keeps the minimum
func (c *Cursor) Observe(ts nostr.Timestamp) {
	if c.oldest == nil || ts < *c.oldest {
		c.oldest = &ts
	}
}

// Seen seen
func (c *Cursor) Seen(id string) bool {
	return c.seen.Has(id)
}

// MarkSeen reports false when id was already seen
func (c *Cursor) MarkSeen(id string) bool {
	if c.seen.Has(id) {
		return false
	}
	c.seen.Add(id)

	return true
}

// Unsee forget id, used when a replaceable version is superseded
func (c *Cursor) Unsee(id string) {
	c.seen.Remove(id)
}

// SeenCount size of the seen set
func (c *Cursor) SeenCount() int {
	return len(c.seen)
}

// Loading a historical query is in flight
func (c *Cursor) Loading() bool {
	return c.loading
}

// HasMore more history is believed to exist
func (c *Cursor) HasMore() bool {
	return c.hasMore
}

// Begin starts a historical query of limit events
func (c *Cursor) Begin(limit int) {
	c.loading = true
	c.eventsInQuery = 0
	c.queryLimit = limit
}

// Count counts one delivery of the current query
func (c *Cursor) Count() {
	if c.loading {
		c.eventsInQuery++
	}
}

// EventsInQuery deliveries counted by the current query
func (c *Cursor) EventsInQuery() int {
	return c.eventsInQuery
}

// Finish ends the query. Fewer deliveries than requested is read as
// exhaustion, a heuristic: a relay may return a short page and still hold more.
func (c *Cursor) Finish() {
	c.loading = false
	if c.queryLimit > 0 && c.eventsInQuery < c.queryLimit {
		c.hasMore = false
	}
}

// Abort ends the query without judging exhaustion
func (c *Cursor) Abort() {
	c.loading = false
}

// Reset clears everything, hasMore goes back to true
func (c *Cursor) Reset() {
	c.oldest = nil
	c.loading = false
	c.hasMore = true
	c.seen = generic.NewSet()
	c.eventsInQuery = 0
	c.queryLimit = 0
}

// Package replaceable keeps the latest version of replaceable records per feed.
package replaceable

import (
	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/models"
)

// Decision outcome of Resolve
type Decision int

const (
	// Plain not replaceable, insert normally
	Plain Decision = iota
	// Accept first version seen for the key
	Accept
	// Replace strictly newer than the retained version
	Replace
	// Skip same age or older than the retained version
	Skip
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Replace:
		return "replace"
	case Skip:
		return "skip"
	}

	return "plain"
}

// Key (feed, kind, author, d)
type Key struct {
	Feed   models.FeedType
	Kind   int
	Author string
	D      string
}

// Entry retained version
type Entry struct {
	ItemID    string
	CreatedAt nostr.Timestamp
}

// Result resolve result, Previous is set on Replace and Skip
type Result struct {
	Decision  Decision
	Previous  string
	Ambiguous bool
}

// Table one entry per key, maximal createdAt wins
type Table struct {
	entries map[Key]Entry
}

// New new table
func New() *Table {
	return &Table{entries: map[Key]Entry{}}
}

// KeyOf key of evt in feed, ok is false for plain records.
// A parameterized record without d is reported ambiguous and treated as plain.
func KeyOf(feed models.FeedType, evt *nostr.Event) (key Key, ok bool, ambiguous bool) {
	switch models.ClassOf(evt.Kind) {
	case models.ClassReplaceable:
		return Key{Feed: feed, Kind: evt.Kind, Author: evt.PubKey}, true, false
	case models.ClassParameterized:
		d, found := models.FindD(evt.Tags)
		if !found {
			return Key{}, false, true
		}
		return Key{Feed: feed, Kind: evt.Kind, Author: evt.PubKey, D: d}, true, false
	}

	return Key{}, false, false
}

// Resolve decides and records evt. Equal createdAt never replaces,
// so the first arrival keeps the slot.
func (t *Table) Resolve(feed models.FeedType, evt *nostr.Event) Result {
	key, ok, ambiguous := KeyOf(feed, evt)
	if !ok {
		return Result{Decision: Plain, Ambiguous: ambiguous}
	}

	prev, exists := t.entries[key]
	if !exists {
		t.entries[key] = Entry{ItemID: evt.ID, CreatedAt: evt.CreatedAt}
		return Result{Decision: Accept}
	}

	if prev.ItemID == evt.ID || evt.CreatedAt <= prev.CreatedAt {
		return Result{Decision: Skip, Previous: prev.ItemID}
	}

	t.entries[key] = Entry{ItemID: evt.ID, CreatedAt: evt.CreatedAt}

	return Result{Decision: Replace, Previous: prev.ItemID}
}

// Get retained entry for key
func (t *Table) Get(key Key) (Entry, bool) {
	e, ok := t.entries[key]
	return e, ok
}

// ClearFeed drops every entry of feed
func (t *Table) ClearFeed(feed models.FeedType) {
	for k := range t.entries {
		if k.Feed == feed {
			delete(t.entries, k)
		}
	}
}

// Len number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

package repost

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/models"
)

// Waiter a repost waiting for its original in one feed
type Waiter struct {
	Feed       models.FeedType
	Repost     *nostr.Event
	Historical bool
}

type entry struct {
	ref     Ref
	cancel  context.CancelFunc
	waiters []Waiter
}

// Pending reposts whose original is not known yet, one fetch per reference
type Pending struct {
	entries map[string]*entry
}

func NewPending() *Pending {
	return &Pending{entries: map[string]*entry{}}
}

// Add registers w, first is true when no fetch for ref exists yet
func (p *Pending) Add(ref Ref, w Waiter) (first bool) {
	key := ref.Key()
	e, ok := p.entries[key]
	if !ok {
		e = &entry{ref: ref}
		p.entries[key] = e
	}

	for _, x := range e.waiters {
		if x.Feed == w.Feed && x.Repost.ID == w.Repost.ID {
			return !ok
		}
	}
	e.waiters = append(e.waiters, w)

	return !ok
}

// SetCancel attaches the fetch cancel of ref
func (p *Pending) SetCancel(ref Ref, cancel context.CancelFunc) {
	if e, ok := p.entries[ref.Key()]; ok {
		e.cancel = cancel
	}
}

// Has pending ref
func (p *Pending) Has(ref Ref) bool {
	_, ok := p.entries[ref.Key()]
	return ok
}

// Resolve waiters of every reference orig satisfies, their fetches are cancelled
func (p *Pending) Resolve(orig *nostr.Event) []Waiter {
	var out []Waiter
	for _, key := range []string{orig.ID, models.AddressOf(orig)} {
		if key == "" {
			continue
		}
		e, ok := p.entries[key]
		if !ok || !e.ref.Matches(orig) {
			continue
		}
		out = append(out, e.waiters...)
		p.remove(key, e)
	}

	return out
}

// Drop forgets ref, used when a fetch ended without result
func (p *Pending) Drop(ref Ref) {
	key := ref.Key()
	if e, ok := p.entries[key]; ok {
		p.remove(key, e)
	}
}

// DropFeed forgets the waiters of feed, fetches nobody waits for are cancelled
func (p *Pending) DropFeed(feed models.FeedType) {
	for key, e := range p.entries {
		kept := e.waiters[:0]
		for _, w := range e.waiters {
			if w.Feed != feed {
				kept = append(kept, w)
			}
		}
		e.waiters = kept
		if len(e.waiters) == 0 {
			p.remove(key, e)
		}
	}
}

func (p *Pending) Len() int {
	return len(p.entries)
}

func (p *Pending) remove(key string, e *entry) {
	if e.cancel != nil {
		e.cancel()
	}
	delete(p.entries, key)
}

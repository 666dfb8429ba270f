// Package source adapts upstream relays to a narrow event stream interface.
package source

import (
	"context"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// Source upstream event source
type Source interface {
	// Subscribe opens a persistent subscription, it must not block on network I/O.
	Subscribe(ctx context.Context, filters nostr.Filters) (*Stream, error)
	// Query opens a one-shot historical query that ends after the backlog.
	Query(ctx context.Context, filter nostr.Filter) (*Stream, error)
	ConnectionCount() int
}

// Stream events of one subscription. Events is unbuffered so a Push returns
// only once the consumer took the event, EOSE and Done are closed once.
type Stream struct {
	events   chan *nostr.Event
	eose     chan struct{}
	done     chan struct{}
	eoseOnce sync.Once
	endOnce  sync.Once

	mu  sync.Mutex
	err error
}

// NewStream new stream
func NewStream() *Stream {
	return &Stream{
		events: make(chan *nostr.Event),
		eose:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *Stream) Events() <-chan *nostr.Event {
	return s.events
}

func (s *Stream) EOSE() <-chan struct{} {
	return s.eose
}

func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err reason the stream ended, nil for a normal end
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Push hands evt to the consumer, false once the stream ended or ctx is done
func (s *Stream) Push(ctx context.Context, evt *nostr.Event) bool {
	select {
	case s.events <- evt:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// MarkEOSE end of stored events
func (s *Stream) MarkEOSE() {
	s.eoseOnce.Do(func() {
		close(s.eose)
	})
}

// End ends the stream, only the first call records err
func (s *Stream) End(err error) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

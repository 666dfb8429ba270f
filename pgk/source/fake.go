package source

import (
	"context"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// Call one Subscribe or Query made against Fake
type Call struct {
	Ctx     context.Context
	Filters nostr.Filters
	Stream  *Stream
}

// Fake in-memory Source driven by tests and local development
type Fake struct {
	mu          sync.Mutex
	connections int
	err         error
	subs        []*Call
	queries     []*Call
}

// NewFake fake with one live connection
func NewFake() *Fake {
	return &Fake{connections: 1}
}

func (f *Fake) SetConnections(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connections = n
}

// SetError makes the next calls fail with err, nil clears it
func (f *Fake) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.err = err
}

func (f *Fake) ConnectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.connections
}

func (f *Fake) Subscribe(ctx context.Context, filters nostr.Filters) (*Stream, error) {
	return f.open(ctx, filters, &f.subs)
}

func (f *Fake) Query(ctx context.Context, filter nostr.Filter) (*Stream, error) {
	return f.open(ctx, nostr.Filters{filter}, &f.queries)
}

func (f *Fake) open(ctx context.Context, filters nostr.Filters, calls *[]*Call) (*Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	s := NewStream()
	*calls = append(*calls, &Call{Ctx: ctx, Filters: filters, Stream: s})

	go func() {
		select {
		case <-ctx.Done():
			s.End(nil)
		case <-s.Done():
		}
	}()

	return s, nil
}

// Subscriptions every Subscribe call so far
func (f *Fake) Subscriptions() []*Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*Call(nil), f.subs...)
}

// Queries every Query call so far
func (f *Fake) Queries() []*Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*Call(nil), f.queries...)
}

// LastSubscription nil when none
func (f *Fake) LastSubscription() *Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.subs) == 0 {
		return nil
	}

	return f.subs[len(f.subs)-1]
}

// LastQuery nil when none
func (f *Fake) LastQuery() *Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queries) == 0 {
		return nil
	}

	return f.queries[len(f.queries)-1]
}

// Cancelled ctx of c is done
func (c *Call) Cancelled() bool {
	select {
	case <-c.Ctx.Done():
		return true
	default:
		return false
	}
}

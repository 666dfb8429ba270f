package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
)

// Pool go-nostr SimplePool over a fixed relay list
type Pool struct {
	pool        *nostr.SimplePool
	relays      []string
	onMalformed func(evt *nostr.Event, err error)
}

// NewPool new pool
func NewPool(ctx context.Context, relays []string) *Pool {
	return &Pool{
		pool:   nostr.NewSimplePool(ctx),
		relays: relays,
	}
}

// OnMalformed fn receives every upstream record failing validation
func (p *Pool) OnMalformed(fn func(evt *nostr.Event, err error)) {
	p.onMalformed = fn
}

// Connect dials every relay, failures are logged and retried by the pool later
func (p *Pool) Connect() {
	for _, url := range p.relays {
		if _, err := p.pool.EnsureRelay(url); err != nil {
			logger.Log.Warnf("connect relay %s error: %s", url, err)
		}
	}
}

// ConnectionCount connected relays
func (p *Pool) ConnectionCount() int {
	var n int
	p.pool.Relays.Range(func(_ string, r *nostr.Relay) bool {
		if r.IsConnected() {
			n++
		}
		return true
	})

	return n
}

// Subscribe persistent subscription, the stream ends when ctx is done or every relay closed
func (p *Pool) Subscribe(ctx context.Context, filters nostr.Filters) (*Stream, error) {
	return p.open(ctx, filters, false)
}

// Query one-shot query, the stream ends once every relay sent EOSE
func (p *Pool) Query(ctx context.Context, filter nostr.Filter) (*Stream, error) {
	return p.open(ctx, nostr.Filters{filter}, true)
}

func (p *Pool) open(ctx context.Context, filters nostr.Filters, once bool) (*Stream, error) {
	if len(p.relays) == 0 {
		return nil, models.ErrNotInitialized
	}

	s := NewStream()
	go p.run(ctx, s, filters, once)

	return s, nil
}

// run fans one subscription per relay into s. EOSE is marked once every relay
// sent its EOSE or gave up, records seen from several relays are pushed once.
func (p *Pool) run(ctx context.Context, s *Stream, filters nostr.Filters, once bool) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan *nostr.Event)
	eose := make(chan struct{}, len(p.relays))

	var wg sync.WaitGroup
	for _, url := range p.relays {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			p.relaySub(subCtx, url, filters, events, eose)
		}(url)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	seen := make(map[string]struct{})
	pending := len(p.relays)
	for {
		select {
		case <-eose:
			pending--
			if pending > 0 {
				continue
			}
			s.MarkEOSE()
			if once {
				s.End(nil)
				return
			}

		case evt := <-events:
			if _, ok := seen[evt.ID]; ok {
				continue
			}
			seen[evt.ID] = struct{}{}

			if err := models.ValidateEvent(evt); err != nil {
				if p.onMalformed != nil {
					p.onMalformed(evt, err)
				}
				continue
			}
			if !s.Push(ctx, evt) {
				s.End(p.endErr(ctx))
				return
			}

		case <-finished:
			s.MarkEOSE()
			s.End(p.endErr(ctx))
			return
		}
	}
}

// relaySub one relay of a subscription, eose gets exactly one signal
func (p *Pool) relaySub(ctx context.Context, url string, filters nostr.Filters, events chan<- *nostr.Event, eose chan<- struct{}) {
	signaled := false
	markEOSE := func() {
		if !signaled {
			signaled = true
			eose <- struct{}{}
		}
	}
	defer markEOSE()

	r, err := p.pool.EnsureRelay(url)
	if err != nil {
		logger.Log.Debugf("connect relay %s error: %s", url, err)
		return
	}

	sub, err := r.Subscribe(ctx, filters)
	if err != nil {
		logger.Log.Debugf("subscribe relay %s error: %s", url, err)
		return
	}
	defer sub.Unsub()

	stored := sub.EndOfStoredEvents
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.Context().Done():
			return
		case <-stored:
			stored = nil
			markEOSE()
		case reason := <-sub.ClosedReason:
			logger.Log.Debugf("relay %s closed subscription: %s", url, reason)
			return
		case evt, ok := <-sub.Events:
			if !ok {
				return
			}
			select {
			case events <- evt:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) endErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("%w: %s", models.ErrSubscription, err)
	}

	if p.ConnectionCount() == 0 {
		return models.ErrOffline
	}

	return nil
}

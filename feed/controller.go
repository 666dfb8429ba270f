// Package feed keeps live, deduplicated and ranked views of many feeds over
// one shared upstream event source.
package feed

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/diagnostics"
	"github.com/saveblush/reraw-feeds/pgk/nips/nip09"
	"github.com/saveblush/reraw-feeds/pgk/nips/nip40"
	"github.com/saveblush/reraw-feeds/pgk/ranking"
	"github.com/saveblush/reraw-feeds/pgk/replaceable"
	"github.com/saveblush/reraw-feeds/pgk/repost"
	"github.com/saveblush/reraw-feeds/pgk/source"
)

const taskQueueSize = 1024

// Policy content policy predicates
type Policy interface {
	ShouldFilter(pubkey string) bool
	ShouldFilterAdult(evt *nostr.Event) bool
	StoreBlacklistWithContent(c *cctx.Context, evt *nostr.Event) error
}

// Profiles profile cache collaborator
type Profiles interface {
	HasProfile(pubkey string) bool
	FetchProfile(pubkey string)
	Put(evt *nostr.Event) bool
}

// EventCache local event persistence used for cache-then-network
type EventCache interface {
	CachedEvents(ctx context.Context, authors []string, kinds []int, limit int) ([]*nostr.Event, error)
	Store(ctx context.Context, evt *nostr.Event) error
}

// Deps collaborators, only Source is required
type Deps struct {
	Source    source.Source
	Profiles  Profiles
	Policy    Policy
	Reporter  diagnostics.Reporter
	Cache     EventCache
	Deletions nip09.Service
}

// Controller owns every feed. All state below the loop marker is touched
// only by the loop goroutine, public methods hand closures to it.
type Controller struct {
	opts      Options
	src       source.Source
	profiles  Profiles
	policy    Policy
	reporter  diagnostics.Reporter
	cache     EventCache
	deletions nip09.Service
	nip40     nip40.Service

	ctx     context.Context
	cancel  context.CancelFunc
	tasks   chan func()
	notify  chan struct{}
	quit    chan struct{}
	stopped chan struct{}
	started atomic.Bool

	startOnce sync.Once
	closeOnce sync.Once

	obsMu     sync.Mutex
	obsSeq    int
	observers map[int]func()

	// loop
	feeds      map[models.FeedType]*feed
	table      *replaceable.Table
	deleted    generic.Set
	retracted  map[string]generic.Set
	addresses  map[string]nostr.Timestamp
	pending    *repost.Pending
	ranker     *ranking.Ranker
	sessionSeq uint64
	dirty      bool
}

// New new controller, call Start before use
func New(opts Options, deps Deps) *Controller {
	opts = opts.withDefaults()

	c := &Controller{
		opts:      opts,
		src:       deps.Source,
		profiles:  deps.Profiles,
		policy:    deps.Policy,
		reporter:  deps.Reporter,
		cache:     deps.Cache,
		deletions: deps.Deletions,
		nip40:     nip40.NewService(),
		tasks:     make(chan func(), taskQueueSize),
		notify:    make(chan struct{}, 1),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		observers: map[int]func(){},
		feeds:     map[models.FeedType]*feed{},
		table:     replaceable.New(),
		deleted:   generic.NewSet(),
		retracted: map[string]generic.Set{},
		addresses: map[string]nostr.Timestamp{},
		pending:   repost.NewPending(),
		ranker:    ranking.New(opts.Gravity, opts.Now),
	}

	if c.reporter == nil {
		c.reporter = diagnostics.NewReporter()
	}
	if c.deletions == nil {
		c.deletions = nip09.NewService(nil)
	}
	for _, t := range models.FeedTypes {
		c.feeds[t] = newFeed(t)
	}

	return c
}

// Start runs the loop until ctx is done or Close is called
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.ctx, c.cancel = context.WithCancel(ctx)
		c.started.Store(true)

		go c.loop()
		go c.dispatch()
		go func() {
			select {
			case <-c.ctx.Done():
				c.Close()
			case <-c.quit:
			}
		}()
	})
}

// Close stops every stream and the loop, it is safe to call more than once
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		if c.started.Load() {
			<-c.stopped
			c.cancel()
		}
	})
}

// Observe fn runs after each batch of state changes, outside the loop
func (c *Controller) Observe(fn func()) (cancel func()) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()

	c.obsSeq++
	id := c.obsSeq
	c.observers[id] = fn

	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()

		delete(c.observers, id)
	}
}

func (c *Controller) loop() {
	defer close(c.stopped)

	for {
		select {
		case <-c.quit:
			c.shutdown()
			return

		case fn := <-c.tasks:
			fn()
			// one tick runs everything queued so far, then notifies once
			for n := len(c.tasks); n > 0; n-- {
				(<-c.tasks)()
			}
			c.flush()
		}
	}
}

func (c *Controller) flush() {
	if !c.dirty {
		return
	}
	c.dirty = false

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Controller) dispatch() {
	for {
		select {
		case <-c.quit:
			return
		case <-c.notify:
			c.obsMu.Lock()
			fns := make([]func(), 0, len(c.observers))
			for _, fn := range c.observers {
				fns = append(fns, fn)
			}
			c.obsMu.Unlock()

			for _, fn := range fns {
				fn()
			}
		}
	}
}

// exec runs fn on the loop and waits for it
func (c *Controller) exec(fn func()) error {
	if !c.started.Load() {
		return models.ErrNotInitialized
	}

	done := make(chan struct{})
	select {
	case c.tasks <- func() {
		defer close(done)
		fn()
	}:
	case <-c.quit:
		return models.ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-c.stopped:
		return models.ErrClosed
	}
}

// post queues fn without waiting, false once the controller is closed
func (c *Controller) post(fn func()) bool {
	select {
	case c.tasks <- fn:
		return true
	case <-c.quit:
		return false
	}
}

func (c *Controller) shutdown() {
	for _, f := range c.feeds {
		c.stopTimers(f)
		c.retire(f, f.session)
		c.retire(f, f.query)
		f.session, f.query = nil, nil
	}
	for _, t := range models.FeedTypes {
		c.pending.DropFeed(t)
	}
	logger.Log.Info("feed controller stopped")
}

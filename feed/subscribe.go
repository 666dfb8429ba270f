package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/source"
)

func validFeed(t models.FeedType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %s", models.ErrUnknownFeed, t)
	}

	return nil
}

// Subscribe opens the live subscription of feed. Repeating the same params is
// a no-op unless p.Force is set. Connectivity failures are returned and retried
// in the background.
func (c *Controller) Subscribe(ctx context.Context, t models.FeedType, p models.FilterParams) error {
	if err := validFeed(t); err != nil {
		return err
	}
	if t == models.FeedSearch && strings.TrimSpace(p.Search) == "" {
		return models.ErrEmptySearch
	}

	var identity models.SubscriptionIdentity
	var changed bool
	if e := c.exec(func() {
		identity, changed = c.subscribe(c.feeds[t], p)
	}); e != nil {
		return e
	}
	if !changed {
		return nil
	}

	return c.start(ctx, t, identity)
}

// Cancel stops the stream of feed, items stay
func (c *Controller) Cancel(t models.FeedType) error {
	if err := validFeed(t); err != nil {
		return err
	}

	return c.exec(func() {
		f := c.feeds[t]
		c.stopTimers(f)
		c.retire(f, f.session)
		c.retire(f, f.query)
		f.session, f.query = nil, nil
		f.cursor.Abort()
		c.dirty = true
	})
}

// Reset cancels and clears items, cursor, replaceable entries and identity
func (c *Controller) Reset(t models.FeedType) error {
	if err := validFeed(t); err != nil {
		return err
	}

	return c.exec(func() {
		f := c.feeds[t]
		c.stopTimers(f)
		c.retire(f, f.session)
		c.retire(f, f.query)
		c.table.ClearFeed(t)
		c.pending.DropFeed(t)

		fresh := newFeed(t)
		fresh.totalDuplicates = f.totalDuplicates
		c.feeds[t] = fresh
		c.dirty = true
	})
}

// Retry manual retry with the last params, clears the failed state
func (c *Controller) Retry(ctx context.Context, t models.FeedType) error {
	if err := validFeed(t); err != nil {
		return err
	}

	var err error
	var identity models.SubscriptionIdentity
	if e := c.exec(func() {
		f := c.feeds[t]
		if f.identity == "" {
			err = models.ErrNotInitialized
			return
		}
		c.stopTimers(f)
		f.failed = false
		f.retries = 0

		p := f.params
		p.Force = true
		identity, _ = c.subscribe(f, p)
	}); e != nil {
		return e
	}
	if err != nil {
		return err
	}

	return c.start(ctx, t, identity)
}

// subscribe switches f to p and retires the old stream, it reports whether
// a new stream must be started
func (c *Controller) subscribe(f *feed, p models.FilterParams) (models.SubscriptionIdentity, bool) {
	force := p.Force
	p = p.Normalized()
	p.Force = false
	identity := models.NewSubscriptionIdentity(f.typ, p)

	if identity == f.identity && !force {
		if f.active() || f.retryTimer != nil || f.reconnectTimer != nil || f.failed {
			return identity, false
		}
	}

	c.stopTimers(f)
	c.retire(f, f.session)
	f.session = nil
	if identity != f.identity {
		f.failed = false
		f.retries = 0
	}

	f.identity = identity
	f.params = p
	f.filters = c.buildFilters(f)
	f.reconnectDelay = 0
	c.dirty = true

	return identity, true
}

// start serves the cache of an author scoped feed, then opens the live stream,
// cached records are always ingested before the first live one
func (c *Controller) start(ctx context.Context, t models.FeedType, identity models.SubscriptionIdentity) error {
	if t.AuthorScoped() {
		c.serveCached(ctx, t, identity)
	}

	var err error
	if e := c.exec(func() {
		f := c.feeds[t]
		if f.identity != identity || f.session != nil || f.retryTimer != nil || f.reconnectTimer != nil {
			return
		}
		err = c.open(f)
	}); e != nil {
		return e
	}

	return err
}

// open opens the live stream for the current identity
func (c *Controller) open(f *feed) error {
	if c.src == nil {
		return c.fail(f, models.ErrNotInitialized)
	}
	if c.src.ConnectionCount() == 0 {
		return c.fail(f, models.ErrOffline)
	}

	ctx, cancel := context.WithCancel(c.ctx)
	s := c.newSession(f, cancel, false)

	stream, err := c.src.Subscribe(ctx, f.filters)
	if err != nil {
		cancel()
		if !models.IsConnectivity(err) {
			err = fmt.Errorf("%w: %s", models.ErrSubscription, err)
		}
		return c.fail(f, err)
	}

	f.session = s
	f.failed = false
	f.retries = 0
	f.lastErr = nil
	c.dirty = true
	go c.pump(s, f.typ, stream)

	return nil
}

func (c *Controller) newSession(f *feed, cancel context.CancelFunc, historical bool) *session {
	c.sessionSeq++

	return &session{
		id:         c.sessionSeq,
		identity:   f.identity,
		historical: historical,
		cancel:     cancel,
		seen:       generic.NewSet(),
	}
}

// fail records err and arms the fixed interval retry
func (c *Controller) fail(f *feed, err error) error {
	f.lastErr = err
	c.reporter.ConnectionFailure(f.typ, err, f.retries)
	c.scheduleRetry(f)
	c.dirty = true

	return err
}

func (c *Controller) scheduleRetry(f *feed) {
	if f.retries >= c.opts.RetryAttempts {
		f.failed = true
		logger.Log.Warnf("feed %s failed after %d retries: %s", f.typ, f.retries, f.lastErr)
		return
	}

	f.retries++
	identity := f.identity
	var timer *time.Timer
	timer = time.AfterFunc(c.opts.RetryInterval, func() {
		c.post(func() {
			if f.retryTimer != timer || f.identity != identity || c.feeds[f.typ] != f {
				return
			}
			f.retryTimer = nil
			_ = c.open(f)
		})
	})
	f.retryTimer = timer
}

func (c *Controller) scheduleReconnect(f *feed) {
	if f.reconnectDelay == 0 {
		f.reconnectDelay = c.opts.ReconnectDelay
	} else {
		f.reconnectDelay *= 2
	}
	if f.reconnectDelay > c.opts.MaxReconnectDelay {
		f.reconnectDelay = c.opts.MaxReconnectDelay
	}

	identity := f.identity
	var timer *time.Timer
	timer = time.AfterFunc(f.reconnectDelay, func() {
		c.post(func() {
			if f.reconnectTimer != timer || f.identity != identity || c.feeds[f.typ] != f {
				return
			}
			f.reconnectTimer = nil
			_ = c.open(f)
		})
	})
	f.reconnectTimer = timer
}

func (c *Controller) stopTimers(f *feed) {
	if f.retryTimer != nil {
		f.retryTimer.Stop()
		f.retryTimer = nil
	}
	if f.reconnectTimer != nil {
		f.reconnectTimer.Stop()
		f.reconnectTimer = nil
	}
}

// retire cancels s and keeps it draining for the grace period,
// late deliveries are absorbed instead of ingested
func (c *Controller) retire(f *feed, s *session) {
	if s == nil || s.draining {
		return
	}

	s.draining = true
	s.cancel()
	if s.idle != nil {
		s.idle.Stop()
	}

	s.release = time.AfterFunc(c.opts.GracePeriod, func() {
		c.post(func() {
			c.release(f, s)
		})
	})
}

func (c *Controller) release(f *feed, s *session) {
	if s.released {
		return
	}
	s.released = true
	s.seen = nil

	if s.late > 0 {
		c.reporter.Duplicates(f.typ, s.late)
	}
}

// pump forwards stream signals into the loop in delivery order
func (c *Controller) pump(s *session, t models.FeedType, stream *source.Stream) {
	eose := stream.EOSE()
	for {
		select {
		case <-c.quit:
			return

		case evt := <-stream.Events():
			if !c.post(func() { c.deliver(s, t, evt) }) {
				return
			}

		case <-eose:
			eose = nil
			if !c.post(func() { c.onEOSE(s, t) }) {
				return
			}

		case <-stream.Done():
			err := stream.Err()
			c.post(func() { c.onStreamEnd(s, t, err) })
			return
		}
	}
}

func (c *Controller) deliver(s *session, t models.FeedType, evt *nostr.Event) {
	f := c.feeds[t]
	if s.released {
		return
	}
	if s.draining || (f.session != s && f.query != s) {
		// only re-sends count as duplicates, new records of a superseded stream are dropped
		if s.seen.Has(evt.ID) || f.cursor.Seen(evt.ID) {
			s.late++
		}
		return
	}

	s.seen.Add(evt.ID)

	if s.historical {
		f.cursor.Count()
		if s.idle != nil {
			s.idle.Reset(c.opts.IdleTimeout)
		}
	}

	if !s.gotEvent {
		s.gotEvent = true
		c.dirty = true
	}

	c.ingest(f, evt, s.historical)
}

func (c *Controller) onEOSE(s *session, t models.FeedType) {
	f := c.feeds[t]
	if s.historical {
		c.finishQuery(f, s, false)
		return
	}
	if f.session != s || s.draining {
		return
	}

	s.gotEOSE = true
	f.reconnectDelay = 0
	c.dirty = true

	if f.duplicates > 0 {
		c.reporter.Duplicates(t, f.duplicates)
		f.duplicates = 0
	}
	if len(f.items) == 0 {
		c.reporter.EmptyFeedAfterBacklog(t, f.filters, c.src.ConnectionCount())
	}
}

func (c *Controller) onStreamEnd(s *session, t models.FeedType, err error) {
	f := c.feeds[t]
	if s.historical {
		c.finishQuery(f, s, false)
		return
	}
	if f.session != s || s.draining {
		return
	}

	c.retire(f, s)
	f.session = nil
	c.dirty = true

	if err != nil && !errors.Is(err, context.Canceled) {
		if !models.IsConnectivity(err) {
			err = fmt.Errorf("%w: %s", models.ErrSubscription, err)
		}
		_ = c.fail(f, err)
		return
	}

	if t.Persistent() {
		c.scheduleReconnect(f)
	}
}

// buildFilters upstream filters for the current params
func (c *Controller) buildFilters(f *feed) nostr.Filters {
	p := f.params

	kinds := append([]int(nil), c.opts.Kinds...)
	if c.includeReposts(f) {
		for _, k := range c.opts.RepostKinds {
			if !generic.Contains(kinds, k) {
				kinds = append(kinds, k)
			}
		}
	}

	limit := p.Limit
	if limit <= 0 {
		limit = c.opts.DefaultLimit
	}

	main := nostr.Filter{
		Kinds:   kinds,
		Authors: p.Authors,
		Since:   p.Since,
		Until:   p.Until,
		Limit:   limit,
		Search:  p.Search,
	}

	tags := nostr.TagMap{}
	if len(p.Hashtags) > 0 {
		tags["t"] = p.Hashtags
	}
	if p.Group != "" {
		tags["h"] = []string{p.Group}
	}
	if len(tags) > 0 {
		main.Tags = tags
	}

	filters := nostr.Filters{main}
	if f.typ.AuthorScoped() && len(p.Authors) > 0 {
		filters = append(filters, nostr.Filter{
			Kinds:   []int{models.KindProfile, models.KindDeletion},
			Authors: p.Authors,
		})
	}

	return filters
}

func (c *Controller) includeReposts(f *feed) bool {
	return f.params.IncludeReposts || c.opts.IncludeReposts
}

// serveCached feeds cached records of an author scoped feed before the stream opens
func (c *Controller) serveCached(ctx context.Context, t models.FeedType, identity models.SubscriptionIdentity) {
	if c.cache == nil {
		return
	}

	var authors []string
	var limit int
	if err := c.exec(func() {
		f := c.feeds[t]
		if f.identity != identity {
			return
		}
		authors = f.params.Authors
		limit = f.filters[0].Limit
	}); err != nil || len(authors) == 0 {
		return
	}

	kinds := append([]int{models.KindProfile}, c.opts.Kinds...)
	events, err := c.cache.CachedEvents(ctx, authors, kinds, limit)
	if err != nil {
		logger.Log.Warnf("read cached events error: %s", err)
		return
	}

	_ = c.exec(func() {
		f := c.feeds[t]
		if f.identity != identity {
			return
		}
		for _, evt := range events {
			c.ingest(f, evt, true)
		}
	})
}

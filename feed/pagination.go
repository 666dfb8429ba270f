package feed

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/saveblush/reraw-feeds/models"
)

// LoadMore queries the page older than the cursor. An exhausted cursor is
// reset first so a feed never stays starved.
func (c *Controller) LoadMore(ctx context.Context, t models.FeedType, limit int) error {
	if err := validFeed(t); err != nil {
		return err
	}

	var err error
	if e := c.exec(func() {
		err = c.loadMore(c.feeds[t], limit)
	}); e != nil {
		return e
	}

	return err
}

func (c *Controller) loadMore(f *feed, limit int) error {
	if f.cursor.Loading() {
		return nil
	}
	if f.identity == "" {
		return models.ErrNotInitialized
	}
	if c.src == nil {
		return models.ErrNotInitialized
	}
	if c.src.ConnectionCount() == 0 {
		f.lastErr = models.ErrOffline
		c.dirty = true
		return models.ErrOffline
	}

	if !f.cursor.HasMore() {
		f.cursor.Reset()
	}
	if limit <= 0 {
		limit = f.filters[0].Limit
	}

	filter := f.filters[0]
	filter.Limit = limit
	// inclusive, records sharing the oldest second are deduplicated by the seen set
	filter.Until = f.cursor.Oldest()

	ctx, cancel := context.WithCancel(c.ctx)
	s := c.newSession(f, cancel, true)
	s.queryID = uuid.NewString()
	s.filter = filter

	stream, err := c.src.Query(ctx, filter)
	if err != nil {
		cancel()
		f.lastErr = err
		c.dirty = true
		return err
	}

	f.cursor.Begin(limit)
	f.query = s
	s.idle = time.AfterFunc(c.opts.IdleTimeout, func() {
		c.post(func() {
			c.finishQuery(f, s, true)
		})
	})
	c.dirty = true
	go c.pump(s, f.typ, stream)

	return nil
}

// finishQuery ends the page query, short pages mark the cursor exhausted
func (c *Controller) finishQuery(f *feed, s *session, idle bool) {
	if f.query != s || s.draining {
		return
	}

	f.query = nil
	f.cursor.Finish()
	c.retire(f, s)
	c.dirty = true

	if idle {
		c.reporter.SubscriptionTimeout(f.typ, s.queryID, s.filter, c.src.ConnectionCount())
	}
}

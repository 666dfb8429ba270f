package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/replaceable"
	"github.com/saveblush/reraw-feeds/pgk/repost"
)

const storeTimeout = 5 * time.Second

// Ingest runs one delivery of evt through the pipeline of feed
func (c *Controller) Ingest(evt *nostr.Event, t models.FeedType, historical bool) error {
	if err := validFeed(t); err != nil {
		return err
	}
	if evt == nil {
		return models.ErrMalformedRecord
	}

	return c.exec(func() {
		c.ingest(c.feeds[t], evt, historical)
	})
}

// IngestRaw strict decode then Ingest, a malformed record is reported and dropped
func (c *Controller) IngestRaw(raw []byte, t models.FeedType, historical bool) error {
	if err := validFeed(t); err != nil {
		return err
	}

	evt, err := models.DecodeEvent(raw)
	if err != nil {
		c.reporter.MalformedRecord(t, err)
		return err
	}

	return c.Ingest(evt, t, historical)
}

func (c *Controller) now() nostr.Timestamp {
	return nostr.Timestamp(c.opts.Now().Unix())
}

func (c *Controller) ingest(f *feed, evt *nostr.Event, historical bool) {
	// dedup, the id stays seen even when a later stage rejects it
	if !f.cursor.MarkSeen(evt.ID) {
		f.duplicates++
		f.totalDuplicates++
		return
	}
	if historical {
		f.cursor.Observe(evt.CreatedAt)
	}

	// kind routing
	switch {
	case evt.Kind == models.KindDeletion:
		c.applyDeletion(f, evt)
		return
	case evt.Kind == models.KindProfile && !c.domainKind(evt.Kind):
		if c.profiles != nil {
			c.profiles.Put(evt)
		}
		return
	case models.IsRepostKind(evt.Kind):
		if !c.includeReposts(f) || !generic.Contains(c.opts.RepostKinds, evt.Kind) {
			return
		}
	case !c.domainKind(evt.Kind) || models.IsEphemeralKind(evt.Kind):
		return
	}

	// policy
	if !f.byAuthor(evt.PubKey) || !c.allowed(f, evt) {
		return
	}

	if models.IsRepostKind(evt.Kind) {
		c.resolveRepost(f, evt, historical)
		return
	}

	c.accept(f, evt, historical, nil)
}

func (c *Controller) domainKind(kind int) bool {
	return generic.Contains(c.opts.Kinds, kind)
}

// allowed blocklist, adult and feed scoped filters
func (c *Controller) allowed(f *feed, evt *nostr.Event) bool {
	if c.policy != nil {
		if c.policy.ShouldFilter(evt.PubKey) || c.policy.ShouldFilterAdult(evt) {
			return false
		}
	}

	return f.matchesActive(evt)
}

// valid media reference, not deleted, not retracted, not expired
func (c *Controller) valid(evt *nostr.Event) (nostr.Timestamp, bool) {
	if c.deleted.Has(evt.ID) || c.isRetracted(evt) {
		return 0, false
	}
	if models.MediaURL(evt) == "" {
		return 0, false
	}

	expiration, err := c.nip40.Expiration(evt)
	if err != nil {
		return 0, true
	}
	if expiration > 0 && c.now() >= expiration {
		return 0, false
	}

	return expiration, true
}

// accept gate, replaceable resolution and insertion of an original record.
// by is set when the record arrives through a repost.
func (c *Controller) accept(f *feed, evt *nostr.Event, historical bool, by *models.Reposter) {
	expiration, ok := c.valid(evt)
	if !ok {
		return
	}

	if existing, ok := f.index[evt.ID]; ok {
		if by != nil && existing.AddReposter(*by) {
			c.dirty = true
		}
		return
	}

	res := c.table.Resolve(f.typ, evt)
	if res.Ambiguous {
		c.reporter.AmbiguousReplaceable(f.typ, evt)
	}
	var carried []models.Reposter
	switch res.Decision {
	case replaceable.Skip:
		if by != nil {
			if retained, ok := f.index[res.Previous]; ok && retained.AddReposter(*by) {
				c.dirty = true
			}
		}
		return
	case replaceable.Replace:
		if prev, ok := f.index[res.Previous]; ok {
			carried = prev.Reposters
		}
		f.remove(res.Previous)
		f.cursor.Unsee(res.Previous)
	}

	item := models.NewItem(evt)
	item.Expiration = expiration
	// reposts of an address follow it to the newer version
	for _, r := range carried {
		item.AddReposter(r)
	}
	if by != nil {
		item.AddReposter(*by)
		f.cursor.MarkSeen(evt.ID)
	}

	c.insert(f, item, historical)
}

func (c *Controller) insert(f *feed, item *models.Item, historical bool) {
	f.items = c.ranker.Insert(f.typ, f.items, item, historical)
	f.index[item.ID] = item
	f.cursor.Observe(item.CreatedAt)
	c.dirty = true

	if f.typ.AuthorScoped() && c.profiles != nil && !c.profiles.HasProfile(item.Author) {
		c.profiles.FetchProfile(item.Author)
	}

	if c.pending.Len() > 0 {
		c.resolvePending(item.Event)
	}

	c.store(item.Event)
}

// store fire-and-forget hooks of an accepted record, bot authors are
// blacklisted for later records and the record goes to the event cache
func (c *Controller) store(evt *nostr.Event) {
	if c.cache == nil && c.policy == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, storeTimeout)
		defer cancel()

		if c.policy != nil {
			if err := c.policy.StoreBlacklistWithContent(cctx.From(ctx), evt); err != nil {
				logger.Log.Debugf("store blacklist error: %s", err)
			}
		}

		if c.cache != nil {
			if err := c.cache.Store(ctx, evt); err != nil {
				logger.Log.Debugf("store cached event error: %s", err)
			}
		}
	}()
}

func (c *Controller) resolveRepost(f *feed, evt *nostr.Event, historical bool) {
	ref, ok := repost.ParseRef(evt)
	if !ok || !repost.IsMedia(ref, evt, c.opts.Kinds) {
		return
	}

	if orig, ok := repost.Embedded(ref, evt); ok {
		c.synthesize(f, orig, evt, historical)
		return
	}

	if orig := c.findOriginal(ref); orig != nil {
		c.synthesize(f, orig, evt, historical)
		return
	}

	if c.pending.Add(ref, repost.Waiter{Feed: f.typ, Repost: evt, Historical: historical}) {
		c.fetchOriginal(ref)
	}
}

// synthesize inserts orig on behalf of a repost, or merges the reposter
func (c *Controller) synthesize(f *feed, orig, rp *nostr.Event, historical bool) {
	if !c.domainKind(orig.Kind) || !c.allowed(f, orig) {
		return
	}

	by := repost.ReposterOf(rp)
	c.accept(f, orig, historical, &by)
}

// findOriginal newest accumulated record matching ref across every feed
func (c *Controller) findOriginal(ref repost.Ref) *nostr.Event {
	var found *nostr.Event
	for _, f := range c.feeds {
		if ref.Address == "" {
			if it, ok := f.index[ref.ID]; ok {
				return it.Event
			}
			continue
		}
		for _, it := range f.items {
			if ref.Matches(it.Event) && (found == nil || it.CreatedAt > found.CreatedAt) {
				found = it.Event
			}
		}
	}

	return found
}

// fetchOriginal one-shot query without timeout, cancelled once the original is found
func (c *Controller) fetchOriginal(ref repost.Ref) {
	if c.src == nil {
		c.pending.Drop(ref)
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.pending.SetCancel(ref, cancel)

	stream, err := c.src.Query(ctx, ref.Filter())
	if err != nil {
		logger.Log.Debugf("fetch repost original error: %s", err)
		c.pending.Drop(ref)
		return
	}

	queryID := uuid.NewString()
	go func() {
		for {
			select {
			case <-c.quit:
				return
			case evt := <-stream.Events():
				c.post(func() {
					if ref.Matches(evt) {
						c.resolvePending(evt)
					}
				})
			case <-stream.Done():
				c.post(func() {
					if c.pending.Has(ref) {
						logger.Log.Debugf("repost original %s not found, query %s", ref.Key(), queryID)
						c.pending.Drop(ref)
					}
				})
				return
			}
		}
	}()
}

// resolvePending hands orig to every repost waiting for it
func (c *Controller) resolvePending(orig *nostr.Event) {
	for _, w := range c.pending.Resolve(orig) {
		f := c.feeds[w.Feed]
		c.synthesize(f, orig, w.Repost, w.Historical)
	}
}

// applyDeletion removes records the author asked to delete from every feed
func (c *Controller) applyDeletion(from *feed, evt *nostr.Event) {
	d, err := c.deletions.Parse(evt)
	if err != nil {
		c.reporter.MalformedRecord(from.typ, err)
		return
	}

	for id := range d.IDs {
		authors, ok := c.retracted[id]
		if !ok {
			authors = generic.NewSet()
			c.retracted[id] = authors
		}
		authors.Add(d.Author)
	}
	for a := range d.Addresses {
		if d.CreatedAt > c.addresses[a] {
			c.addresses[a] = d.CreatedAt
		}
	}

	for _, f := range c.feeds {
		if f.removeWhere(func(it *models.Item) bool { return d.Matches(it.Event) }) > 0 {
			c.dirty = true
		}
	}

	go func() {
		if _, err := c.deletions.CancelEvent(cctx.From(c.ctx), evt); err != nil {
			logger.Log.Debugf("cancel cached event error: %s", err)
		}
	}()
}

func (c *Controller) isRetracted(evt *nostr.Event) bool {
	// keyed per author, a deletion only retracts its author's own records
	if authors, ok := c.retracted[evt.ID]; ok && authors.Has(evt.PubKey) {
		return true
	}

	if a := models.AddressOf(evt); a != "" {
		if until, ok := c.addresses[a]; ok && evt.CreatedAt <= until {
			return true
		}
	}

	return false
}

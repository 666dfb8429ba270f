package feed

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/cursor"
)

type feed struct {
	typ      models.FeedType
	items    []*models.Item
	index    map[string]*models.Item
	cursor   *cursor.Cursor
	identity models.SubscriptionIdentity
	params   models.FilterParams
	filters  nostr.Filters
	hashtags []string
	group    string

	session *session
	query   *session

	duplicates      int64
	totalDuplicates int64

	failed         bool
	retries        int
	lastErr        error
	retryTimer     *time.Timer
	reconnectTimer *time.Timer
	reconnectDelay time.Duration
}

func newFeed(t models.FeedType) *feed {
	return &feed{
		typ:    t,
		index:  map[string]*models.Item{},
		cursor: cursor.New(),
	}
}

// session one upstream stream, live or a one-shot page query
type session struct {
	id         uint64
	queryID    string
	identity   models.SubscriptionIdentity
	historical bool
	cancel     context.CancelFunc
	filter     nostr.Filter

	gotEvent bool
	gotEOSE  bool
	draining bool
	released bool
	seen     generic.Set
	late     int64
	idle     *time.Timer
	release  *time.Timer
}

func (f *feed) active() bool {
	return f.session != nil && !f.session.draining
}

// matchesActive feed scoped hashtag and group filters
func (f *feed) matchesActive(evt *nostr.Event) bool {
	if len(f.hashtags) > 0 {
		var found bool
		for _, t := range models.Hashtags(evt.Tags) {
			if generic.Contains(f.hashtags, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.group != "" {
		g, _ := models.TagValue(evt.Tags, "h")
		if g != f.group {
			return false
		}
	}

	return true
}

// byAuthor untrusted upstreams may ignore the author filter
func (f *feed) byAuthor(pubkey string) bool {
	return len(f.params.Authors) == 0 || generic.Contains(f.params.Authors, pubkey)
}

func (f *feed) remove(id string) bool {
	if _, ok := f.index[id]; !ok {
		return false
	}
	delete(f.index, id)

	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}

	return true
}

func (f *feed) removeWhere(fn func(*models.Item) bool) int {
	kept := f.items[:0]
	var n int
	for _, it := range f.items {
		if fn(it) {
			delete(f.index, it.ID)
			n++
			continue
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(f.items); i++ {
		f.items[i] = nil
	}
	f.items = kept

	return n
}

func (f *feed) state() models.FeedState {
	st := models.FeedState{
		Feed:       f.typ,
		Identity:   f.identity,
		Active:     f.active(),
		Loading:    f.cursor.Loading() || (f.active() && !f.session.gotEOSE),
		HasMore:    f.cursor.HasMore(),
		Failed:     f.failed,
		Retries:    f.retries,
		Count:      len(f.items),
		Duplicates: f.totalDuplicates,
		Err:        f.lastErr,
	}
	if f.lastErr != nil {
		st.LastError = f.lastErr.Error()
	}

	return st
}

package diagnostics

import (
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/models"
)

// Entry one recorded report
type Entry struct {
	Kind  string
	Feed  models.FeedType
	Count int64
	Err   error
}

// Recorder keeps reports in memory
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
}

// Entries entries of kind, all when kind is empty
func (r *Recorder) Entries(kind string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.entries {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}

	return out
}

func (r *Recorder) EmptyFeedAfterBacklog(feed models.FeedType, _ nostr.Filters, _ int) {
	r.add(Entry{Kind: "empty-feed", Feed: feed})
}

func (r *Recorder) SubscriptionTimeout(feed models.FeedType, _ string, _ nostr.Filter, _ int) {
	r.add(Entry{Kind: "timeout", Feed: feed})
}

func (r *Recorder) ConnectionFailure(feed models.FeedType, err error, attempt int) {
	r.add(Entry{Kind: "connection", Feed: feed, Count: int64(attempt), Err: err})
}

func (r *Recorder) AmbiguousReplaceable(feed models.FeedType, _ *nostr.Event) {
	r.add(Entry{Kind: "ambiguous", Feed: feed})
}

func (r *Recorder) MalformedRecord(feed models.FeedType, err error) {
	r.add(Entry{Kind: "malformed", Feed: feed, Err: err})
}

func (r *Recorder) Duplicates(feed models.FeedType, count int64) {
	r.add(Entry{Kind: "duplicates", Feed: feed, Count: count})
}

package diagnostics

import (
	"errors"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"

	"github.com/saveblush/reraw-feeds/models"
)

func TestSnapshot(t *testing.T) {
	s := Snapshot(nostr.Filters{{Kinds: []int{21}}})
	assert.Contains(t, s, `"kinds":[21]`)
}

func TestReporterDoesNotPanic(t *testing.T) {
	r := NewReporter()
	assert.NotPanics(t, func() {
		r.EmptyFeedAfterBacklog(models.FeedHome, nostr.Filters{{Kinds: []int{21}}}, 1)
		r.SubscriptionTimeout(models.FeedHome, "q", nostr.Filter{}, 0)
		r.ConnectionFailure(models.FeedHome, errors.New("x"), 1)
		r.AmbiguousReplaceable(models.FeedHome, &nostr.Event{})
		r.MalformedRecord(models.FeedHome, errors.New("x"))
		r.Duplicates(models.FeedHome, 3)
	})
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Duplicates(models.FeedHome, 2)
	r.EmptyFeedAfterBacklog(models.FeedDiscovery, nil, 0)

	assert.Len(t, r.Entries(""), 2)
	d := r.Entries("duplicates")
	assert.Len(t, d, 1)
	assert.Equal(t, int64(2), d[0].Count)
}

package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"

	"github.com/saveblush/reraw-feeds/models"
)

var now = time.Unix(1_700_000_000, 0)

func fixedNow() time.Time {
	return now
}

func item(id string, hoursAgo float64, e models.Engagement) *models.Item {
	return &models.Item{
		ID:         id,
		CreatedAt:  nostr.Timestamp(now.Add(-time.Duration(hoursAgo * float64(time.Hour))).Unix()),
		Engagement: e,
	}
}

func ids(list []*models.Item) []string {
	out := make([]string, 0, len(list))
	for _, it := range list {
		out = append(out, it.ID)
	}

	return out
}

func TestWeighted(t *testing.T) {
	assert.InDelta(t, 10+1+8+4+6, Weighted(models.Engagement{Loops: 10, Views: 10, Comments: 2, Likes: 2, Reposts: 2}), 1e-9)
}

func TestScore(t *testing.T) {
	it := item("a", 2, models.Engagement{Loops: 9})
	want := (1 + math.Log(10)) / math.Pow(4, 1.5)
	assert.InDelta(t, want, Score(it, now, 1.5), 1e-9)

	future := item("f", -5, models.Engagement{})
	assert.InDelta(t, 1/math.Pow(2, 1.5), Score(future, now, 1.5), 1e-9)
}

func TestInsertRanked(t *testing.T) {
	r := New(0, fixedNow)

	var list []*models.Item
	list = r.Insert(models.FeedHome, list, item("old-popular", 48, models.Engagement{Loops: 1000}), false)
	list = r.Insert(models.FeedHome, list, item("fresh", 0, models.Engagement{}), false)
	list = r.Insert(models.FeedHome, list, item("hot", 1, models.Engagement{Likes: 50}), false)

	assert.Equal(t, []string{"hot", "fresh", "old-popular"}, ids(list))
}

func TestNewerWinsOnEqualEngagement(t *testing.T) {
	r := New(1.5, fixedNow)
	a := item("older", 1, models.Engagement{})
	b := item("newer", 1, models.Engagement{})
	b.CreatedAt++
	list := r.Insert(models.FeedHashtag, []*models.Item{a}, b, false)
	assert.Equal(t, "newer", list[0].ID)
}

func TestUnsortedFeedsAppend(t *testing.T) {
	r := New(0, fixedNow)
	for _, feed := range []models.FeedType{models.FeedEditorial, models.FeedPopularNow, models.FeedTrending} {
		var list []*models.Item
		list = r.Insert(feed, list, item("1", 50, models.Engagement{}), false)
		list = r.Insert(feed, list, item("2", 0, models.Engagement{Loops: 100}), false)
		assert.Equal(t, []string{"1", "2"}, ids(list), feed)
	}
}

func TestProfileNewestFirst(t *testing.T) {
	r := New(0, fixedNow)
	var list []*models.Item
	list = r.Insert(models.FeedProfile, list, item("mid", 5, models.Engagement{Loops: 1000}), false)
	list = r.Insert(models.FeedProfile, list, item("new", 1, models.Engagement{}), false)
	list = r.Insert(models.FeedProfile, list, item("old", 9, models.Engagement{}), false)

	assert.Equal(t, []string{"new", "mid", "old"}, ids(list))
}

func TestDiscoveryPinsClassic(t *testing.T) {
	r := New(0, fixedNow)
	classic := item("classic", 5000, models.Engagement{})
	classic.Classic = true

	var list []*models.Item
	list = r.Insert(models.FeedDiscovery, list, item("hot", 0, models.Engagement{Loops: 100}), false)
	list = r.Insert(models.FeedDiscovery, list, classic, false)
	assert.Equal(t, []string{"classic", "hot"}, ids(list))

	// not pinned elsewhere
	list = r.Insert(models.FeedHome, []*models.Item{item("hot", 0, models.Engagement{Loops: 100})}, classic, false)
	assert.Equal(t, []string{"hot", "classic"}, ids(list))
}

func TestHistoricalAppendKeepsOrderOnTie(t *testing.T) {
	r := New(0, fixedNow)
	a := item("a", 3, models.Engagement{})
	b := item("b", 3, models.Engagement{})

	live := r.Insert(models.FeedSearch, []*models.Item{a}, b, false)
	assert.Equal(t, []string{"b", "a"}, ids(live))

	hist := r.Insert(models.FeedSearch, []*models.Item{a}, b, true)
	assert.Equal(t, []string{"a", "b"}, ids(hist))
}

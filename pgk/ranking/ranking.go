// Package ranking orders feed items on insertion.
package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/saveblush/reraw-feeds/models"
)

const DefaultGravity = 1.5

// Weighted engagement, loops count fully and views at a tenth
func Weighted(e models.Engagement) float64 {
	return float64(e.Loops) +
		0.1*float64(e.Views) +
		4*float64(e.Comments) +
		2*float64(e.Likes) +
		3*float64(e.Reposts)
}

// Score decays with age, an item from the future counts as brand new
func Score(item *models.Item, now time.Time, gravity float64) float64 {
	age := now.Sub(time.Unix(int64(item.CreatedAt), 0)).Hours()
	if age < 0 {
		age = 0
	}

	return (1 + math.Log1p(Weighted(item.Engagement))) / math.Pow(age+2, gravity)
}

// Ranker feed insertion policy
type Ranker struct {
	gravity float64
	now     func() time.Time
}

// New now defaults to time.Now, gravity to DefaultGravity
func New(gravity float64, now func() time.Time) *Ranker {
	if gravity <= 0 {
		gravity = DefaultGravity
	}
	if now == nil {
		now = time.Now
	}

	return &Ranker{gravity: gravity, now: now}
}

// Insert adds item to list following the policy of feed. Live items are
// prepended and historical ones appended, unsorted feeds always append.
func (r *Ranker) Insert(feed models.FeedType, list []*models.Item, item *models.Item, historical bool) []*models.Item {
	if !feed.Sorted() || historical {
		list = append(list, item)
	} else {
		list = append([]*models.Item{item}, list...)
	}

	if feed.Sorted() {
		r.Sort(feed, list)
	}

	return list
}

// Sort sorts list in place. Upstream order is kept for unsorted feeds,
// profile is newest first and the rest by score with classic pinned on discovery.
func (r *Ranker) Sort(feed models.FeedType, list []*models.Item) {
	switch {
	case !feed.Sorted():
		return
	case feed == models.FeedProfile:
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt > list[j].CreatedAt
		})
		return
	}

	now := r.now()
	scores := make(map[*models.Item]float64, len(list))
	for _, it := range list {
		scores[it] = Score(it, now, r.gravity)
	}

	pin := feed == models.FeedDiscovery
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if pin && a.Classic != b.Classic {
			return a.Classic
		}
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}

		return a.CreatedAt > b.CreatedAt
	})
}

package feed

import (
	"github.com/saveblush/reraw-feeds/models"
)

// Items snapshot of feed in display order
func (c *Controller) Items(t models.FeedType) ([]models.Item, error) {
	if err := validFeed(t); err != nil {
		return nil, err
	}

	var out []models.Item
	err := c.exec(func() {
		f := c.feeds[t]
		out = make([]models.Item, 0, len(f.items))
		for _, it := range f.items {
			out = append(out, it.Clone())
		}
	})

	return out, err
}

// State loading and error state of feed
func (c *Controller) State(t models.FeedType) (models.FeedState, error) {
	if err := validFeed(t); err != nil {
		return models.FeedState{}, err
	}

	var st models.FeedState
	err := c.exec(func() {
		st = c.feeds[t].state()
	})

	return st, err
}

// Delete removes id from every feed, it is never inserted again
func (c *Controller) Delete(id string) error {
	return c.exec(func() {
		c.deleted.Add(id)
		for _, f := range c.feeds {
			if f.remove(id) {
				c.dirty = true
			}
		}
	})
}

// SetHashtagFilter restricts feed to records carrying one of tags, empty clears
func (c *Controller) SetHashtagFilter(t models.FeedType, tags []string) error {
	if err := validFeed(t); err != nil {
		return err
	}

	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if n := models.NormalizeHashtag(tag); n != "" {
			normalized = append(normalized, n)
		}
	}

	return c.exec(func() {
		f := c.feeds[t]
		f.hashtags = normalized
		c.refilter(f)
	})
}

// SetGroupFilter restricts feed to one group ("h" tag), empty clears
func (c *Controller) SetGroupFilter(t models.FeedType, group string) error {
	if err := validFeed(t); err != nil {
		return err
	}

	return c.exec(func() {
		f := c.feeds[t]
		f.group = group
		c.refilter(f)
	})
}

func (c *Controller) refilter(f *feed) {
	f.removeWhere(func(it *models.Item) bool {
		return !f.matchesActive(it.Event)
	})
	c.dirty = true
}

// SweepExpired drops items past their expiration
func (c *Controller) SweepExpired() error {
	return c.exec(func() {
		now := c.now()
		for _, f := range c.feeds {
			if f.removeWhere(func(it *models.Item) bool { return it.Expired(now) }) > 0 {
				c.dirty = true
			}
		}
	})
}

package models

import (
	"github.com/nbd-wtf/go-nostr"
)

// Reposter someone who reposted an item
type Reposter struct {
	PubKey     string          `json:"pubkey"`
	RepostID   string          `json:"repost_id"`
	RepostedAt nostr.Timestamp `json:"reposted_at"`
}

// Engagement counters read from the record tags
type Engagement struct {
	Loops    int64 `json:"loops"`
	Views    int64 `json:"views"`
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
	Reposts  int64 `json:"reposts"`
}

// Item an accepted feed entry
type Item struct {
	ID         string          `json:"id"`
	Event      *nostr.Event    `json:"event"`
	Author     string          `json:"author"`
	Kind       int             `json:"kind"`
	CreatedAt  nostr.Timestamp `json:"created_at"`
	MediaURL   string          `json:"media_url"`
	Hashtags   []string        `json:"hashtags,omitempty"`
	Group      string          `json:"group,omitempty"`
	Engagement Engagement      `json:"engagement"`
	Classic    bool            `json:"classic,omitempty"`
	Adult      bool            `json:"-"`
	Expiration nostr.Timestamp `json:"expiration,omitempty"`
	Reposters  []Reposter      `json:"reposters,omitempty"`
}

// NewItem builds an item from an original record
func NewItem(evt *nostr.Event) *Item {
	group, _ := TagValue(evt.Tags, "h")

	return &Item{
		ID:         evt.ID,
		Event:      evt,
		Author:     evt.PubKey,
		Kind:       evt.Kind,
		CreatedAt:  evt.CreatedAt,
		MediaURL:   MediaURL(evt),
		Hashtags:   Hashtags(evt.Tags),
		Group:      group,
		Engagement: EngagementOf(evt),
		Classic:    IsClassic(evt),
	}
}

// HasReposter has reposter
func (i *Item) HasReposter(pubkey string) bool {
	for _, r := range i.Reposters {
		if r.PubKey == pubkey {
			return true
		}
	}

	return false
}

// AddReposter merges r, false when the pubkey already reposted
func (i *Item) AddReposter(r Reposter) bool {
	if i.HasReposter(r.PubKey) {
		return false
	}
	i.Reposters = append(i.Reposters, r)

	return true
}

// IsRepost item reached the feed through at least one repost
func (i *Item) IsRepost() bool {
	return len(i.Reposters) > 0
}

// Expired past its expiration timestamp
func (i *Item) Expired(now nostr.Timestamp) bool {
	return i.Expiration > 0 && now >= i.Expiration
}

// Clone copy safe to hand to readers outside the controller
func (i *Item) Clone() Item {
	c := *i
	c.Hashtags = append([]string(nil), i.Hashtags...)
	c.Reposters = append([]Reposter(nil), i.Reposters...)

	return c
}

// FeedState loading / error pair exposed per feed
type FeedState struct {
	Feed       FeedType             `json:"feed"`
	Identity   SubscriptionIdentity `json:"-"`
	Active     bool                 `json:"active"`
	Loading    bool                 `json:"loading"`
	HasMore    bool                 `json:"has_more"`
	Failed     bool                 `json:"failed"`
	Retries    int                  `json:"retries"`
	Count      int                  `json:"count"`
	Duplicates int64                `json:"duplicates"`
	LastError  string               `json:"last_error,omitempty"`
	Err        error                `json:"-"`
}

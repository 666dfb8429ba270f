package models

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
)

func TestMediaURL(t *testing.T) {
	cases := []struct {
		tags    nostr.Tags
		content string
		want    string
	}{
		{nostr.Tags{{"url", "https://cdn.example/a.mp4"}}, "", "https://cdn.example/a.mp4"},
		{nostr.Tags{{"imeta", "m video/mp4", "url https://cdn.example/b.mp4"}}, "", "https://cdn.example/b.mp4"},
		{nostr.Tags{{"r", "https://example.com/page"}, {"r", "https://cdn.example/c.webm?x=1"}}, "", "https://cdn.example/c.webm?x=1"},
		{nil, "look https://cdn.example/d.mov wow", "https://cdn.example/d.mov"},
		{nil, "just text https://example.com", ""},
		{nostr.Tags{{"url", "ftp://x"}}, "", ""},
	}

	for _, c := range cases {
		evt := &nostr.Event{Tags: c.tags, Content: c.content}
		assert.Equal(t, c.want, MediaURL(evt))
	}
}

func TestNewItem(t *testing.T) {
	evt := &nostr.Event{
		ID:        "1",
		PubKey:    "a",
		Kind:      34236,
		CreatedAt: 50,
		Tags: nostr.Tags{
			{"url", "https://cdn.example/a.mp4"},
			{"t", "#Classic"},
			{"h", "skaters"},
			{"loops", "100"},
			{"comments", "3"},
			{"likes", "bad"},
		},
	}

	item := NewItem(evt)
	assert.Equal(t, "1", item.ID)
	assert.Equal(t, "skaters", item.Group)
	assert.True(t, item.Classic)
	assert.Equal(t, []string{"classic"}, item.Hashtags)
	assert.Equal(t, Engagement{Loops: 100, Comments: 3}, item.Engagement)
}

func TestItemReposters(t *testing.T) {
	item := &Item{ID: "1"}
	assert.False(t, item.IsRepost())

	assert.True(t, item.AddReposter(Reposter{PubKey: "x", RepostID: "r1"}))
	assert.False(t, item.AddReposter(Reposter{PubKey: "x", RepostID: "r2"}))
	assert.True(t, item.AddReposter(Reposter{PubKey: "y", RepostID: "r3"}))
	assert.Len(t, item.Reposters, 2)

	c := item.Clone()
	c.Reposters[0].PubKey = "z"
	assert.Equal(t, "x", item.Reposters[0].PubKey)

	item.Expiration = 10
	assert.True(t, item.Expired(10))
	assert.False(t, item.Expired(9))
}

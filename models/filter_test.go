package models

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"

	"github.com/saveblush/reraw-feeds/core/utils"
)

func TestSubscriptionIdentityOrderInsensitive(t *testing.T) {
	a := NewSubscriptionIdentity(FeedHome, FilterParams{Authors: []string{"b", "a"}, Hashtags: []string{"#Vine", "fun"}, Limit: 20})
	b := NewSubscriptionIdentity(FeedHome, FilterParams{Authors: []string{"a", "b", "a"}, Hashtags: []string{"fun", "vine"}, Limit: 20, Force: true})

	assert.Equal(t, a, b)
	assert.Equal(t, a.ID(), b.ID())
	assert.Contains(t, a.ID(), "home-")
}

func TestSubscriptionIdentityDiffers(t *testing.T) {
	base := FilterParams{Authors: []string{"a"}, Limit: 20}
	id := NewSubscriptionIdentity(FeedHome, base)

	other := base
	other.Limit = 21
	assert.NotEqual(t, id, NewSubscriptionIdentity(FeedHome, other))

	other = base
	other.Until = utils.Pointer(nostr.Timestamp(100))
	assert.NotEqual(t, id, NewSubscriptionIdentity(FeedHome, other))

	other = base
	other.IncludeReposts = true
	assert.NotEqual(t, id, NewSubscriptionIdentity(FeedHome, other))

	assert.NotEqual(t, id, NewSubscriptionIdentity(FeedProfile, base))
	assert.Equal(t, "", SubscriptionIdentity("").ID())
}

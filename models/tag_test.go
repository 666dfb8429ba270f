package models

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
)

func TestTagHelpers(t *testing.T) {
	tags := nostr.Tags{{"t", "#Vine"}, {"t", "loops"}, {"d"}, {"h", "g1"}}

	assert.Equal(t, []string{"vine", "loops"}, Hashtags(tags))
	v, ok := TagValue(tags, "h")
	assert.True(t, ok)
	assert.Equal(t, "g1", v)

	d, ok := FindD(tags)
	assert.True(t, ok)
	assert.Equal(t, "", d)
	assert.True(t, HasTag(tags, "d"))
	assert.False(t, HasTag(tags, "e"))
}

func TestAddress(t *testing.T) {
	evt := &nostr.Event{Kind: 34235, PubKey: "A", Tags: nostr.Tags{{"d", "x:y"}}}
	assert.Equal(t, "34235:A:x:y", AddressOf(evt))
	assert.Equal(t, "0:A:", AddressOf(&nostr.Event{Kind: 0, PubKey: "A"}))
	assert.Equal(t, "", AddressOf(&nostr.Event{Kind: 21, PubKey: "A"}))
	assert.Equal(t, "", AddressOf(&nostr.Event{Kind: 30000, PubKey: "A"}))

	kind, pubkey, d, ok := ParseAddress("34235:A:x:y")
	assert.True(t, ok)
	assert.Equal(t, 34235, kind)
	assert.Equal(t, "A", pubkey)
	assert.Equal(t, "x:y", d)

	_, _, _, ok = ParseAddress("abc:A:d")
	assert.False(t, ok)
	_, _, _, ok = ParseAddress("1")
	assert.False(t, ok)
}

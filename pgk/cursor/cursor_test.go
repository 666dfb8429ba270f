package cursor

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
)

func TestObserveMonotonic(t *testing.T) {
	c := New()
	assert.Nil(t, c.Oldest())

	for _, ts := range []nostr.Timestamp{100, 120, 90, 95, 90} {
		c.Observe(ts)
	}
	assert.Equal(t, nostr.Timestamp(90), *c.Oldest())

	o := c.Oldest()
	*o = 1
	assert.Equal(t, nostr.Timestamp(90), *c.Oldest())
}

func TestSeen(t *testing.T) {
	c := New()
	assert.True(t, c.MarkSeen("a"))
	assert.False(t, c.MarkSeen("a"))
	assert.True(t, c.Seen("a"))

	c.Unsee("a")
	assert.False(t, c.Seen("a"))
	assert.Equal(t, 0, c.SeenCount())
}

func TestFinishShortPage(t *testing.T) {
	c := New()
	c.Begin(3)
	assert.True(t, c.Loading())
	c.Count()
	c.Count()
	c.Finish()

	assert.False(t, c.Loading())
	assert.False(t, c.HasMore())
}

func TestFinishFullPage(t *testing.T) {
	c := New()
	c.Begin(2)
	c.Count()
	c.Count()
	c.Count()
	c.Finish()

	assert.True(t, c.HasMore())
	assert.Equal(t, 3, c.EventsInQuery())
}

func TestCountOutsideQuery(t *testing.T) {
	c := New()
	c.Count()
	assert.Equal(t, 0, c.EventsInQuery())
}

func TestReset(t *testing.T) {
	c := New()
	c.Observe(10)
	c.MarkSeen("a")
	c.Begin(5)
	c.Finish()
	assert.False(t, c.HasMore())

	c.Reset()
	assert.Nil(t, c.Oldest())
	assert.True(t, c.HasMore())
	assert.False(t, c.Seen("a"))
	assert.False(t, c.Loading())
}

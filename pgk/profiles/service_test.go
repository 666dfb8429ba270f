package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveblush/reraw-feeds/core/config"
	"github.com/saveblush/reraw-feeds/pgk/source"
)

func TestPutNewestWins(t *testing.T) {
	s := NewService(context.Background(), config.ProfileConfig{}, nil)

	assert.False(t, s.Put(&nostr.Event{Kind: 1, PubKey: "A"}))
	assert.True(t, s.Put(&nostr.Event{ID: "1", Kind: 0, PubKey: "A", CreatedAt: 100}))
	assert.False(t, s.Put(&nostr.Event{ID: "2", Kind: 0, PubKey: "A", CreatedAt: 90}))
	assert.True(t, s.Put(&nostr.Event{ID: "3", Kind: 0, PubKey: "A", CreatedAt: 110}))

	evt, ok := s.Profile("A")
	require.True(t, ok)
	assert.Equal(t, "3", evt.ID)
	assert.True(t, s.HasProfile("A"))
	assert.False(t, s.HasProfile("B"))
}

func TestFetchProfile(t *testing.T) {
	src := source.NewFake()
	s := NewService(context.Background(), config.ProfileConfig{Cooldown: time.Minute}, src)

	s.FetchProfile("A")
	require.Eventually(t, func() bool {
		return src.LastQuery() != nil
	}, time.Second, 5*time.Millisecond)

	q := src.LastQuery()
	assert.Equal(t, []int{0}, q.Filters[0].Kinds)
	assert.Equal(t, []string{"A"}, q.Filters[0].Authors)

	require.True(t, q.Stream.Push(context.Background(), &nostr.Event{ID: "p", Kind: 0, PubKey: "A", CreatedAt: 5}))
	q.Stream.MarkEOSE()

	require.Eventually(t, func() bool {
		return s.HasProfile("A")
	}, time.Second, 5*time.Millisecond)
}

func TestFetchProfileCooldown(t *testing.T) {
	src := source.NewFake()
	s := NewService(context.Background(), config.ProfileConfig{Cooldown: time.Hour}, src)

	s.FetchProfile("A")
	require.Eventually(t, func() bool {
		return len(src.Queries()) == 1
	}, time.Second, 5*time.Millisecond)
	src.LastQuery().Stream.MarkEOSE()

	require.Eventually(t, func() bool {
		return s.(*service).cooling("A")
	}, time.Second, 5*time.Millisecond)

	s.FetchProfile("A")
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, src.Queries(), 1)
}

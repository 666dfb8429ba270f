package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/diagnostics"
	"github.com/saveblush/reraw-feeds/pgk/source"
)

const (
	authorA = "A"
	authorB = "B"
	authorC = "C"
	wait    = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type clock struct {
	unix atomic.Int64
}

func newClock() *clock {
	k := &clock{}
	k.unix.Store(1_700_000_000)
	return k
}

func (k *clock) Now() time.Time {
	return time.Unix(k.unix.Load(), 0)
}

func (k *clock) Advance(d time.Duration) {
	k.unix.Add(int64(d / time.Second))
}

type fixture struct {
	c     *Controller
	src   *source.Fake
	rec   *diagnostics.Recorder
	clock *clock
}

func testOptions(k *clock) Options {
	return Options{
		Kinds:             []int{21, 22, 30000, 34235, 34236},
		RepostKinds:       []int{6, 16},
		IncludeReposts:    true,
		DefaultLimit:      20,
		GracePeriod:       50 * time.Millisecond,
		ReconnectDelay:    20 * time.Millisecond,
		MaxReconnectDelay: 40 * time.Millisecond,
		RetryInterval:     20 * time.Millisecond,
		RetryAttempts:     3,
		IdleTimeout:       100 * time.Millisecond,
		Now:               k.Now,
	}
}

func newFixture(t *testing.T, configure func(*Options, *Deps)) *fixture {
	t.Helper()

	k := newClock()
	src := source.NewFake()
	rec := diagnostics.NewRecorder()

	opts := testOptions(k)
	deps := Deps{Source: src, Reporter: rec}
	if configure != nil {
		configure(&opts, &deps)
	}

	c := New(opts, deps)
	c.Start(context.Background())
	t.Cleanup(c.Close)

	return &fixture{c: c, src: src, rec: rec, clock: k}
}

func video(id, author string, createdAt nostr.Timestamp, tags ...nostr.Tag) *nostr.Event {
	all := nostr.Tags{{"url", "https://media.example/" + id + ".mp4"}}
	all = append(all, tags...)

	return &nostr.Event{ID: id, PubKey: author, Kind: 22, CreatedAt: createdAt, Tags: all}
}

func ids(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}

	return out
}

func (fx *fixture) items(t *testing.T, feed models.FeedType) []models.Item {
	t.Helper()

	items, err := fx.c.Items(feed)
	require.NoError(t, err)

	return items
}

func (fx *fixture) state(t *testing.T, feed models.FeedType) models.FeedState {
	t.Helper()

	st, err := fx.c.State(feed)
	require.NoError(t, err)

	return st
}

func (fx *fixture) ingest(t *testing.T, feed models.FeedType, historical bool, events ...*nostr.Event) {
	t.Helper()

	for _, evt := range events {
		require.NoError(t, fx.c.Ingest(evt, feed, historical))
	}
}

// push delivers evt on the stream of call, the stream must be open
func push(t *testing.T, call *source.Call, evt *nostr.Event) {
	t.Helper()
	require.True(t, call.Stream.Push(context.Background(), evt), "stream closed")
}

type fakeProfiles struct {
	mu      sync.Mutex
	known   map[string]bool
	fetched []string
	puts    []*nostr.Event
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{known: map[string]bool{}}
}

func (p *fakeProfiles) HasProfile(pubkey string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.known[pubkey]
}

func (p *fakeProfiles) FetchProfile(pubkey string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fetched = append(p.fetched, pubkey)
}

func (p *fakeProfiles) Put(evt *nostr.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.puts = append(p.puts, evt)
	p.known[evt.PubKey] = true

	return true
}

func (p *fakeProfiles) Fetched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.fetched...)
}

type fakeCache struct {
	mu     sync.Mutex
	events []*nostr.Event
	stored map[string]bool
	onRead func()
}

func newFakeCache(events ...*nostr.Event) *fakeCache {
	return &fakeCache{events: events, stored: map[string]bool{}}
}

func (f *fakeCache) CachedEvents(_ context.Context, authors []string, _ []int, _ int) ([]*nostr.Event, error) {
	if f.onRead != nil {
		f.onRead()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*nostr.Event
	for _, evt := range f.events {
		for _, a := range authors {
			if evt.PubKey == a {
				out = append(out, evt)
			}
		}
	}

	return out, nil
}

func (f *fakeCache) Store(_ context.Context, evt *nostr.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stored[evt.ID] = true

	return nil
}

func (f *fakeCache) Stored(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stored[id]
}

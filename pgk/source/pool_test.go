package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveblush/reraw-feeds/models"
)

const poolWait = 5 * time.Second

// relay minimal relay answering every REQ with its stored events then EOSE
func relay(t *testing.T, events ...*nostr.Event) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				return
			}

			var req []json.RawMessage
			if json.Unmarshal(msg, &req) != nil || len(req) < 2 {
				continue
			}
			var typ, subID string
			_ = json.Unmarshal(req[0], &typ)
			_ = json.Unmarshal(req[1], &subID)
			if typ != "REQ" {
				continue
			}

			for _, evt := range events {
				if wsjson.Write(ctx, conn, []interface{}{"EVENT", subID, evt}) != nil {
					return
				}
			}
			if wsjson.Write(ctx, conn, []interface{}{"EOSE", subID}) != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func signed(t *testing.T, sk string, content string, tags ...nostr.Tag) *nostr.Event {
	t.Helper()

	evt := &nostr.Event{
		Kind:      22,
		CreatedAt: nostr.Now(),
		Tags:      nostr.Tags(tags),
		Content:   content,
	}
	require.NoError(t, evt.Sign(sk))

	return evt
}

// drain reads until EOSE, Done or timeout
func drain(t *testing.T, s *Stream) []string {
	t.Helper()

	var got []string
	for {
		select {
		case evt := <-s.Events():
			got = append(got, evt.ID)
		case <-s.EOSE():
			return got
		case <-s.Done():
			return got
		case <-time.After(poolWait):
			t.Fatal("stream stalled")
			return got
		}
	}
}

func waitDone(t *testing.T, s *Stream) {
	t.Helper()

	select {
	case <-s.Done():
	case <-time.After(poolWait):
		t.Fatal("stream not ended")
	}
}

func TestPoolSubscribe(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	shared := signed(t, sk, "shared")
	first := signed(t, sk, "first")
	second := signed(t, sk, "second")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(ctx, []string{relay(t, shared, first), relay(t, shared, second)})
	s, err := p.Subscribe(ctx, nostr.Filters{{Kinds: []int{22}}})
	require.NoError(t, err)

	got := drain(t, s)
	assert.ElementsMatch(t, []string{shared.ID, first.ID, second.ID}, got)

	_, open := <-s.EOSE()
	assert.False(t, open)
	select {
	case <-s.Done():
		t.Fatal("subscription ended after eose")
	default:
	}
	assert.Equal(t, 2, p.ConnectionCount())

	cancel()
	waitDone(t, s)
	assert.NoError(t, s.Err())
}

func TestPoolQuery(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	evt := signed(t, sk, "once")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(ctx, []string{relay(t, evt)})
	s, err := p.Query(ctx, nostr.Filter{Kinds: []int{22}})
	require.NoError(t, err)

	assert.Equal(t, []string{evt.ID}, drain(t, s))
	waitDone(t, s)
	assert.NoError(t, s.Err())
}

func TestPoolMalformed(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	bad := signed(t, sk, "bad", nostr.Tag{})
	good := signed(t, sk, "good")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var rejected []string
	p := NewPool(ctx, []string{relay(t, bad, good)})
	p.OnMalformed(func(evt *nostr.Event, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.ErrorIs(t, err, models.ErrMalformedRecord)
		rejected = append(rejected, evt.ID)
	})

	s, err := p.Query(ctx, nostr.Filter{Kinds: []int{22}})
	require.NoError(t, err)

	assert.Equal(t, []string{good.ID}, drain(t, s))
	waitDone(t, s)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{bad.ID}, rejected)
}

func TestPoolNoRelays(t *testing.T) {
	p := NewPool(context.Background(), nil)

	_, err := p.Subscribe(context.Background(), nostr.Filters{{Kinds: []int{22}}})
	assert.True(t, errors.Is(err, models.ErrNotInitialized))

	_, err = p.Query(context.Background(), nostr.Filter{Kinds: []int{22}})
	assert.True(t, errors.Is(err, models.ErrNotInitialized))
}

func TestPoolOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(ctx, []string{url})
	s, err := p.Subscribe(ctx, nostr.Filters{{Kinds: []int{22}}})
	require.NoError(t, err)

	waitDone(t, s)
	_, open := <-s.EOSE()
	assert.False(t, open)
	assert.ErrorIs(t, s.Err(), models.ErrOffline)
	assert.Equal(t, 0, p.ConnectionCount())
}

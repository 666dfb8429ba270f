package profiles

import (
	"context"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/saveblush/reraw-feeds/core/config"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/source"
)

// Cache profile cache interface
type Cache interface {
	HasProfile(pubkey string) bool
	Profile(pubkey string) (*nostr.Event, bool)
	// FetchProfile fire-and-forget, failures are logged
	FetchProfile(pubkey string)
	// Put keeps the newest kind 0 per pubkey, false when evt was not newer
	Put(evt *nostr.Event) bool
}

type service struct {
	ctx      context.Context
	cf       config.ProfileConfig
	source   source.Source
	limiter  *rate.Limiter
	group    singleflight.Group
	mu       sync.RWMutex
	profiles map[string]*nostr.Event
	cooldown map[string]time.Time
}

// NewService ctx bounds every background fetch
func NewService(ctx context.Context, cf config.ProfileConfig, src source.Source) Cache {
	if cf.RatePerSec <= 0 {
		cf.RatePerSec = 10
	}
	if cf.Burst <= 0 {
		cf.Burst = 20
	}
	if cf.FetchTimeout <= 0 {
		cf.FetchTimeout = 5 * time.Second
	}

	return &service{
		ctx:      ctx,
		cf:       cf,
		source:   src,
		limiter:  rate.NewLimiter(rate.Limit(cf.RatePerSec), cf.Burst),
		profiles: map[string]*nostr.Event{},
		cooldown: map[string]time.Time{},
	}
}

func (s *service) HasProfile(pubkey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.profiles[pubkey]
	return ok
}

func (s *service) Profile(pubkey string) (*nostr.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evt, ok := s.profiles[pubkey]
	return evt, ok
}

func (s *service) Put(evt *nostr.Event) bool {
	if evt == nil || evt.Kind != models.KindProfile {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.profiles[evt.PubKey]; ok && prev.CreatedAt >= evt.CreatedAt {
		return false
	}
	s.profiles[evt.PubKey] = evt

	return true
}

func (s *service) FetchProfile(pubkey string) {
	if s.source == nil || pubkey == "" || s.HasProfile(pubkey) || s.cooling(pubkey) {
		return
	}

	go func() {
		_, err, _ := s.group.Do(pubkey, func() (interface{}, error) {
			return nil, s.fetch(pubkey)
		})
		if err != nil {
			logger.Log.Debugf("fetch profile %s error: %s", pubkey, err)
		}
	}()
}

func (s *service) cooling(pubkey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.cooldown[pubkey]
	return ok && time.Now().Before(until)
}

func (s *service) fetch(pubkey string) error {
	if !s.limiter.Allow() {
		return nil
	}

	s.mu.Lock()
	s.cooldown[pubkey] = time.Now().Add(s.cf.Cooldown)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.cf.FetchTimeout)
	defer cancel()

	stream, err := s.source.Query(ctx, nostr.Filter{
		Kinds:   []int{models.KindProfile},
		Authors: []string{pubkey},
		Limit:   1,
	})
	if err != nil {
		return err
	}

	for {
		select {
		case evt := <-stream.Events():
			if evt.PubKey == pubkey {
				s.Put(evt)
			}
		case <-stream.EOSE():
			return nil
		case <-stream.Done():
			return stream.Err()
		case <-ctx.Done():
			return nil
		}
	}
}

package policies

import (
	"sync"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/config"
	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/pgk/eventstore"
)

// Service service interface
type Service interface {
	ShouldFilter(pubkey string) bool
	ShouldFilterAdult(evt *nostr.Event) bool
	Reload(c *cctx.Context) error
	Apply(cf config.PolicyConfig)
	StoreBlacklistWithContent(c *cctx.Context, evt *nostr.Event) error
}

type service struct {
	mu         sync.RWMutex
	hideAdult  bool
	configured generic.Set
	stored     generic.Set
	eventstore eventstore.Service
}

// NewService store may be nil, then only configured pubkeys are blocked
func NewService(cf config.PolicyConfig, store eventstore.Service) Service {
	s := &service{
		stored:     generic.NewSet(),
		eventstore: store,
	}
	s.Apply(cf)

	return s
}

// Apply replaces the configured part, called again on config reload
func (s *service) Apply(cf config.PolicyConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hideAdult = cf.HideAdult
	s.configured = generic.NewSet(cf.Blocked...)
}

// ShouldFilter pubkey is blocked
func (s *service) ShouldFilter(pubkey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.configured.Has(pubkey) || s.stored.Has(pubkey)
}

// Reload refresh stored blacklist
func (s *service) Reload(c *cctx.Context) error {
	if s.eventstore == nil {
		return nil
	}

	pubkeys, err := s.eventstore.FindPubkeyBlacklists(c)
	if err != nil {
		logger.Log.Errorf("reload blacklist error: %s", err)
		return err
	}

	s.mu.Lock()
	s.stored = generic.NewSet(pubkeys...)
	s.mu.Unlock()

	return nil
}

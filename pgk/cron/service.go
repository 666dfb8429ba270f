package cron

import (
	"github.com/robfig/cron/v3"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
)

// Service service interface
type Service interface {
	Start()
	Stop()
}

// Sweeper drops expired items from the in-memory feeds
type Sweeper interface {
	SweepExpired() error
}

// Cleaner housekeeping of the event cache
type Cleaner interface {
	ClearEventsExpiration(c *cctx.Context) error
	ClearEventsWithBlacklist(c *cctx.Context) error
}

// Reloader refreshes the stored blacklist
type Reloader interface {
	Reload(c *cctx.Context) error
}

type service struct {
	cctx     *cctx.Context
	cron     *cron.Cron
	feeds    Sweeper
	store    Cleaner
	policies Reloader
}

// NewService store and policies may be nil when the cache database is disabled
func NewService(feeds Sweeper, store Cleaner, policies Reloader) Service {
	s := &service{
		cctx:     cctx.New(),
		cron:     cron.New(),
		feeds:    feeds,
		store:    store,
		policies: policies,
	}
	s.schedule()

	return s
}

func (s *service) Start() {
	logger.Log.Info("Cron init...")
	s.cron.Start()
}

func (s *service) Stop() {
	<-s.cron.Stop().Done()
}

func (s *service) schedule() {
	// รันทุก 1 นาที
	s.cron.AddFunc("* * * * *", s.sweep)

	if s.store != nil {
		// รันทุก 5 นาที
		s.cron.AddFunc("*/5 * * * *", s.clearExpired)
	}

	// รันทุก 30 นาที
	s.cron.AddFunc("*/30 * * * *", s.clearBlacklisted)
}

func (s *service) sweep() {
	if s.feeds == nil {
		return
	}
	if err := s.feeds.SweepExpired(); err != nil {
		logger.Log.Errorf("sweep expired items error: %s", err)
	}
}

func (s *service) clearExpired() {
	if err := s.store.ClearEventsExpiration(s.cctx); err != nil {
		logger.Log.Warnf("clear expired events error: %s", err)
	}
}

// clearBlacklisted reloads the blacklist first so the purge sees new entries
func (s *service) clearBlacklisted() {
	if s.policies != nil {
		if err := s.policies.Reload(s.cctx); err != nil {
			logger.Log.Warnf("reload blacklist error: %s", err)
		}
	}

	if s.store != nil {
		if err := s.store.ClearEventsWithBlacklist(s.cctx); err != nil {
			logger.Log.Warnf("clear blacklisted events error: %s", err)
		}
	}
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/saveblush/reraw-feeds/core/config"
	"github.com/saveblush/reraw-feeds/core/utils"
	"github.com/saveblush/reraw-feeds/core/utils/limiter"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
)

const (
	defaultPingInterval = 30 * time.Second
	requestTimeout      = 30 * time.Second
)

// Feeds what the http surface needs from the feed controller
type Feeds interface {
	Subscribe(ctx context.Context, t models.FeedType, p models.FilterParams) error
	Cancel(t models.FeedType) error
	Reset(t models.FeedType) error
	Retry(ctx context.Context, t models.FeedType) error
	LoadMore(ctx context.Context, t models.FeedType, limit int) error
	Items(t models.FeedType) ([]models.Item, error)
	State(t models.FeedType) (models.FeedState, error)
	Delete(id string) error
	SetHashtagFilter(t models.FeedType, tags []string) error
	SetGroupFilter(t models.FeedType, group string) error
	Observe(fn func()) (cancel func())
}

type Server struct {
	ctx     context.Context
	feeds   Feeds
	limiter *limiter.KeyedLimiter

	PingInterval time.Duration
}

// NewServer new server
func NewServer(ctx context.Context, feeds Feeds, cf config.ServerConfig) *Server {
	r := rate.Inf
	if cf.RatePerSec > 0 {
		r = rate.Limit(cf.RatePerSec)
	}

	s := &Server{
		ctx:          ctx,
		feeds:        feeds,
		limiter:      limiter.NewKeyedLimiter(r, cf.Burst, cf.MaxClients),
		PingInterval: cf.PingInterval,
	}
	if s.PingInterval <= 0 {
		s.PingInterval = defaultPingInterval
	}

	return s
}

func (s *Server) Serve() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.limit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/feeds/{type}", func(r chi.Router) {
			r.Get("/", s.handleItems)
			r.Get("/state", s.handleState)
			r.Post("/subscribe", s.handleSubscribe)
			r.Post("/cancel", s.handleCancel)
			r.Post("/reset", s.handleReset)
			r.Post("/retry", s.handleRetry)
			r.Post("/more", s.handleLoadMore)
			r.Put("/filters", s.handleFilters)
		})
		r.Delete("/items/{id}", s.handleDelete)
	})

	// long lived, no request timeout
	r.Get("/ws", s.handleWebsocket)

	return r
}

// limit per client ip token bucket
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := utils.GetIP(r)
		if !s.limiter.Allow(ip) {
			logger.Log.Debugf("[rate limited] %s", ip)
			responseError(w, http.StatusTooManyRequests, errRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

package feed

import (
	"time"

	"github.com/saveblush/reraw-feeds/pgk/ranking"
)

// Options controller tuning. Field names follow config.FeedConfig.
type Options struct {
	Kinds             []int
	RepostKinds       []int
	IncludeReposts    bool
	DefaultLimit      int
	GracePeriod       time.Duration
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	RetryInterval     time.Duration
	RetryAttempts     int
	IdleTimeout       time.Duration
	Gravity           float64

	// Now clock used by ranking and expiration
	Now func() time.Time `copier:"-"`
}

func (o Options) withDefaults() Options {
	if len(o.Kinds) == 0 {
		o.Kinds = []int{21, 22, 34235, 34236}
	}
	if len(o.RepostKinds) == 0 {
		o.RepostKinds = []int{6, 16}
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 50
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 5 * time.Second
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = 2 * time.Second
	}
	if o.MaxReconnectDelay <= 0 {
		o.MaxReconnectDelay = 30 * time.Second
	}
	if o.MaxReconnectDelay < o.ReconnectDelay {
		o.MaxReconnectDelay = o.ReconnectDelay
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 5 * time.Second
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 2 * time.Second
	}
	if o.Gravity <= 0 {
		o.Gravity = ranking.DefaultGravity
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	return o
}

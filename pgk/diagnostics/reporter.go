// Package diagnostics best-effort telemetry of feed health, never on the hot path.
package diagnostics

import (
	"github.com/bytedance/sonic"
	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
)

// Reporter reporter interface
type Reporter interface {
	EmptyFeedAfterBacklog(feed models.FeedType, filters nostr.Filters, connections int)
	SubscriptionTimeout(feed models.FeedType, queryID string, filter nostr.Filter, connections int)
	ConnectionFailure(feed models.FeedType, err error, attempt int)
	AmbiguousReplaceable(feed models.FeedType, evt *nostr.Event)
	MalformedRecord(feed models.FeedType, err error)
	Duplicates(feed models.FeedType, count int64)
}

type reporter struct{}

// NewReporter zap backed reporter
func NewReporter() Reporter {
	return &reporter{}
}

// Snapshot filters serialized for the log line
func Snapshot(v any) string {
	b, err := sonic.MarshalString(v)
	if err != nil {
		return ""
	}

	return b
}

func (r *reporter) EmptyFeedAfterBacklog(feed models.FeedType, filters nostr.Filters, connections int) {
	logger.Log.Warnw("empty feed after backlog",
		"feed", feed,
		"filters", Snapshot(filters),
		"connections", connections,
	)
}

func (r *reporter) SubscriptionTimeout(feed models.FeedType, queryID string, filter nostr.Filter, connections int) {
	logger.Log.Infow("query idle timeout",
		"feed", feed,
		"query", queryID,
		"filter", Snapshot(filter),
		"connections", connections,
	)
}

func (r *reporter) ConnectionFailure(feed models.FeedType, err error, attempt int) {
	logger.Log.Warnw("subscription connection failure",
		"feed", feed,
		"attempt", attempt,
		"error", err,
	)
}

func (r *reporter) AmbiguousReplaceable(feed models.FeedType, evt *nostr.Event) {
	logger.Log.Debugw("parameterized replaceable without d tag",
		"feed", feed,
		"id", evt.ID,
		"kind", evt.Kind,
	)
}

func (r *reporter) MalformedRecord(feed models.FeedType, err error) {
	logger.Log.Debugw("malformed record dropped",
		"feed", feed,
		"error", err,
	)
}

func (r *reporter) Duplicates(feed models.FeedType, count int64) {
	logger.Log.Debugw("duplicates coalesced",
		"feed", feed,
		"count", count,
	)
}

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/utils"
)

// FilterParams feed-level intent
type FilterParams struct {
	Authors        []string         `json:"authors,omitempty"`
	Hashtags       []string         `json:"hashtags,omitempty"`
	Group          string           `json:"group,omitempty"`
	Since          *nostr.Timestamp `json:"since,omitempty"`
	Until          *nostr.Timestamp `json:"until,omitempty"`
	Limit          int              `json:"limit,omitempty"`
	IncludeReposts bool             `json:"include_reposts,omitempty"`
	Search         string           `json:"search,omitempty"`

	// Force re-subscribes even when the identity is unchanged
	Force bool `json:"-"`
}

// Normalized sorted, deduplicated authors and hashtags
func (p FilterParams) Normalized() FilterParams {
	out := p
	out.Authors = utils.SortedCopy(p.Authors)

	tags := make([]string, 0, len(p.Hashtags))
	for _, t := range p.Hashtags {
		tags = append(tags, NormalizeHashtag(t))
	}
	out.Hashtags = utils.SortedCopy(tags)
	out.Search = strings.TrimSpace(p.Search)

	return out
}

// SubscriptionIdentity equal identities share one upstream subscription
type SubscriptionIdentity string

// NewSubscriptionIdentity derive identity from feed and params
func NewSubscriptionIdentity(feed FeedType, p FilterParams) SubscriptionIdentity {
	n := p.Normalized()

	var b strings.Builder
	b.WriteString(string(feed))
	b.WriteString("|a=")
	b.WriteString(strings.Join(n.Authors, ","))
	b.WriteString("|t=")
	b.WriteString(strings.Join(n.Hashtags, ","))
	b.WriteString("|g=")
	b.WriteString(n.Group)
	b.WriteString("|s=")
	b.WriteString(timestampKey(n.Since))
	b.WriteString("|u=")
	b.WriteString(timestampKey(n.Until))
	b.WriteString("|l=")
	b.WriteString(strconv.Itoa(n.Limit))
	b.WriteString("|r=")
	b.WriteString(strconv.FormatBool(n.IncludeReposts))
	b.WriteString("|q=")
	b.WriteString(n.Search)

	return SubscriptionIdentity(b.String())
}

// ID short stable upstream subscription id
func (s SubscriptionIdentity) ID() string {
	if s == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(s))
	feed, _, _ := strings.Cut(string(s), "|")

	return feed + "-" + hex.EncodeToString(sum[:])[:16]
}

func timestampKey(ts *nostr.Timestamp) string {
	if ts == nil {
		return ""
	}

	return strconv.FormatInt(int64(*ts), 10)
}

package models

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

var videoExtensions = []string{".mp4", ".webm", ".mov", ".m3u8", ".m4v", ".gif"}

var reURL = regexp.MustCompile(`https?://[^\s"'<>]+`)

// MediaURL primary media reference, empty when none is resolvable
func MediaURL(evt *nostr.Event) string {
	if v, ok := TagValue(evt.Tags, "url"); ok && isHTTP(v) {
		return v
	}

	for _, tag := range evt.Tags {
		if len(tag) < 2 || tag[0] != "imeta" {
			continue
		}
		for _, entry := range tag[1:] {
			if v, ok := strings.CutPrefix(entry, "url "); ok && isHTTP(v) {
				return strings.TrimSpace(v)
			}
		}
	}

	for _, v := range TagValues(evt.Tags, "r") {
		if isVideoURL(v) {
			return v
		}
	}

	for _, v := range reURL.FindAllString(evt.Content, -1) {
		if isVideoURL(v) {
			return v
		}
	}

	return ""
}

// EngagementOf counters from loops/views/comments/likes/reposts tags
func EngagementOf(evt *nostr.Event) Engagement {
	return Engagement{
		Loops:    tagInt(evt.Tags, "loops"),
		Views:    tagInt(evt.Tags, "views"),
		Comments: tagInt(evt.Tags, "comments"),
		Likes:    tagInt(evt.Tags, "likes"),
		Reposts:  tagInt(evt.Tags, "reposts"),
	}
}

// IsClassic classic content is pinned on discovery
func IsClassic(evt *nostr.Event) bool {
	if HasTag(evt.Tags, "classic") {
		return true
	}
	if v, ok := TagValue(evt.Tags, "platform"); ok && strings.EqualFold(v, "vine") {
		return true
	}
	for _, t := range Hashtags(evt.Tags) {
		if t == "classic" {
			return true
		}
	}

	return false
}

func tagInt(tags nostr.Tags, key string) int64 {
	v, ok := TagValue(tags, key)
	if !ok {
		return 0
	}

	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0
	}

	return n
}

func isHTTP(v string) bool {
	return strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://")
}

func isVideoURL(v string) bool {
	if !isHTTP(v) {
		return false
	}

	lower := strings.ToLower(v)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

package policies

import (
	"strings"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
)

var adultHashtags = []string{"nsfw", "nude", "nudity", "porn", "xxx", "adult"}

var botCharacters = []string{
	"ReplyGuy",
	"ReplyGirl",
}

// ShouldFilterAdult hide when configured and the record is marked adult
func (s *service) ShouldFilterAdult(evt *nostr.Event) bool {
	s.mu.RLock()
	hide := s.hideAdult
	s.mu.RUnlock()

	return hide && IsAdult(evt)
}

// IsAdult content-warning, nsfw labels or adult hashtags (NIP-36, NIP-32)
func IsAdult(evt *nostr.Event) bool {
	if models.HasTag(evt.Tags, "content-warning") {
		return true
	}

	for _, l := range models.TagValues(evt.Tags, "l") {
		if strings.EqualFold(l, "nsfw") {
			return true
		}
	}

	for _, t := range models.Hashtags(evt.Tags) {
		for _, a := range adultHashtags {
			if t == a {
				return true
			}
		}
	}

	return false
}

// StoreBlacklistWithContent blacklist authors of known bot content
func (s *service) StoreBlacklistWithContent(c *cctx.Context, evt *nostr.Event) error {
	for _, character := range botCharacters {
		if !strings.Contains(evt.Content, character) {
			continue
		}

		s.mu.Lock()
		s.stored.Add(evt.PubKey)
		s.mu.Unlock()

		if s.eventstore == nil {
			return nil
		}

		err := s.eventstore.InsertBlacklist(c, &models.Blacklist{Pubkey: evt.PubKey})
		if err != nil {
			logger.Log.Errorf("keep bot error: %s", err)
			return err
		}

		return nil
	}

	return nil
}

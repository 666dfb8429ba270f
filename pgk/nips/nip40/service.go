package nip40

import (
	"errors"
	"strconv"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/models"
)

var ErrInvalidExpiration = errors.New("invalid: expiration")

// Service service interface
type Service interface {
	Expiration(evt *nostr.Event) (nostr.Timestamp, error)
	Expired(evt *nostr.Event, now nostr.Timestamp) bool
}

type service struct{}

func NewService() Service {
	return &service{}
}

// Expiration value of the expiration tag, 0 when absent
func (s *service) Expiration(evt *nostr.Event) (nostr.Timestamp, error) {
	value, ok := models.TagValue(evt.Tags, "expiration")
	if !ok {
		return 0, nil
	}

	expiration, err := strconv.ParseInt(value, 10, 64)
	if err != nil || expiration < 100 {
		return 0, ErrInvalidExpiration
	}

	return nostr.Timestamp(expiration), nil
}

// Expired expired at now, an invalid tag is ignored
func (s *service) Expired(evt *nostr.Event, now nostr.Timestamp) bool {
	expiration, err := s.Expiration(evt)
	if err != nil || expiration == 0 {
		return false
	}

	return now >= expiration
}

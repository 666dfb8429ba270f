package nip09

import (
	"errors"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/eventstore"
)

var (
	ErrNotDeletion   = errors.New("invalid: not a deletion event")
	ErrMissingPubkey = errors.New("invalid: missing 'pubkey' on deletion event")
)

// Deletion targets of a deletion request
type Deletion struct {
	Author    string
	CreatedAt nostr.Timestamp
	IDs       generic.Set
	Addresses generic.Set
}

// Matches evt is covered by the request. Only the author's own records qualify,
// and an address only removes versions not newer than the request.
func (d *Deletion) Matches(evt *nostr.Event) bool {
	if evt == nil || evt.PubKey != d.Author {
		return false
	}

	if d.IDs.Has(evt.ID) {
		return true
	}

	if a := models.AddressOf(evt); a != "" && d.Addresses.Has(a) {
		return evt.CreatedAt <= d.CreatedAt
	}

	return false
}

// Service service interface
type Service interface {
	Parse(evt *nostr.Event) (*Deletion, error)
	CancelEvent(c *cctx.Context, evt *nostr.Event) (*Deletion, error)
}

type service struct {
	eventstore eventstore.Service
}

// NewService store may be nil when no event cache is configured
func NewService(store eventstore.Service) Service {
	return &service{
		eventstore: store,
	}
}

// Parse reads "e" ids and "a" addresses, addresses of other authors are ignored
func (s *service) Parse(evt *nostr.Event) (*Deletion, error) {
	if evt == nil || evt.Kind != models.KindDeletion {
		return nil, ErrNotDeletion
	}

	if evt.PubKey == "" {
		return nil, ErrMissingPubkey
	}

	d := &Deletion{
		Author:    evt.PubKey,
		CreatedAt: evt.CreatedAt,
		IDs:       generic.NewSet(models.TagValues(evt.Tags, "e")...),
		Addresses: generic.NewSet(),
	}

	for _, a := range models.TagValues(evt.Tags, "a") {
		_, pubkey, _, ok := models.ParseAddress(a)
		if ok && pubkey == evt.PubKey {
			d.Addresses.Add(a)
		}
	}

	return d, nil
}

// CancelEvent parse and drop matching rows from the event cache
func (s *service) CancelEvent(c *cctx.Context, evt *nostr.Event) (*Deletion, error) {
	d, err := s.Parse(evt)
	if err != nil {
		return nil, err
	}

	if s.eventstore == nil {
		return d, nil
	}

	ids := make([]string, 0, len(d.IDs))
	for id := range d.IDs {
		ids = append(ids, id)
	}

	if err := s.eventstore.DeleteEvents(c, d.Author, ids); err != nil {
		logger.Log.Errorf("delete cached events error: %s", err)
		return d, err
	}

	for a := range d.Addresses {
		if err := s.eventstore.DeleteAddress(c, a, d.CreatedAt); err != nil {
			logger.Log.Errorf("delete cached address error: %s", err)
			return d, err
		}
	}

	return d, nil
}

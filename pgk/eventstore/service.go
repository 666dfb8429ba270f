package eventstore

import (
	"context"
	"errors"

	"github.com/nbd-wtf/go-nostr"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/core/utils"
	"github.com/saveblush/reraw-feeds/core/utils/logger"
	"github.com/saveblush/reraw-feeds/models"
	"github.com/saveblush/reraw-feeds/pgk/nips/nip40"
)

var ErrDatabaseNotReady = errors.New("error: cache database not connected")

// Service service interface
type Service interface {
	CachedEvents(ctx context.Context, authors []string, kinds []int, limit int) ([]*nostr.Event, error)
	Store(ctx context.Context, evt *nostr.Event) error
	DeleteEvents(c *cctx.Context, pubkey string, ids []string) error
	DeleteAddress(c *cctx.Context, address string, until nostr.Timestamp) error
	InsertBlacklist(c *cctx.Context, req *models.Blacklist) error
	FindPubkeyBlacklists(c *cctx.Context) ([]string, error)
	ClearEventsExpiration(c *cctx.Context) error
	ClearEventsWithBlacklist(c *cctx.Context) error
}

type service struct {
	repository Repository
	nip40      nip40.Service
}

func NewService() Service {
	return &service{
		repository: NewRepository(),
		nip40:      nip40.NewService(),
	}
}

// CachedEvents newest cached events of authors, expired rows excluded
func (s *service) CachedEvents(ctx context.Context, authors []string, kinds []int, limit int) ([]*nostr.Event, error) {
	db := cctx.From(ctx).GetDatabase()
	if db == nil {
		return nil, ErrDatabaseNotReady
	}

	fetch, err := s.repository.FindAll(db, &Request{
		Authors: authors,
		Kinds:   kinds,
		Limit:   limit,
		Now:     utils.Timestamp(utils.Now()),
	})
	if err != nil {
		return nil, err
	}

	res := make([]*nostr.Event, 0, len(fetch))
	for _, v := range fetch {
		res = append(res, v.Event())
	}

	return res, nil
}

// Store keeps evt, older versions of a replaceable record are dropped first
func (s *service) Store(ctx context.Context, evt *nostr.Event) error {
	db := cctx.From(ctx).GetDatabase()
	if db == nil {
		return ErrDatabaseNotReady
	}

	if models.IsEphemeralKind(evt.Kind) {
		return nil
	}

	expiration, _ := s.nip40.Expiration(evt)
	row := models.NewCachedEvent(evt, expiration, utils.Timestamp(utils.Now()))

	if models.AddressOf(evt) != "" {
		if err := s.repository.DeleteOlderVersions(db, row); err != nil {
			logger.Log.Errorf("delete older versions error: %s", err)
			return err
		}
	}

	return s.repository.Insert(db, row)
}

// DeleteEvents removes cached events of pubkey by id
func (s *service) DeleteEvents(c *cctx.Context, pubkey string, ids []string) error {
	db := c.GetDatabase()
	if db == nil {
		return ErrDatabaseNotReady
	}

	return s.repository.DeleteByIDs(db, pubkey, ids)
}

// DeleteAddress removes cached versions of address created up to until
func (s *service) DeleteAddress(c *cctx.Context, address string, until nostr.Timestamp) error {
	db := c.GetDatabase()
	if db == nil {
		return ErrDatabaseNotReady
	}

	kind, pubkey, d, ok := models.ParseAddress(address)
	if !ok {
		return nil
	}

	return s.repository.DeleteByAddress(db, kind, pubkey, d, until)
}

func (s *service) InsertBlacklist(c *cctx.Context, req *models.Blacklist) error {
	db := c.GetDatabase()
	if db == nil {
		return ErrDatabaseNotReady
	}

	return s.repository.InsertBlacklist(db, req)
}

func (s *service) FindPubkeyBlacklists(c *cctx.Context) ([]string, error) {
	db := c.GetDatabase()
	if db == nil {
		return nil, ErrDatabaseNotReady
	}

	fetch, err := s.repository.FindBlacklists(db, &models.Blacklist{})
	if err != nil {
		logger.Log.Errorf("find blacklist error: %s", err)
		return nil, err
	}

	res := []string{}
	for _, v := range fetch {
		res = append(res, v.Pubkey)
	}

	return res, nil
}

func (s *service) ClearEventsExpiration(c *cctx.Context) error {
	db := c.GetDatabase()
	if db == nil {
		return ErrDatabaseNotReady
	}

	n, err := s.repository.DeleteEventsExpiration(db, utils.Timestamp(utils.Now()))
	if err != nil {
		logger.Log.Errorf("clear expired events error: %s", err)
		return err
	}
	if n > 0 {
		logger.Log.Infof("cleared %d expired cached events", n)
	}

	return nil
}

func (s *service) ClearEventsWithBlacklist(c *cctx.Context) error {
	blacklists, err := s.FindPubkeyBlacklists(c)
	if err != nil {
		return err
	}

	if generic.IsEmpty(blacklists) {
		return nil
	}

	err = s.repository.DeleteByAuthors(c.GetDatabase(), blacklists)
	if err != nil {
		logger.Log.Errorf("delete event with blacklist error: %s", err)
		return err
	}

	return nil
}

package models

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nbd-wtf/go-nostr"
	"gorm.io/gorm"
)

// Tags jsonb column
type Tags nostr.Tags

// Scan scan value into Jsonb, implements sql.Scanner interface
func (t *Tags) Scan(v interface{}) error {
	var bytes []byte
	switch b := v.(type) {
	case []byte:
		bytes = b
	case string:
		bytes = []byte(b)
	default:
		return errors.New(fmt.Sprint("failed to unmarshal Jsonb value:", v))
	}

	return json.Unmarshal(bytes, t)
}

// Value implements driver.Valuer
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}

	b, err := json.Marshal(nostr.Tags(t))
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// CachedEvent row of the local event cache
type CachedEvent struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(64)"`
	CreatedAt  nostr.Timestamp `json:"created_at" gorm:"type:integer"`
	Pubkey     string          `json:"pubkey" gorm:"type:varchar(64)"`
	Kind       int             `json:"kind" gorm:"type:integer"`
	DTag       string          `json:"-" gorm:"column:d_tag"`
	Tags       Tags            `json:"tags" gorm:"type:jsonb"`
	Content    string          `json:"content"`
	Sig        string          `json:"sig"`
	Expiration nostr.Timestamp `json:"-" gorm:"type:integer"`
	StoredAt   nostr.Timestamp `json:"-" gorm:"type:integer"`
}

func (CachedEvent) TableName() string {
	return "cached_events"
}

// NewCachedEvent row from event
func NewCachedEvent(evt *nostr.Event, expiration, storedAt nostr.Timestamp) *CachedEvent {
	d, _ := FindD(evt.Tags)

	return &CachedEvent{
		ID:         evt.ID,
		CreatedAt:  evt.CreatedAt,
		Pubkey:     evt.PubKey,
		Kind:       evt.Kind,
		DTag:       d,
		Tags:       Tags(evt.Tags),
		Content:    evt.Content,
		Sig:        evt.Sig,
		Expiration: expiration,
		StoredAt:   storedAt,
	}
}

// Event back to a nostr event
func (c *CachedEvent) Event() *nostr.Event {
	return &nostr.Event{
		ID:        c.ID,
		PubKey:    c.Pubkey,
		CreatedAt: c.CreatedAt,
		Kind:      c.Kind,
		Tags:      nostr.Tags(c.Tags),
		Content:   c.Content,
		Sig:       c.Sig,
	}
}

type Blacklist struct {
	gorm.Model
	Pubkey string `json:"pubkey" gorm:"type:varchar(64);uniqueIndex"`
}

func (Blacklist) TableName() string {
	return "blacklists"
}

package models

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nbd-wtf/go-nostr"
)

type wireEvent struct {
	ID        *string     `json:"id"`
	PubKey    *string     `json:"pubkey"`
	CreatedAt *int64      `json:"created_at"`
	Kind      *int        `json:"kind"`
	Tags      *[][]string `json:"tags"`
	Content   *string     `json:"content"`
	Sig       string      `json:"sig"`
}

// DecodeEvent strict decode, every failure wraps ErrMalformedRecord
func DecodeEvent(raw []byte) (*nostr.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedRecord, err)
	}

	switch {
	case w.ID == nil:
		return nil, fmt.Errorf("%w: missing id", ErrMalformedRecord)
	case w.PubKey == nil:
		return nil, fmt.Errorf("%w: missing pubkey", ErrMalformedRecord)
	case w.CreatedAt == nil:
		return nil, fmt.Errorf("%w: missing created_at", ErrMalformedRecord)
	case w.Kind == nil:
		return nil, fmt.Errorf("%w: missing kind", ErrMalformedRecord)
	case w.Content == nil:
		return nil, fmt.Errorf("%w: missing content", ErrMalformedRecord)
	}

	evt := &nostr.Event{
		ID:        *w.ID,
		PubKey:    *w.PubKey,
		CreatedAt: nostr.Timestamp(*w.CreatedAt),
		Kind:      *w.Kind,
		Content:   *w.Content,
		Sig:       w.Sig,
		Tags:      nostr.Tags{},
	}
	if w.Tags != nil {
		for _, t := range *w.Tags {
			evt.Tags = append(evt.Tags, nostr.Tag(t))
		}
	}

	if err := ValidateEvent(evt); err != nil {
		return nil, err
	}

	return evt, nil
}

// ValidateEvent shape check, signatures are verified upstream
func ValidateEvent(evt *nostr.Event) error {
	if evt == nil {
		return fmt.Errorf("%w: nil event", ErrMalformedRecord)
	}
	if !isHex64(evt.ID) {
		return fmt.Errorf("%w: bad id %q", ErrMalformedRecord, evt.ID)
	}
	if !isHex64(evt.PubKey) {
		return fmt.Errorf("%w: bad pubkey %q", ErrMalformedRecord, evt.PubKey)
	}
	if evt.CreatedAt <= 0 || evt.CreatedAt > MaxUint32 {
		return fmt.Errorf("%w: bad created_at %d", ErrMalformedRecord, evt.CreatedAt)
	}
	if evt.Kind < 0 || evt.Kind > MaxUint16 {
		return fmt.Errorf("%w: bad kind %d", ErrMalformedRecord, evt.Kind)
	}
	for i, tag := range evt.Tags {
		if len(tag) == 0 {
			return fmt.Errorf("%w: empty tag at %d", ErrMalformedRecord, i)
		}
	}

	return nil
}

func isHex64(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}

	return true
}

package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hexA = strings.Repeat("a", 64)
	hexB = strings.Repeat("b", 64)
)

func TestDecodeEvent(t *testing.T) {
	raw := `{"id":"` + hexA + `","pubkey":"` + hexB + `","created_at":1740805537,"kind":34236,` +
		`"tags":[["d","clip"],["url","https://cdn.example/v.mp4"]],"content":"hi","sig":"00"}`

	evt, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, hexA, evt.ID)
	assert.Equal(t, 34236, evt.Kind)
	d, ok := FindD(evt.Tags)
	assert.True(t, ok)
	assert.Equal(t, "clip", d)
}

func TestDecodeEventMalformed(t *testing.T) {
	raws := []string{
		`not json`,
		`{"pubkey":"` + hexB + `","created_at":1,"kind":1,"tags":[],"content":""}`,
		`{"id":"xyz","pubkey":"` + hexB + `","created_at":1,"kind":1,"tags":[],"content":""}`,
		`{"id":"` + hexA + `","pubkey":"` + hexB + `","created_at":1,"kind":70000,"tags":[],"content":""}`,
		`{"id":"` + hexA + `","pubkey":"` + hexB + `","created_at":1,"kind":1,"tags":[[]],"content":""}`,
		`{"id":"` + hexA + `","pubkey":"` + hexB + `","created_at":1,"kind":1,"tags":[]}`,
		`{"id":"` + hexA + `","pubkey":"` + hexB + `","created_at":"1","kind":1,"tags":[],"content":""}`,
	}

	for _, raw := range raws {
		_, err := DecodeEvent([]byte(raw))
		assert.True(t, errors.Is(err, ErrMalformedRecord), raw)
	}
}

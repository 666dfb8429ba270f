package policies

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveblush/reraw-feeds/core/cctx"
	"github.com/saveblush/reraw-feeds/core/config"
	"github.com/saveblush/reraw-feeds/models"
)

func TestShouldFilterAdult(t *testing.T) {
	rawEvents := []string{
		`
			{
				"id": "266f5bc338392bd5404d8f5553ac653d61d0217ad345f711a9b9d60c4d692015",
				"pubkey": "f1e6db4c8ffad88a44f763946fec9885d794a49343ae4823c4a000706a3697e7",
				"created_at": 1740805537,
				"kind": 22,
				"tags": [["content-warning", "nudity"]],
				"content": "clip",
				"sig": "712c89a2feeb2d6e93c746fc7fa42ce1b7c502509ffd8e3b650ff2fde4680f9e69fab3ad10c9843260752ecf5402c0bf45f8464ae9d552a5a53bd6f41c8bcaa6"
			}
		`,
		`
			{
				"id": "2f0d220509502d12ae68c019b8e12bd35b46eabf0d5c14ac77e0169bf1bde65f",
				"pubkey": "f1e6db4c8ffad88a44f763946fec9885d794a49343ae4823c4a000706a3697e7",
				"created_at": 1740805537,
				"kind": 22,
				"tags": [["L", "content-warning"], ["l", "NSFW", "content-warning"]],
				"content": "clip",
				"sig": "9770943d37d7cb24e0e030065ba9431f521c0dc402c1793c52439fb867d7c1bb82b0db245f7694685fd0b1b89e62e83fd0b39c2cda8bd6282f4a1af83d6cc04e"
			}
		`,
		`
			{
				"id": "97bf8e1c465fd5207da097b19554cb51c6eaa2fb15b8a51b356e6852e11a1710",
				"pubkey": "f1e6db4c8ffad88a44f763946fec9885d794a49343ae4823c4a000706a3697e7",
				"created_at": 1740805537,
				"kind": 21,
				"tags": [["t", "#NSFW"]],
				"content": "clip",
				"sig": "5b27e6690a144409877fbce4743e098ebe10b161c1aeab747105bdceab83e29a5e67bb6d1273e83cdf91613394f227ebff309813555e239f5a924cca26c46bc6"
			}
		`,
	}

	hide := NewService(config.PolicyConfig{HideAdult: true}, nil)
	show := NewService(config.PolicyConfig{}, nil)

	for _, req := range rawEvents {
		evt, err := models.DecodeEvent([]byte(req))
		require.NoError(t, err)

		assert.True(t, hide.ShouldFilterAdult(evt))
		assert.False(t, show.ShouldFilterAdult(evt))
	}

	assert.False(t, hide.ShouldFilterAdult(&nostr.Event{Kind: 22, Tags: nostr.Tags{{"t", "vine"}}}))
}

func TestStoreBlacklistWithContent(t *testing.T) {
	s := NewService(config.PolicyConfig{}, nil)

	err := s.StoreBlacklistWithContent(cctx.New(), &nostr.Event{PubKey: "bot", Content: "I am ReplyGuy"})
	require.NoError(t, err)
	assert.True(t, s.ShouldFilter("bot"))

	err = s.StoreBlacklistWithContent(cctx.New(), &nostr.Event{PubKey: "human", Content: "hello"})
	require.NoError(t, err)
	assert.False(t, s.ShouldFilter("human"))
}

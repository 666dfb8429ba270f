package eventstore

import "github.com/nbd-wtf/go-nostr"

type Request struct {
	IDs     []string
	Authors []string
	Kinds   []int
	Until   *nostr.Timestamp
	Limit   int
	Now     nostr.Timestamp
	NoLimit bool
}

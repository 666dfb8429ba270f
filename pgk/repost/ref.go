// Package repost resolves NIP-18 repost records to the record they point at.
package repost

import (
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/tidwall/gjson"

	"github.com/saveblush/reraw-feeds/core/generic"
	"github.com/saveblush/reraw-feeds/models"
)

var mediaKeywords = []string{"vine", "video", "videos", "shorts", "reels", "loops", "clip"}

// Ref pointer from a repost to its original. Address is preferred over ID.
type Ref struct {
	ID       string
	Address  string
	Author   string
	KindHint int
	HasKind  bool
}

// ParseRef reads a, e, p and k tags, ok is false when nothing is referenced
func ParseRef(evt *nostr.Event) (Ref, bool) {
	var r Ref
	if a, ok := models.TagValue(evt.Tags, "a"); ok {
		if _, _, _, valid := models.ParseAddress(a); valid {
			r.Address = a
		}
	}
	r.ID, _ = models.TagValue(evt.Tags, "e")
	r.Author, _ = models.TagValue(evt.Tags, "p")

	if k, ok := models.TagValue(evt.Tags, "k"); ok {
		if n, err := strconv.Atoi(k); err == nil {
			r.KindHint = n
			r.HasKind = true
		}
	}

	return r, r.Address != "" || r.ID != ""
}

// Key pending registry key
func (r Ref) Key() string {
	if r.Address != "" {
		return r.Address
	}

	return r.ID
}

// Filter one-shot query for the original
func (r Ref) Filter() nostr.Filter {
	if r.Address != "" {
		kind, pubkey, d, _ := models.ParseAddress(r.Address)
		f := nostr.Filter{Kinds: []int{kind}, Authors: []string{pubkey}, Limit: 1}
		if models.IsParamReplaceableKind(kind) {
			f.Tags = nostr.TagMap{"d": []string{d}}
		}
		return f
	}

	return nostr.Filter{IDs: []string{r.ID}, Limit: 1}
}

// Matches orig is the referenced record, or a version of the referenced address
func (r Ref) Matches(orig *nostr.Event) bool {
	if orig == nil {
		return false
	}

	if r.Address != "" {
		if models.AddressOf(orig) == r.Address {
			return true
		}
	}

	return r.ID != "" && orig.ID == r.ID
}

// IsMedia whether the original is expected to be media: a kind hint decides,
// then the addressed kind, then keywords of the repost itself.
func IsMedia(r Ref, repost *nostr.Event, mediaKinds []int) bool {
	if r.HasKind {
		return generic.Contains(mediaKinds, r.KindHint)
	}

	if r.Address != "" {
		kind, _, _, _ := models.ParseAddress(r.Address)
		if generic.Contains(mediaKinds, kind) {
			return true
		}
	}

	for _, t := range models.Hashtags(repost.Tags) {
		if generic.Contains(mediaKeywords, t) {
			return true
		}
	}

	content := strings.ToLower(repost.Content)
	if gjson.Valid(repost.Content) {
		if k := gjson.Get(repost.Content, "kind"); k.Exists() {
			return generic.Contains(mediaKinds, int(k.Int()))
		}
		content = strings.ToLower(gjson.Get(repost.Content, "content").String())
	}
	for _, kw := range mediaKeywords {
		if strings.Contains(content, "#"+kw) {
			return true
		}
	}

	return false
}

// Embedded original carried in the repost content, only when it is the referenced one
func Embedded(r Ref, repost *nostr.Event) (*nostr.Event, bool) {
	content := strings.TrimSpace(repost.Content)
	if content == "" || !gjson.Valid(content) {
		return nil, false
	}

	peek := gjson.GetMany(content, "id", "kind", "pubkey")
	if !peek[0].Exists() || !peek[1].Exists() || !peek[2].Exists() {
		return nil, false
	}

	evt, err := models.DecodeEvent([]byte(content))
	if err != nil || !r.Matches(evt) {
		return nil, false
	}

	return evt, true
}

// ReposterOf attribution of repost
func ReposterOf(repost *nostr.Event) models.Reposter {
	return models.Reposter{
		PubKey:     repost.PubKey,
		RepostID:   repost.ID,
		RepostedAt: repost.CreatedAt,
	}
}

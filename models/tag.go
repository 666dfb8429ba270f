package models

import (
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// TagValue first value of the tag named key
func TagValue(tags nostr.Tags, key string) (string, bool) {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == key {
			return tag[1], true
		}
	}

	return "", false
}

// TagValues all values of the tags named key
func TagValues(tags nostr.Tags, key string) []string {
	var values []string
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == key {
			values = append(values, tag[1])
		}
	}

	return values
}

// HasTag reports whether a tag named key exists, with or without value
func HasTag(tags nostr.Tags, key string) bool {
	for _, tag := range tags {
		if len(tag) >= 1 && tag[0] == key {
			return true
		}
	}

	return false
}

// FindD the "d" discriminator, ok is false when the tag is absent
func FindD(tags nostr.Tags) (string, bool) {
	for _, tag := range tags {
		if len(tag) >= 1 && tag[0] == "d" {
			if len(tag) >= 2 {
				return tag[1], true
			}
			return "", true
		}
	}

	return "", false
}

// Hashtags lower-cased "t" values
func Hashtags(tags nostr.Tags) []string {
	values := TagValues(tags, "t")
	for i, v := range values {
		values[i] = NormalizeHashtag(v)
	}

	return values
}

// NormalizeHashtag strips the leading # and lower-cases
func NormalizeHashtag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// AddressOf "kind:pubkey:d" for replaceable records, empty otherwise
func AddressOf(evt *nostr.Event) string {
	switch ClassOf(evt.Kind) {
	case ClassReplaceable:
		return strconv.Itoa(evt.Kind) + ":" + evt.PubKey + ":"
	case ClassParameterized:
		d, ok := FindD(evt.Tags)
		if !ok {
			return ""
		}
		return strconv.Itoa(evt.Kind) + ":" + evt.PubKey + ":" + d
	}

	return ""
}

// ParseAddress splits "kind:pubkey:d", d may contain ':'
func ParseAddress(a string) (kind int, pubkey string, d string, ok bool) {
	parts := strings.SplitN(a, ":", 3)
	if len(parts) < 2 {
		return 0, "", "", false
	}

	kind, err := strconv.Atoi(parts[0])
	if err != nil || kind < 0 || kind > MaxUint16 || parts[1] == "" {
		return 0, "", "", false
	}
	if len(parts) == 3 {
		d = parts[2]
	}

	return kind, parts[1], d, true
}

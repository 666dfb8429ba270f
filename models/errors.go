package models

import "errors"

var (
	// ErrNotInitialized upstream not ready yet, retry later
	ErrNotInitialized = errors.New("not initialized: upstream source not ready")
	// ErrOffline no upstream connectivity
	ErrOffline = errors.New("offline: no upstream connection")
	// ErrSubscription upstream stream error
	ErrSubscription = errors.New("subscription error")
	// ErrMalformedRecord record failed strict decoding
	ErrMalformedRecord = errors.New("invalid: malformed record")
	// ErrAmbiguousReplaceable parameterized replaceable record without d tag
	ErrAmbiguousReplaceable = errors.New("invalid: missing 'd' tag on parameterized replaceable event")
	// ErrEmptySearch search feed queried with an empty string
	ErrEmptySearch = errors.New("invalid: empty search query")
	// ErrUnknownFeed feed type not known
	ErrUnknownFeed = errors.New("invalid: unknown feed type")
	// ErrClosed controller is closed
	ErrClosed = errors.New("controller closed")
)

// IsConnectivity transient errors recovered by the retry scheduler
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrOffline) || errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrSubscription)
}

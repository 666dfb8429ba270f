package models

// FeedType feed type
type FeedType string

const (
	FeedHome       FeedType = "home"
	FeedDiscovery  FeedType = "discovery"
	FeedProfile    FeedType = "profile"
	FeedEditorial  FeedType = "editorial"
	FeedPopularNow FeedType = "popular-now"
	FeedTrending   FeedType = "trending"
	FeedHashtag    FeedType = "hashtag"
	FeedSearch     FeedType = "search"
)

// FeedTypes every feed type, in a stable order
var FeedTypes = []FeedType{
	FeedHome,
	FeedDiscovery,
	FeedProfile,
	FeedEditorial,
	FeedPopularNow,
	FeedTrending,
	FeedHashtag,
	FeedSearch,
}

// Valid is a known feed type
func (f FeedType) Valid() bool {
	for _, v := range FeedTypes {
		if v == f {
			return true
		}
	}

	return false
}

// Persistent persistent feeds reconnect when their stream ends
func (f FeedType) Persistent() bool {
	switch f {
	case FeedHome, FeedDiscovery, FeedProfile, FeedHashtag:
		return true
	}

	return false
}

// Sorted editorial, popular-now and trending keep upstream order
func (f FeedType) Sorted() bool {
	switch f {
	case FeedEditorial, FeedPopularNow, FeedTrending:
		return false
	}

	return true
}

// AuthorScoped feeds driven by an explicit author set
func (f FeedType) AuthorScoped() bool {
	return f == FeedHome || f == FeedProfile
}

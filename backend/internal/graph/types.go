package graph

// ============================================================================
// Graph Result Types
// ============================================================================
//
// Every operation decodes its records into one of these fixed structs at
// the store boundary; nothing above this package touches raw records.

// UserProfile represents a User node plus optional follow counts.
// Counts are populated only by operations that compute them.
type UserProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Bio            string `json:"bio"`
	Avatar         string `json:"avatar"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
}

// FollowCounts holds the independent follower/following counts for a user
type FollowCounts struct {
	Followers int64 `json:"followers_count"`
	Following int64 `json:"following_count"`
}

// FeedPostAuthor is the compact author summary attached to a feed post
type FeedPostAuthor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// FeedPost is a post authored by a followed user, ready for feed display
type FeedPost struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"createdAt"`
	Author    FeedPostAuthor `json:"author"`
}

// DefaultAvatar is assigned when a User node predates the avatar field
const DefaultAvatar = "avatar_1"

// DefaultSuggestionLimit caps friend-of-friend suggestion results
const DefaultSuggestionLimit = 10

// DefaultPopularLimit caps popular-user results
const DefaultPopularLimit = 10

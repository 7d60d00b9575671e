package server

import (
	"context"

	"flock/backend/internal/graph"
)

// Store is the narrow view of the graph repository the handlers consume.
// Handlers translate transport input into these calls and map outcomes to
// HTTP responses; all graph semantics live behind this interface.
type Store interface {
	// User directory
	CreateUser(ctx context.Context, profile graph.UserProfile) error
	GetUserByID(ctx context.Context, userID string) (*graph.UserProfile, error)
	GetUserByUsername(ctx context.Context, username string) (*graph.UserProfile, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	IsUsernameAvailableExcluding(ctx context.Context, username, excludedID string) (bool, error)
	UpdateUser(ctx context.Context, userID, name, username, bio, avatar string) (*graph.UserProfile, error)
	FollowCounts(ctx context.Context, userID string) (graph.FollowCounts, error)
	AllUsersExcept(ctx context.Context, userID string) ([]graph.UserProfile, error)

	// Social graph
	Follow(ctx context.Context, sourceID, targetID string) error
	Unfollow(ctx context.Context, sourceID, targetID string) error
	Followers(ctx context.Context, userID string) ([]graph.UserProfile, error)
	Following(ctx context.Context, userID string) ([]graph.UserProfile, error)
	MutualConnections(ctx context.Context, userA, userB string) ([]graph.UserProfile, error)
	Suggestions(ctx context.Context, userID string, limit int) ([]graph.UserProfile, error)
	SearchUsers(ctx context.Context, term, excludingUserID string) ([]graph.UserProfile, error)
	PopularUsers(ctx context.Context, limit int) ([]graph.UserProfile, error)

	// Feed
	FeedPosts(ctx context.Context, userID string) ([]graph.FeedPost, error)
	CreatePost(ctx context.Context, authorID, content string) (*graph.FeedPost, error)
}

var _ Store = (*graph.Repository)(nil)

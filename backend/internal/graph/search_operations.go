package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Search & Discovery Operations
// ============================================================================

// SearchUsers performs a case-insensitive substring match against name or
// username, excluding the given user id. Each result carries its follower
// count. Empty-term short-circuiting is the caller's policy, not this
// operation's.
func (r *Repository) SearchUsers(ctx context.Context, term, excludingUserID string) ([]UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		WHERE (toLower(u.name) CONTAINS toLower($term)
		       OR toLower(u.username) CONTAINS toLower($term))
		      AND u.id <> $excludingUserID
		OPTIONAL MATCH (u)<-[:FOLLOWS]-(follower:User)
		WITH u, count(DISTINCT follower) AS followers
		RETURN ` + userColumns + `, followers
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"term":            term,
		"excludingUserID": excludingUserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return collectProfilesWithFollowers(ctx, result)
}

// PopularUsers returns users ranked descending by follower count. Only
// users with at least one follower appear; the match is an inner join on
// the FOLLOWS edge.
func (r *Repository) PopularUsers(ctx context.Context, limit int) ([]UserProfile, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)<-[:FOLLOWS]-(follower:User)
		WITH u, count(DISTINCT follower) AS followers
		RETURN ` + userColumns + `, followers
		ORDER BY followers DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get popular users: %w", err)
	}

	return collectProfilesWithFollowers(ctx, result)
}

func collectProfilesWithFollowers(ctx context.Context, result neo4j.ResultWithContext) ([]UserProfile, error) {
	profiles := []UserProfile{}
	for result.Next(ctx) {
		record := result.Record()
		profile := userProfileFromRecord(record)
		profile.FollowersCount = getInt64FromRecord(record, "followers")
		profiles = append(profiles, profile)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user records: %w", err)
	}
	return profiles, nil
}

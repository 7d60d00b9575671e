package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Follow Relationship Operations
// ============================================================================

// Follow idempotently ensures exactly one FOLLOWS edge from sourceID to
// targetID. Repeat calls are no-ops. Self-follows are rejected here, not
// just at the transport layer, so the no-self-loop invariant holds for
// every caller. Returns ErrUserNotFound when either endpoint is missing;
// sourceID comes from a verified identity, so the missing node is
// reported as the target.
func (r *Repository) Follow(ctx context.Context, sourceID, targetID string) error {
	if sourceID == targetID {
		return ErrSelfFollow
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $sourceID}), (t:User {id: $targetID})
		MERGE (u)-[:FOLLOWS]->(t)
		RETURN u.id AS source, t.id AS target
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"sourceID": sourceID,
		"targetID": targetID,
	})
	if err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to verify follow: %w", err)
		}
		r.logger.Warn("Follow matched no users",
			zap.String("source_id", sourceID),
			zap.String("target_id", targetID),
		)
		return ErrUserNotFound{UserID: targetID}
	}

	return nil
}

// Unfollow removes the FOLLOWS edge if present; removing an absent edge
// is a no-op
func (r *Repository) Unfollow(ctx context.Context, sourceID, targetID string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $sourceID})-[f:FOLLOWS]->(t:User {id: $targetID})
		DELETE f
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"sourceID": sourceID,
		"targetID": targetID,
	})
	if err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}

	return nil
}

// Followers returns the users with a FOLLOWS edge into userID, unordered
func (r *Repository) Followers(ctx context.Context, userID string) ([]UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)-[:FOLLOWS]->(:User {id: $userID})
		RETURN ` + userColumns

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}

	return collectProfiles(ctx, result)
}

// Following returns the users userID has a FOLLOWS edge to, unordered
func (r *Repository) Following(ctx context.Context, userID string) ([]UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (:User {id: $userID})-[:FOLLOWS]->(u:User)
		RETURN ` + userColumns

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}

	return collectProfiles(ctx, result)
}

// MutualConnections returns the users followed by both userA and userB,
// the intersection of the two following sets. Commutative in its
// arguments.
func (r *Repository) MutualConnections(ctx context.Context, userA, userB string) ([]UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (:User {id: $userA})-[:FOLLOWS]->(u:User)<-[:FOLLOWS]-(:User {id: $userB})
		RETURN ` + userColumns

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userA": userA,
		"userB": userB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get mutual connections: %w", err)
	}

	return collectProfiles(ctx, result)
}

// Suggestions returns friend-of-friend follow candidates for userID:
// users followed by someone userID follows, excluding userID and anyone
// already followed. Ranked by the number of distinct intermediaries
// (descending), then candidate id for a stable order. Each suggestion
// carries its own follower count for display; the count does not affect
// ranking.
func (r *Repository) Suggestions(ctx context.Context, userID string, limit int) ([]UserProfile, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (me:User {id: $userID})-[:FOLLOWS]->(v:User)-[:FOLLOWS]->(u:User)
		WHERE NOT (me)-[:FOLLOWS]->(u) AND u <> me
		WITH u, count(DISTINCT v) AS mutualCount
		OPTIONAL MATCH (u)<-[:FOLLOWS]-(follower:User)
		WITH u, mutualCount, count(DISTINCT follower) AS followers
		RETURN ` + userColumns + `, followers, mutualCount
		ORDER BY mutualCount DESC, id ASC
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
		"limit":  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}

	suggestions := []UserProfile{}
	for result.Next(ctx) {
		record := result.Record()
		profile := userProfileFromRecord(record)
		profile.FollowersCount = getInt64FromRecord(record, "followers")
		suggestions = append(suggestions, profile)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestion records: %w", err)
	}

	return suggestions, nil
}

package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// User Operations
// ============================================================================

// CreateUser inserts a new User node with all profile fields. Username
// availability must be checked by the caller first; the schema constraints
// from EnsureSchema are the backstop against a concurrent duplicate.
func (r *Repository) CreateUser(ctx context.Context, profile UserProfile) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		CREATE (u:User {
			id: $id,
			name: $name,
			username: $username,
			email: $email,
			bio: $bio,
			avatar: $avatar
		})
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":       profile.ID,
		"name":     profile.Name,
		"username": profile.Username,
		"email":    profile.Email,
		"bio":      profile.Bio,
		"avatar":   profile.Avatar,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user profile by id. Returns (nil, nil) when no
// user matches; absence is not an error.
func (r *Repository) GetUserByID(ctx context.Context, userID string) (*UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})
		RETURN ` + userColumns

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	if result.Next(ctx) {
		profile := userProfileFromRecord(result.Record())
		return &profile, nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch user record: %w", err)
	}

	return nil, nil
}

// GetUserByUsername retrieves a user profile by exact username match.
// Lookup is case-sensitive as stored; only availability checks normalize
// case. Returns (nil, nil) when no user matches.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {username: $username})
		RETURN ` + userColumns

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	if result.Next(ctx) {
		profile := userProfileFromRecord(result.Record())
		return &profile, nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch user record: %w", err)
	}

	return nil, nil
}

// IsUsernameAvailable reports whether no user holds the username,
// compared case-insensitively
func (r *Repository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		WHERE toLower(u.username) = toLower($username)
		RETURN count(u) AS count
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username": username,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check username availability: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch availability count: %w", err)
	}

	return getInt64FromRecord(record, "count") == 0, nil
}

// IsUsernameAvailableExcluding is IsUsernameAvailable but ignores a match
// owned by excludedID, so a user can keep their own username on update
func (r *Repository) IsUsernameAvailableExcluding(ctx context.Context, username, excludedID string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		WHERE toLower(u.username) = toLower($username)
		  AND u.id <> $excludedID
		RETURN count(u) AS count
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"username":   username,
		"excludedID": excludedID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check username availability: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to fetch availability count: %w", err)
	}

	return getInt64FromRecord(record, "count") == 0, nil
}

// UpdateUser sets name, username, bio and avatar on the matching user and
// returns the updated profile. Username uniqueness must have been checked
// by the caller via IsUsernameAvailableExcluding.
func (r *Repository) UpdateUser(ctx context.Context, userID, name, username, bio, avatar string) (*UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})
		SET u.name = $name,
		    u.username = $username,
		    u.bio = $bio,
		    u.avatar = $avatar
		RETURN ` + userColumns

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID":   userID,
		"name":     name,
		"username": username,
		"bio":      bio,
		"avatar":   avatar,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if result.Next(ctx) {
		profile := userProfileFromRecord(result.Record())
		return &profile, nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch updated user: %w", err)
	}

	return nil, ErrUserNotFound{UserID: userID}
}

// FollowCounts returns the follower and following counts for a user as
// two independent counts (never a joint traversal, which would produce a
// cross product for users with many of both). The two reads run
// concurrently on separate sessions.
func (r *Repository) FollowCounts(ctx context.Context, userID string) (FollowCounts, error) {
	var counts FollowCounts

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.countQuery(gctx, `
			MATCH (follower:User)-[:FOLLOWS]->(u:User {id: $userID})
			RETURN count(follower) AS count
		`, userID)
		counts.Followers = n
		return err
	})
	g.Go(func() error {
		n, err := r.countQuery(gctx, `
			MATCH (u:User {id: $userID})-[:FOLLOWS]->(following:User)
			RETURN count(following) AS count
		`, userID)
		counts.Following = n
		return err
	})

	if err := g.Wait(); err != nil {
		return FollowCounts{}, err
	}
	return counts, nil
}

func (r *Repository) countQuery(ctx context.Context, query, userID string) (int64, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count follows: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch follow count: %w", err)
	}

	return getInt64FromRecord(record, "count"), nil
}

// AllUsersExcept returns every user except userID, ordered by username
// ascending
func (r *Repository) AllUsersExcept(ctx context.Context, userID string) ([]UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User)
		WHERE u.id <> $userID
		RETURN ` + userColumns + `
		ORDER BY u.username
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return collectProfiles(ctx, result)
}

// collectProfiles drains a result of user-column records
func collectProfiles(ctx context.Context, result neo4j.ResultWithContext) ([]UserProfile, error) {
	profiles := []UserProfile{}
	for result.Next(ctx) {
		profiles = append(profiles, userProfileFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user records: %w", err)
	}
	return profiles, nil
}

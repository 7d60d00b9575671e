package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Feed Operations
// ============================================================================

// FeedPosts returns every post authored by a user that userID follows,
// paired with the author summary, newest first. Posts missing an id or
// content are dropped rather than surfaced as errors. An empty feed is a
// normal outcome.
func (r *Repository) FeedPosts(ctx context.Context, userID string) ([]FeedPost, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (me:User {id: $userID})-[:FOLLOWS]->(author:User)-[:POSTED]->(post:Post)
		RETURN post.id AS id, post.content AS content, post.createdAt AS created_at,
		       author.id AS author_id, author.name AS author_name, author.username AS author_username
		ORDER BY post.createdAt DESC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get feed posts: %w", err)
	}

	posts := []FeedPost{}
	for result.Next(ctx) {
		record := result.Record()
		id := getStringFromRecord(record, "id")
		content := getStringFromRecord(record, "content")
		if id == "" || content == "" {
			// Malformed post node; skip it rather than break the feed
			r.logger.Debug("Skipping malformed post in feed", zap.String("post_id", id))
			continue
		}
		posts = append(posts, FeedPost{
			ID:        id,
			Content:   content,
			CreatedAt: getTimeStringFromRecord(record, "created_at"),
			Author: FeedPostAuthor{
				ID:       getStringFromRecord(record, "author_id"),
				Name:     getStringFromRecord(record, "author_name"),
				Username: getStringFromRecord(record, "author_username"),
			},
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feed records: %w", err)
	}

	return posts, nil
}

// CreatePost creates a Post node with a generated id and store-assigned
// timestamp, linked to its author with a POSTED edge. Returns
// ErrUserNotFound when the author does not exist.
func (r *Repository) CreatePost(ctx context.Context, authorID, content string) (*FeedPost, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $authorID})
		CREATE (u)-[:POSTED]->(p:Post {
			id: $postID,
			content: $content,
			createdAt: datetime()
		})
		RETURN p.id AS id, p.content AS content, p.createdAt AS created_at,
		       u.id AS author_id, u.name AS author_name, u.username AS author_username
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"authorID": authorID,
		"postID":   uuid.NewString(),
		"content":  content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("failed to verify post creation: %w", err)
		}
		return nil, ErrUserNotFound{UserID: authorID}
	}

	record := result.Record()
	return &FeedPost{
		ID:        getStringFromRecord(record, "id"),
		Content:   getStringFromRecord(record, "content"),
		CreatedAt: getTimeStringFromRecord(record, "created_at"),
		Author: FeedPostAuthor{
			ID:       getStringFromRecord(record, "author_id"),
			Name:     getStringFromRecord(record, "author_name"),
			Username: getStringFromRecord(record, "author_username"),
		},
	}, nil
}

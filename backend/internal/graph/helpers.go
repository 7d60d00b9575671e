package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

// getTimeStringFromRecord normalizes a createdAt column to an RFC 3339
// string. Neo4j datetime() values decode as time.Time; seed data written
// as plain strings comes back as string.
func getTimeStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	switch t := val.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case string:
		return t
	}
	return ""
}

// userProfileFromRecord decodes the standard user column set
// (id, name, username, email, bio, avatar) into a UserProfile
func userProfileFromRecord(record *neo4j.Record) UserProfile {
	avatar := getStringFromRecord(record, "avatar")
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return UserProfile{
		ID:       getStringFromRecord(record, "id"),
		Name:     getStringFromRecord(record, "name"),
		Username: getStringFromRecord(record, "username"),
		Email:    getStringFromRecord(record, "email"),
		Bio:      getStringFromRecord(record, "bio"),
		Avatar:   avatar,
	}
}

// userColumns is the RETURN fragment shared by every query that yields
// whole user profiles; u must be the bound User node.
const userColumns = `u.id AS id, u.name AS name, u.username AS username,
		       u.email AS email, coalesce(u.bio, '') AS bio, coalesce(u.avatar, '') AS avatar`

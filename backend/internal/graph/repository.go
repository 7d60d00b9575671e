package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"flock/backend/pkg/logger"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema installs the uniqueness constraints the service relies on.
// The id/username constraints back the service-level availability checks;
// username uniqueness here is exact-case because Neo4j has no
// case-insensitive constraint, so the toLower checks remain the primary
// guard against mixed-case duplicates.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
		`CREATE CONSTRAINT user_username_unique IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE`,
		`CREATE CONSTRAINT post_id_unique IF NOT EXISTS FOR (p:Post) REQUIRE p.id IS UNIQUE`,
	}

	for _, stmt := range constraints {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}

	r.logger.Info("Graph schema constraints ensured")
	return nil
}

// IsConstraintViolation reports whether err is a Neo4j uniqueness
// constraint failure, e.g. a concurrent onboarding race on username
func IsConstraintViolation(err error) bool {
	var neo4jErr *neo4j.Neo4jError
	if errors.As(err, &neo4jErr) {
		return strings.Contains(neo4jErr.Code, "ConstraintValidationFailed") ||
			strings.Contains(neo4jErr.Code, "ConstraintViolation")
	}
	return false
}

// Errors

// ErrUserNotFound is returned when a referenced user does not exist
type ErrUserNotFound struct {
	UserID string
}

func (e ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrSelfFollow is returned when a user attempts to follow themselves
var ErrSelfFollow = errors.New("cannot follow yourself")

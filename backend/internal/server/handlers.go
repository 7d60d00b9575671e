// Package server maps HTTP requests onto the graph operations and
// translates outcomes back to transport responses. No graph semantics
// live here.
package server

import (
	"context"

	"go.uber.org/zap"

	"flock/backend/internal/auth"
	"flock/backend/pkg/logger"
)

// IdentityDirectory is the slice of the Clerk backend API the onboarding
// flow uses. Nil is allowed in development; identity lookups are then
// skipped.
type IdentityDirectory interface {
	FetchUser(ctx context.Context, userID string) (*auth.AccountDetails, error)
	SetOnboarded(ctx context.Context, userID string, onboarded bool) error
}

var _ IdentityDirectory = (*auth.Client)(nil)

// Handlers holds the request handlers' dependencies
type Handlers struct {
	store  Store
	clerk  IdentityDirectory
	logger *zap.Logger
}

// NewHandlers creates the handler set. clerk may be nil when no Clerk
// secret is configured.
func NewHandlers(store Store, clerk IdentityDirectory) *Handlers {
	return &Handlers{
		store:  store,
		clerk:  clerk,
		logger: logger.Get(),
	}
}

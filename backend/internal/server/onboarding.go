package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flock/backend/internal/auth"
	"flock/backend/internal/graph"
)

// CompleteOnboarding creates the caller's profile: validates the body,
// checks username availability, inserts the User node and marks the
// account onboarded in Clerk (best-effort)
func (h *Handlers) CompleteOnboarding(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	ctx := c.Request.Context()

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	available, err := h.store.IsUsernameAvailable(ctx, req.Username)
	if err != nil {
		h.logger.Error("Failed to check username availability", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check username availability"})
		return
	}
	if !available {
		c.JSON(http.StatusConflict, gin.H{"error": "Username is already taken"})
		return
	}

	email := user.Email
	if email == "" && h.clerk != nil {
		// The session token may omit the email; fall back to the backend API
		if details, err := h.clerk.FetchUser(ctx, user.ID); err != nil {
			h.logger.Warn("Failed to fetch Clerk account details", zap.Error(err))
		} else {
			email = details.Email
		}
	}

	profile := graph.UserProfile{
		ID:       user.ID,
		Name:     req.Name,
		Username: req.Username,
		Email:    email,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	}

	if err := h.store.CreateUser(ctx, profile); err != nil {
		if graph.IsConstraintViolation(err) {
			// Lost the race against a concurrent onboarding with the
			// same username or id
			c.JSON(http.StatusConflict, gin.H{"error": "Username is already taken"})
			return
		}
		h.logger.Error("Failed to create user profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user profile"})
		return
	}

	if h.clerk != nil {
		if err := h.clerk.SetOnboarded(ctx, user.ID, true); err != nil {
			// The user exists in the graph; never fail onboarding on a
			// metadata write
			h.logger.Warn("Failed to update Clerk onboarded metadata",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Onboarding completed successfully",
	})
}

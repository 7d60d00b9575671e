package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flock/backend/internal/auth"
	"flock/backend/internal/graph"
)

// FollowUser creates a FOLLOWS edge from the caller to the target
func (h *Handlers) FollowUser(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	targetID := c.Param("target_id")

	err := h.store.Follow(c.Request.Context(), user.ID, targetID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User followed successfully"})
	case errors.Is(err, graph.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
	default:
		if _, ok := err.(graph.ErrUserNotFound); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.Error("Failed to follow user",
			zap.String("source_id", user.ID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow user"})
	}
}

// UnfollowUser removes the FOLLOWS edge from the caller to the target;
// unfollowing someone not followed is a no-op success
func (h *Handlers) UnfollowUser(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	targetID := c.Param("target_id")

	if err := h.store.Unfollow(c.Request.Context(), user.ID, targetID); err != nil {
		h.logger.Error("Failed to unfollow user",
			zap.String("source_id", user.ID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User unfollowed successfully"})
}

// GetFollowing lists who the caller (or :user_id when given) follows
func (h *Handlers) GetFollowing(c *gin.Context) {
	h.respondUserList(c, func(subjectID string) ([]graph.UserProfile, error) {
		return h.store.Following(c.Request.Context(), subjectID)
	})
}

// GetFollowers lists who follows the caller (or :user_id when given)
func (h *Handlers) GetFollowers(c *gin.Context) {
	h.respondUserList(c, func(subjectID string) ([]graph.UserProfile, error) {
		return h.store.Followers(c.Request.Context(), subjectID)
	})
}

func (h *Handlers) respondUserList(c *gin.Context, list func(subjectID string) ([]graph.UserProfile, error)) {
	subjectID := c.Param("user_id")
	if subjectID == "" {
		user, ok := auth.UserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		subjectID = user.ID
	}

	users, err := list(subjectID)
	if err != nil {
		h.logger.Error("Failed to list connections", zap.String("user_id", subjectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list connections"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetMutualConnections returns the users both the caller and :other_id follow
func (h *Handlers) GetMutualConnections(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	otherID := c.Param("other_id")

	mutual, err := h.store.MutualConnections(c.Request.Context(), user.ID, otherID)
	if err != nil {
		h.logger.Error("Failed to get mutual connections", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get mutual connections"})
		return
	}

	c.JSON(http.StatusOK, mutual)
}

// ListUsers returns everyone except the caller, for the explore page
func (h *Handlers) ListUsers(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	users, err := h.store.AllUsersExcept(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// SearchUsers matches users by name or username substring. An empty or
// whitespace-only term returns an empty list without touching the store.
func (h *Handlers) SearchUsers(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusOK, []graph.UserProfile{})
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), term, user.ID)
	if err != nil {
		h.logger.Error("Failed to search users", zap.String("term", term), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetSuggestions returns ranked friend-of-friend follow suggestions
func (h *Handlers) GetSuggestions(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	suggestions, err := h.store.Suggestions(c.Request.Context(), user.ID, limitParam(c))
	if err != nil {
		h.logger.Error("Failed to get suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get suggestions"})
		return
	}

	c.JSON(http.StatusOK, suggestions)
}

// GetPopularUsers returns users ranked by follower count
func (h *Handlers) GetPopularUsers(c *gin.Context) {
	users, err := h.store.PopularUsers(c.Request.Context(), limitParam(c))
	if err != nil {
		h.logger.Error("Failed to get popular users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get popular users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// limitParam parses the optional ?limit= query parameter; 0 lets the
// repository apply its default
func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flock/backend/internal/auth"
	"flock/backend/internal/graph"
)

// GetProfileByID returns a user profile with live follow counts
func (h *Handlers) GetProfileByID(c *gin.Context) {
	h.respondProfile(c, func() (*graph.UserProfile, error) {
		return h.store.GetUserByID(c.Request.Context(), c.Param("user_id"))
	})
}

// GetProfileByUsername returns a profile looked up by exact username,
// passed as the ?username query parameter
func (h *Handlers) GetProfileByUsername(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username query parameter is required"})
		return
	}
	h.respondProfile(c, func() (*graph.UserProfile, error) {
		return h.store.GetUserByUsername(c.Request.Context(), username)
	})
}

func (h *Handlers) respondProfile(c *gin.Context, lookup func() (*graph.UserProfile, error)) {
	profile, err := lookup()
	if err != nil {
		h.logger.Error("Failed to retrieve profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	// Follow counts degrade to zero; a count failure must not take down
	// the profile read
	counts, err := h.store.FollowCounts(c.Request.Context(), profile.ID)
	if err != nil {
		h.logger.Error("Failed to retrieve follow counts",
			zap.String("user_id", profile.ID),
			zap.Error(err),
		)
		counts = graph.FollowCounts{}
	}
	profile.FollowersCount = counts.Followers
	profile.FollowingCount = counts.Following

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile updates the caller's own profile. Username uniqueness is
// re-checked only when the username actually changed, ignoring case.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	userID := c.Param("user_id")
	if user.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot edit another user's profile"})
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

	current, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to retrieve profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	if !strings.EqualFold(req.Username, current.Username) {
		available, err := h.store.IsUsernameAvailableExcluding(ctx, req.Username, userID)
		if err != nil {
			h.logger.Error("Failed to check username availability", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check username availability"})
			return
		}
		if !available {
			c.JSON(http.StatusConflict, gin.H{"error": "Username is already taken"})
			return
		}
	}

	updated, err := h.store.UpdateUser(ctx, userID, req.Name, req.Username, req.Bio, req.Avatar)
	if err != nil {
		if _, ok := err.(graph.ErrUserNotFound); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logger.Error("Failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

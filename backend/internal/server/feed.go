package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flock/backend/internal/auth"
	"flock/backend/internal/graph"
)

// GetFeed returns the posts authored by everyone the caller follows,
// newest first. Following no one yields an empty feed, not an error.
func (h *Handlers) GetFeed(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	posts, err := h.store.FeedPosts(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to retrieve feed", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreatePost publishes a new post authored by the caller
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.store.CreatePost(c.Request.Context(), user.ID, req.Content)
	if err != nil {
		if _, ok := err.(graph.ErrUserNotFound); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logger.Error("Failed to create post", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, post)
}

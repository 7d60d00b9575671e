package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter assembles the HTTP surface. authMW guards every route that
// needs a verified caller; tests inject a stub middleware here.
func NewRouter(h *Handlers, authMW gin.HandlerFunc, log *zap.Logger, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(log))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "social-media-api"})
	})

	api := router.Group("/api")
	{
		// Profile reads are public; username lookup is a query parameter
		// because gin's router rejects a static segment next to the
		// :user_id wildcard
		api.GET("/profile", h.GetProfileByUsername)
		api.GET("/profile/:user_id", h.GetProfileByID)
	}

	authed := router.Group("/api", authMW)
	{
		authed.POST("/onboarding", h.CompleteOnboarding)
		authed.PATCH("/profile/:user_id", h.UpdateProfile)

		authed.GET("/feed", h.GetFeed)
		authed.POST("/posts", h.CreatePost)

		social := authed.Group("/social")
		{
			social.POST("/follow/:target_id", h.FollowUser)
			social.DELETE("/unfollow/:target_id", h.UnfollowUser)
			social.GET("/following", h.GetFollowing)
			social.GET("/following/:user_id", h.GetFollowing)
			social.GET("/followers", h.GetFollowers)
			social.GET("/followers/:user_id", h.GetFollowers)
			social.GET("/mutual/:other_id", h.GetMutualConnections)
			social.GET("/users", h.ListUsers)
			social.GET("/users/search", h.SearchUsers)
			social.GET("/suggestions", h.GetSuggestions)
			social.GET("/popular", h.GetPopularUsers)
		}
	}

	return router
}

// requestLogger logs every request with latency and status
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware echoes the request origin when it is in the allow list
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	allowAll := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok || (allowAll && origin != "") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

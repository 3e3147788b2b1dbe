package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cardpass/gatekeeper/ports"
	"github.com/cardpass/gatekeeper/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, limiter ports.RateLimiter, cookies CookieConfig, logger *slog.Logger) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService, cookies)

	auth := router.Group("/auth")
	{
		auth.POST("/challenge", RateLimit(limiter, "challenge", logger), handlers.Challenge)
		auth.POST("/verify", RateLimit(limiter, "verify", logger), handlers.Verify)
		auth.POST("/refresh", RateLimit(limiter, "refresh", logger), handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/me", AuthMiddleware(authService, cookies), handlers.Me)
	}

	return router
}

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
	"github.com/cardpass/gatekeeper/service"
)

const principalKey = "authPrincipal"

// RateLimit creates middleware that admits requests through the limiter,
// keyed by client IP and the given scope. A broken limiter backend lets
// traffic through rather than locking everyone out.
func RateLimit(limiter ports.RateLimiter, scope string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := limiter.Admit(c.Request.Context(), c.ClientIP(), scope)
		if errors.Is(err, core.ErrTooManyRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		if err != nil {
			logger.Warn("rate limiter unavailable", "scope", scope, "error", err)
		}

		c.Next()
	}
}

// AuthMiddleware creates middleware that validates access tokens, taken from
// the Authorization header or, failing that, the session cookie.
func AuthMiddleware(authService *service.AuthService, cookies CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token, _ = c.Cookie(cookies.AccessName)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
			return
		}

		principal, err := authService.ResolvePrincipal(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if len(auth) < 8 || !strings.EqualFold(auth[:7], "Bearer ") {
		return ""
	}
	return auth[7:]
}

func principalFrom(c *gin.Context) (*core.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*core.Principal)
	return principal, ok && principal != nil
}

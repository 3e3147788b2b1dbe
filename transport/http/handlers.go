// Package http exposes the wallet login protocol over a small JSON API:
// challenge, verify, refresh, logout, me. Refresh credentials travel only in
// an HttpOnly cookie scoped to the auth endpoints.
package http

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	cookies     CookieConfig
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cookies CookieConfig) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cookies:     cookies,
	}
}

// writeError maps domain errors to HTTP status codes. Anything that smells
// like a broken backend rather than a bad request goes to Sentry.
func writeError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	errorMsg := "Internal error"

	switch {
	case errors.Is(err, core.ErrInvalidWallet),
		errors.Is(err, core.ErrInvalidEncoding),
		errors.Is(err, core.ErrInvalidKeyLength),
		errors.Is(err, core.ErrUnsupportedEncoding),
		errors.Is(err, core.ErrMalformedChallengeMessage),
		errors.Is(err, core.ErrDomainMismatch):
		statusCode = http.StatusBadRequest
		errorMsg = err.Error()
	case errors.Is(err, core.ErrUnknownOrExpiredNonce),
		errors.Is(err, core.ErrNonceAlreadyUsed):
		statusCode = http.StatusBadRequest
		errorMsg = "Unknown or expired challenge"
	case errors.Is(err, core.ErrInvalidSignature):
		statusCode = http.StatusUnauthorized
		errorMsg = "Invalid signature"
	case errors.Is(err, core.ErrInvalidRefreshToken),
		errors.Is(err, core.ErrExpiredToken),
		errors.Is(err, core.ErrIssuerMismatch),
		errors.Is(err, core.ErrAudienceMismatch),
		errors.Is(err, core.ErrMissingCredential):
		statusCode = http.StatusUnauthorized
		errorMsg = "Invalid credentials"
	case errors.Is(err, core.ErrTooManyRequests):
		statusCode = http.StatusTooManyRequests
		errorMsg = "Too many requests"
	default:
		sentry.CaptureException(err)
	}

	c.JSON(statusCode, gin.H{"error": errorMsg})
}

// Challenge handles the challenge request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		Wallet  string `json:"wallet" binding:"required"`
		Purpose string `json:"purpose"`
		Domain  string `json:"domain"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.Wallet, req.Purpose, req.Domain)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":     challenge.Wallet,
		"nonce":      challenge.Nonce,
		"issued_at":  core.FormatTimestamp(challenge.IssuedAt),
		"expires_at": core.FormatTimestamp(challenge.ExpiresAt),
		"message":    challenge.Message,
	})
}

// Verify handles the signed-challenge verification request and establishes
// the session cookies on success.
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		Wallet            string `json:"wallet"`
		Nonce             string `json:"nonce" binding:"required"`
		Signature         string `json:"signature" binding:"required"`
		SignatureEncoding string `json:"signature_encoding"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.SignatureEncoding == "" {
		req.SignatureEncoding = "base64"
	}

	result, err := h.authService.Verify(c.Request.Context(), req.Wallet, req.Nonce, req.Signature, req.SignatureEncoding)
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookies.setAccess(c, result.AccessToken, result.AccessExpiry)
	h.cookies.setRefresh(c, result.RefreshSecret, result.RefreshExpiry)

	c.JSON(http.StatusOK, gin.H{
		"ok":               true,
		"wallet":           result.Wallet,
		"used_nonce":       result.Nonce,
		"token_expires_at": core.FormatTimestamp(result.AccessExpiry),
	})
}

// Refresh rotates the refresh cookie and mints a fresh access token. The
// refresh credential is read from the cookie only, never from the body.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	secret, err := c.Cookie(h.cookies.RefreshName)
	if err != nil {
		writeError(c, core.ErrMissingCredential)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), secret)
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookies.setAccess(c, result.AccessToken, result.AccessExpiry)
	h.cookies.setRefresh(c, result.RefreshSecret, result.RefreshExpiry)

	c.JSON(http.StatusOK, gin.H{
		"access_token":     result.AccessToken,
		"token_expires_at": core.FormatTimestamp(result.AccessExpiry),
	})
}

// Logout revokes the session and deletes both cookies. It reports success
// whether or not a live session was presented.
func (h *AuthHandlers) Logout(c *gin.Context) {
	secret, _ := c.Cookie(h.cookies.RefreshName)

	if err := h.authService.Logout(c.Request.Context(), secret); err != nil {
		writeError(c, err)
		return
	}

	h.cookies.clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the claim set of the authenticated caller
func (h *AuthHandlers) Me(c *gin.Context) {
	principal, exists := principalFrom(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Principal not found in context"})
		return
	}

	resp := gin.H{
		"sub":     principal.Wallet,
		"iss":     principal.Issuer,
		"iat":     principal.IssuedAt.Unix(),
		"exp":     principal.ExpiresAt.Unix(),
		"nonce":   principal.Nonce,
		"purpose": principal.Purpose,
		"domain":  principal.Domain,
	}
	if principal.Audience != "" {
		resp["aud"] = principal.Audience
	}

	c.JSON(http.StatusOK, resp)
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieConfig describes how session cookies are written. Browser-facing
// deployments behind a cross-site frontend need Secure + SameSite=None and,
// for Chrome's partitioned storage, the Partitioned attribute.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	Secure      bool
	SameSite    http.SameSite
	Partitioned bool
}

// refreshPath scopes the refresh cookie so it only travels to the auth
// endpoints, never with regular API traffic.
const refreshPath = "/auth"

func (cfg CookieConfig) setAccess(c *gin.Context, token string, expiry time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:        cfg.AccessName,
		Value:       token,
		Domain:      cfg.Domain,
		Path:        cfg.Path,
		MaxAge:      int(time.Until(expiry).Seconds()),
		HttpOnly:    true,
		Secure:      cfg.Secure,
		SameSite:    cfg.SameSite,
		Partitioned: cfg.Partitioned,
	})
}

func (cfg CookieConfig) setRefresh(c *gin.Context, secret string, expiry time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:        cfg.RefreshName,
		Value:       secret,
		Domain:      cfg.Domain,
		Path:        refreshPath,
		MaxAge:      int(time.Until(expiry).Seconds()),
		HttpOnly:    true,
		Secure:      cfg.Secure,
		SameSite:    cfg.SameSite,
		Partitioned: cfg.Partitioned,
	})
}

func (cfg CookieConfig) clear(c *gin.Context) {
	for name, path := range map[string]string{
		cfg.AccessName:  cfg.Path,
		cfg.RefreshName: refreshPath,
	} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:        name,
			Value:       "",
			Domain:      cfg.Domain,
			Path:        path,
			MaxAge:      -1,
			HttpOnly:    true,
			Secure:      cfg.Secure,
			SameSite:    cfg.SameSite,
			Partitioned: cfg.Partitioned,
		})
	}
}

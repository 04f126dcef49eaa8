package middleware

import (
	"net/http"

	"sigea-portal-svc/src/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextBrowserSession = "browser_session_id"

// BrowserSession assigns every browser a random session id cookie. The id
// scopes the persisted token and user, like per-tab session storage.
func BrowserSession(cfg *config.SessionSettings) gin.HandlerFunc {
	name := cfg.CookieName
	if name == "" {
		name = "sigea_sid"
	}
	maxAge := cfg.ExpirationMinutes * 60

	return func(c *gin.Context) {
		sid, err := c.Cookie(name)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(name, sid, maxAge, "/", "", cfg.SecureCookie, true)
		c.Set(ContextBrowserSession, sid)
		c.Next()
	}
}

// BrowserSessionID returns the id BrowserSession assigned, or "" when the
// middleware did not run.
func BrowserSessionID(c *gin.Context) string {
	return c.GetString(ContextBrowserSession)
}

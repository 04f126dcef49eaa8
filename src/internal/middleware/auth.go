package middleware

import (
	"net/http"
	"strings"

	"sigea-portal-svc/src/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Context keys set by the middlewares in this package.
const (
	ContextSession   = "session"
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// AuthMiddleware binds each request to its session state. The token is
// decoded locally and never verified here; the SIGEA backend rejects bad
// tokens on every relayed call.
type AuthMiddleware struct {
	store session.Store
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(store session.Store) *AuthMiddleware {
	return &AuthMiddleware{store: store}
}

// LoadSession bootstraps the session manager for the request. A bearer
// token in the Authorization header takes precedence over the browser
// session.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		manager, err := m.managerFor(c)
		if err != nil {
			logrus.WithError(err).Error("Session bootstrap failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Session unavailable",
			})
			c.Abort()
			return
		}

		c.Set(ContextSession, manager)
		if user := manager.User(); user != nil {
			c.Set(ContextUserID, user.UserID)
			c.Set(ContextUserEmail, user.Email)
			c.Set(ContextUserRole, user.Role)
		}

		c.Next()
	}
}

// RequireAuth rejects requests without a session token. It must run after
// LoadSession.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		manager := SessionFrom(c)
		if manager == nil || !manager.IsAuthenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authentication required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRoles lets through users whose role matches one of roles,
// ignoring case and a leading "ROLE_". With no roles it only requires a
// loaded session.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[normalizeRole(role)] = struct{}{}
	}

	return func(c *gin.Context) {
		manager := SessionFrom(c)
		if manager == nil {
			logrus.Error("Session not found in context - ensure LoadSession middleware runs first")
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authentication required",
			})
			c.Abort()
			return
		}

		if len(allowed) == 0 {
			c.Next()
			return
		}

		role := manager.Role()
		if _, ok := allowed[normalizeRole(role)]; !ok || role == "" {
			logrus.WithFields(logrus.Fields{
				"user_id":   c.GetString(ContextUserID),
				"user_role": role,
				"route":     c.FullPath(),
			}).Warn("User attempted to access endpoint without required role")

			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access forbidden - insufficient role",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SessionFrom returns the session manager LoadSession stored, or nil.
func SessionFrom(c *gin.Context) *session.Manager {
	value, exists := c.Get(ContextSession)
	if !exists {
		return nil
	}
	manager, _ := value.(*session.Manager)
	return manager
}

func (m *AuthMiddleware) managerFor(c *gin.Context) (*session.Manager, error) {
	ctx := c.Request.Context()

	if token := extractToken(c); token != "" {
		ephemeral := session.NewMemoryStore()
		if err := ephemeral.Set(ctx, "bearer", session.TokenKey, token); err != nil {
			return nil, err
		}
		manager := session.NewManager(ephemeral, "bearer")
		return manager, manager.Bootstrap(ctx)
	}

	manager := session.NewManager(m.store, BrowserSessionID(c))
	return manager, manager.Bootstrap(ctx)
}

// extractToken extracts the token from a "Bearer <token>" header, tolerant
// of case, extra spaces and quotes.
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}

	fields := strings.Fields(authHeader)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		logrus.Debug("Ignoring authorization header with unexpected format")
		return ""
	}

	return strings.Trim(fields[1], "\"'")
}

func normalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, "ROLE_")
}

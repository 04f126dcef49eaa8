package auth

import (
	"errors"
	"net/http"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/middleware"
	"sigea-portal-svc/src/internal/models"
	"sigea-portal-svc/src/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const msgLoginFailed = "No se pudo iniciar sesión"

type Handler interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	CurrentSession(c *gin.Context)
}

type handler struct {
	service   Service
	publisher clients.Publisher
}

func NewHandler(service Service, publisher clients.Publisher) Handler {
	return &handler{service: service, publisher: publisher}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type sessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	Role          string        `json:"role"`
	User          *session.User `json:"user"`
}

func (h *handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Correo o contraseña inválidos",
			"error":   err.Error(),
		})
		return
	}

	manager := middleware.SessionFrom(c)
	user, err := h.service.Login(c.Request.Context(), manager, req.Email, req.Password)
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Warn("Login failed")
		c.JSON(statusFor(err), gin.H{
			"success": false,
			"message": clients.UserMessage(err, msgLoginFailed),
		})
		return
	}

	h.publish(c, models.ActionLogin, user.UserID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Sesión iniciada",
		"data":    toResponse(manager),
	})
}

func (h *handler) Logout(c *gin.Context) {
	manager := middleware.SessionFrom(c)
	userID := c.GetString(middleware.ContextUserID)

	if err := h.service.Logout(c.Request.Context(), manager); err != nil {
		logrus.WithError(err).Error("Logout failed to clear persisted session")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "No se pudo cerrar la sesión",
		})
		return
	}

	h.publish(c, models.ActionLogout, userID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Sesión cerrada",
		"data":    toResponse(manager),
	})
}

// CurrentSession re-checks the persisted session and reports it.
func (h *handler) CurrentSession(c *gin.Context) {
	manager := middleware.SessionFrom(c)
	if err := manager.CheckAuth(c.Request.Context()); err != nil {
		logrus.WithError(err).Error("Session re-check failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Sesión no disponible",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toResponse(manager),
	})
}

func toResponse(manager *session.Manager) sessionResponse {
	return sessionResponse{
		Authenticated: manager.IsAuthenticated(),
		Role:          manager.Role(),
		User:          manager.User(),
	}
}

func statusFor(err error) int {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

func (h *handler) publish(c *gin.Context, action, userID string) {
	err := h.publisher.Publish(models.ActivityMessage{
		UserID:      userID,
		SessionID:   middleware.BrowserSessionID(c),
		ServiceName: models.ServicePortalAuth,
		Action:      action,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Activity message not published")
	}
}

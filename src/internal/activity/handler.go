package activity

import (
	"context"
	"errors"
	"net/http"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/middleware"
	"sigea-portal-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	msgListFailed   = "No se pudieron cargar las actividades"
	msgDetailFailed = "No se pudo cargar la actividad"
)

// Backend is the catalog part of the SIGEA client.
type Backend interface {
	GetActivities(ctx context.Context, token string) ([]models.CatalogActivity, error)
	GetActivity(ctx context.Context, token, activityID string) (*models.CatalogActivity, error)
}

type Handler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
}

type handler struct {
	backend Backend
}

func NewHandler(backend Backend) Handler {
	return &handler{backend: backend}
}

func (h *handler) List(c *gin.Context) {
	activities, err := h.backend.GetActivities(c.Request.Context(), token(c))
	if err != nil {
		logrus.WithError(err).Error("Failed to list activities")
		h.sendError(c, err, msgListFailed)
		return
	}

	if activities == nil {
		activities = []models.CatalogActivity{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    activities,
	})
}

func (h *handler) Get(c *gin.Context) {
	activityID := c.Param("id")

	activity, err := h.backend.GetActivity(c.Request.Context(), token(c), activityID)
	if err != nil {
		logrus.WithError(err).WithField("activity_id", activityID).Error("Failed to get activity")
		h.sendError(c, err, msgDetailFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    activity,
	})
}

func (h *handler) sendError(c *gin.Context, err error, fallback string) {
	status := http.StatusBadGateway
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
		status = apiErr.StatusCode
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": clients.UserMessage(err, fallback),
	})
}

// token is optional: the catalog is public.
func token(c *gin.Context) string {
	if manager := middleware.SessionFrom(c); manager != nil {
		return manager.Token()
	}
	return ""
}

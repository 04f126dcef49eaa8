package attendance

import (
	"net/http"
	"strconv"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/middleware"
	"sigea-portal-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	GetDashboard(c *gin.Context)
	SaveAttendance(c *gin.Context)
	MarkAttendance(c *gin.Context)
}

type handler struct {
	backend   Backend
	publisher clients.Publisher
}

func NewHandler(backend Backend, publisher clients.Publisher) Handler {
	return &handler{backend: backend, publisher: publisher}
}

type saveRequest struct {
	Participants []Participant `json:"participants" binding:"required,dive"`
}

type markRequest struct {
	SessionID    string `json:"sessionId" binding:"required"`
	EnrollmentID string `json:"enrollmentId" binding:"required"`
	Present      *bool  `json:"present" binding:"required"`
}

func (h *handler) GetDashboard(c *gin.Context) {
	dashboard := h.dashboardFor(c)
	state := dashboard.FetchDashboard(c.Request.Context())

	if state.Error != "" {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": state.Error,
			"data":    state,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    state,
		"message": "Dashboard retrieved successfully",
	})
}

func (h *handler) SaveAttendance(c *gin.Context) {
	activityID := c.Param("id")

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Invalid attendance payload")
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": msgMissingInput,
			"error":   err.Error(),
		})
		return
	}

	dashboard := h.dashboardFor(c)
	result := dashboard.SaveAttendance(c.Request.Context(), activityID, req.Participants)
	if !result.Success {
		c.JSON(http.StatusBadGateway, result)
		return
	}

	h.publish(c, models.ActionAttendanceSaved, map[string]string{
		"activity_id":  activityID,
		"participants": strconv.Itoa(len(req.Participants)),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"data":    dashboard.State(),
	})
}

func (h *handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": msgMissingInput,
			"error":   err.Error(),
		})
		return
	}

	result := h.dashboardFor(c).MarkAttendance(c.Request.Context(), req.SessionID, req.EnrollmentID, *req.Present)
	if !result.Success {
		c.JSON(http.StatusBadGateway, result)
		return
	}

	h.publish(c, models.ActionAttendanceMark, map[string]string{
		"session_id":    req.SessionID,
		"enrollment_id": req.EnrollmentID,
	})
	c.JSON(http.StatusOK, result)
}

func (h *handler) dashboardFor(c *gin.Context) *Dashboard {
	var token string
	if manager := middleware.SessionFrom(c); manager != nil {
		token = manager.Token()
	}
	return NewDashboard(h.backend, token)
}

func (h *handler) publish(c *gin.Context, action string, metadata map[string]string) {
	err := h.publisher.Publish(models.ActivityMessage{
		UserID:      c.GetString(middleware.ContextUserID),
		SessionID:   middleware.BrowserSessionID(c),
		ServiceName: models.ServicePortalAttendance,
		Action:      action,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Metadata:    metadata,
	})
	if err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Activity message not published")
	}
}

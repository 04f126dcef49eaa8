package payment

import (
	"errors"
	"net/http"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/middleware"
	"sigea-portal-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	Create(c *gin.Context)
}

type handler struct {
	service   Service
	publisher clients.Publisher
}

func NewHandler(service Service, publisher clients.Publisher) Handler {
	return &handler{service: service, publisher: publisher}
}

func (h *handler) Create(c *gin.Context) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Formulario de pago inválido",
			"error":   err.Error(),
		})
		return
	}

	var token string
	if manager := middleware.SessionFrom(c); manager != nil {
		token = manager.Token()
	}
	result, err := h.service.Create(c.Request.Context(), token, form)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": UserMessage(err),
				"fields":  vErr.Fields,
			})
			return
		}

		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": UserMessage(err),
		})
		return
	}

	if err := h.publisher.Publish(models.ActivityMessage{
		UserID:      c.GetString(middleware.ContextUserID),
		SessionID:   middleware.BrowserSessionID(c),
		ServiceName: models.ServicePortalPayment,
		Action:      models.ActionPaymentCreated,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Metadata: map[string]string{
			"payment_id":    result.PaymentID,
			"enrollment_id": form.EnrollmentID,
		},
	}); err != nil {
		logrus.WithError(err).Warn("Activity message not published")
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Pago iniciado",
		"data":    result,
	})
}

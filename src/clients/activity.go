package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"sigea-portal-svc/src/internal/config"
	"sigea-portal-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Publisher sends activity messages somewhere. Handlers ignore its errors:
// a lost activity message never fails a user action.
type Publisher interface {
	Publish(message models.ActivityMessage) error
}

// AMQPChannel is the part of *amqp.Channel the publisher needs.
type AMQPChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type ActivityPublisher struct {
	channel AMQPChannel
	cfg     *config.RabbitMQConfig
}

func NewActivityPublisher(channel AMQPChannel, cfg *config.RabbitMQConfig) *ActivityPublisher {
	return &ActivityPublisher{channel: channel, cfg: cfg}
}

// Publish publishes an activity message to RabbitMQ
func (p *ActivityPublisher) Publish(message models.ActivityMessage) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   message.Timestamp,
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     message.UserID,
		"session_id":  message.SessionID,
		"service":     message.ServiceName,
		"action":      message.Action,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.RoutingKey,
	}).Debug("Activity message published")

	return nil
}

// NopPublisher drops messages; used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(models.ActivityMessage) error { return nil }

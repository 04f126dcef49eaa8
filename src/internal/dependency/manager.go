package dependency

import (
	"context"
	"fmt"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/activity"
	"sigea-portal-svc/src/internal/attendance"
	"sigea-portal-svc/src/internal/auth"
	"sigea-portal-svc/src/internal/cache"
	"sigea-portal-svc/src/internal/config"
	"sigea-portal-svc/src/internal/payment"
	"sigea-portal-svc/src/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

type Manager struct {
	Router            *gin.Engine
	Config            *config.Configuration
	Mongodb           *clients.MongoDB
	Redis             *clients.RedisClient
	RabbitMQ          *clients.RabbitMQ
	SigeaClient       *clients.SigeaClient
	Publisher         clients.Publisher
	SessionStore      session.Store
	AuthHandler       auth.Handler
	AttendanceHandler attendance.Handler
	ActivityHandler   activity.Handler
	PaymentHandler    payment.Handler
}

// NewDependencyManager wires handlers over the given connections. Any of
// mongodb, redisClient and rabbitMQ may be nil when the configuration does
// not use it.
func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) (*Manager, error) {
	store, err := newSessionStore(cfg, mongodb, redisClient)
	if err != nil {
		return nil, err
	}

	var publisher clients.Publisher = clients.NopPublisher{}
	if rabbitMQ != nil {
		publisher = clients.NewActivityPublisher(rabbitMQ.Channel, &cfg.Messaging.RabbitMQ)
	}

	sigeaClient := clients.NewSigeaClient(cfg)
	authService := auth.NewService(sigeaClient)
	paymentService := payment.NewService(sigeaClient, cfg.Backend.PaymentURL)

	return &Manager{
		Router:            router,
		Config:            cfg,
		Mongodb:           mongodb,
		Redis:             redisClient,
		RabbitMQ:          rabbitMQ,
		SigeaClient:       sigeaClient,
		Publisher:         publisher,
		SessionStore:      store,
		AuthHandler:       auth.NewHandler(authService, publisher),
		AttendanceHandler: attendance.NewHandler(sigeaClient, publisher),
		ActivityHandler:   activity.NewHandler(sigeaClient),
		PaymentHandler:    payment.NewHandler(paymentService, publisher),
	}, nil
}

func newSessionStore(cfg *config.Configuration, mongodb *clients.MongoDB, redisClient *clients.RedisClient) (session.Store, error) {
	switch cfg.Session.Store {
	case StoreRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("session store %q requires a redis connection", StoreRedis)
		}
		return cache.NewSessionStore(redisClient.Client, cfg), nil
	case StoreMongo:
		if mongodb == nil {
			return nil, fmt.Errorf("session store %q requires a mongodb connection", StoreMongo)
		}
		store := session.NewMongoStore(mongodb, cfg.Database.SessionCollection)
		if err := store.EnsureIndexes(context.Background()); err != nil {
			logrus.WithError(err).Warn("Failed to create session indexes")
		}
		return store, nil
	case StoreMemory, "":
		logrus.Warn("Using in-memory session store; sessions are lost on restart")
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

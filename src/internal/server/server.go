package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/config"
	"sigea-portal-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start connects the configured backing services, serves HTTP and blocks
// until SIGINT or SIGTERM.
func (s *Server) Start() error {
	cfg := s.cfg

	var (
		redisClient *clients.RedisClient
		mongodb     *clients.MongoDB
		rabbitMQ    *clients.RabbitMQ
		err         error
	)

	if cfg.Session.Store == dependency.StoreRedis {
		if redisClient, err = clients.NewRedisClient(&cfg.Redis); err != nil {
			return err
		}
		defer redisClient.Close()
	}

	if cfg.Session.Store == dependency.StoreMongo {
		if mongodb, err = clients.NewMongoDB(&cfg.Database); err != nil {
			return err
		}
		defer mongodb.Close(context.Background())
	}

	if cfg.Messaging.RabbitMQ.Enabled {
		rabbitMQ, err = clients.NewRabbitMQ(&cfg.Messaging.RabbitMQ)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, activity messages disabled")
			rabbitMQ = nil
		} else if err := rabbitMQ.SetupExchange(); err != nil {
			log.WithError(err).Warn("RabbitMQ exchange setup failed, activity messages disabled")
			_ = rabbitMQ.Close()
			rabbitMQ = nil
		} else {
			defer rabbitMQ.Close()
		}
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	deps, err := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	if err != nil {
		return err
	}
	SetupRoutes(deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.Timeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return err
	}

	log.Info("Server exited")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"route":   c.GetString("route_name"),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("Request handled")
	}
}

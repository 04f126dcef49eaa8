package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sigea-portal-svc/src/internal/config"
	"sigea-portal-svc/src/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPattern = "%s:%s:%s" // prefix:sessionID:key

// SessionStore keeps browser session values in Redis. Every write and read
// slides the expiration window, the way a browser session lives while it is
// being used.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, cfg *config.Configuration) *SessionStore {
	prefix := cfg.Session.KeyPrefix
	if prefix == "" {
		prefix = "sigea:session"
	}

	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    time.Duration(cfg.Session.ExpirationMinutes) * time.Minute,
	}
}

func (c *SessionStore) key(sessionID, key string) string {
	return fmt.Sprintf(keyPattern, c.prefix, sessionID, key)
}

func (c *SessionStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	redisKey := c.key(sessionID, key)
	logrus.WithField("key", redisKey).Debug("Getting session value from cache")

	data, err := c.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		logrus.WithError(err).WithField("key", redisKey).Error("Failed to get session value from cache")
		return "", false, models.ErrRedisGet
	}

	if c.ttl > 0 {
		if err := c.client.Expire(ctx, redisKey, c.ttl).Err(); err != nil {
			logrus.WithError(err).WithField("key", redisKey).Warn("Failed to extend session value expiration")
		}
	}

	return data, true, nil
}

func (c *SessionStore) Set(ctx context.Context, sessionID, key, value string) error {
	redisKey := c.key(sessionID, key)

	if err := c.client.Set(ctx, redisKey, value, c.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", redisKey).Error("Failed to cache session value")
		return models.ErrRedisSet
	}

	logrus.WithField("key", redisKey).Debug("Session value cached successfully")
	return nil
}

func (c *SessionStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = c.key(sessionID, key)
	}

	if err := c.client.Del(ctx, redisKeys...).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to delete session values")
		return models.ErrRedisDelete
	}

	return nil
}

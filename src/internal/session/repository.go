package session

import (
	"context"
	"errors"
	"time"

	"sigea-portal-svc/src/clients"
	"sigea-portal-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type entry struct {
	SessionID string    `bson:"session_id"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per (session_id, key).
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *clients.MongoDB, collectionName string) *MongoStore {
	collection := db.Database.Collection(collectionName)
	return &MongoStore{collection: collection}
}

// EnsureIndexes creates the unique lookup index.
func (r *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	var doc entry
	filter := bson.M{"session_id": sessionID, "key": key}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to get session entry")
		return "", false, models.ErrDatabaseQuery
	}

	return doc.Value, true, nil
}

func (r *MongoStore) Set(ctx context.Context, sessionID, key, value string) error {
	filter := bson.M{"session_id": sessionID, "key": key}
	update := bson.M{
		"$set": bson.M{
			"value":      value,
			"updated_at": time.Now(),
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to store session entry")
		return models.ErrSessionUpdating
	}

	return nil
}

func (r *MongoStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	filter := bson.M{
		"session_id": sessionID,
		"key":        bson.M{"$in": keys},
	}

	_, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("Failed to delete session entries")
		return models.ErrSessionDeleting
	}

	return nil
}

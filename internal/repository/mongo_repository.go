package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type snapshotDoc struct {
	UserID    string    `bson:"user_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("cart_snapshots"),
	}
}

func (m *MongoRepository) Get(ctx context.Context, userID string) ([]byte, error) {
	var doc snapshotDoc

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get cart snapshot: %w", err)
	}

	return doc.Payload, nil
}

func (m *MongoRepository) Put(ctx context.Context, userID string, payload []byte, at time.Time) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{"$set": snapshotDoc{
		UserID:    userID,
		Payload:   payload,
		UpdatedAt: at,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert cart snapshot: %w", err)
	}

	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart snapshot: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrSnapshotNotFound
	}

	return nil
}

// CreateIndexes sets up the user_id lookup index and a server-side TTL
// safety net one window past the application-level 30 day expiry, so
// snapshots for users who never return still get reaped.
func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(60 * 24 * 60 * 60),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

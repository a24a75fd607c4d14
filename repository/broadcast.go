package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BroadcastRepo is an append-only log: messages are inserted and listed,
// never updated or deleted.
type BroadcastRepo struct {
	MongoCollection *mongo.Collection
}

func GetBroadcastRepo(client *mongo.Client) *BroadcastRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("BROADCASTS_COLLECTION")
	return &BroadcastRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// CreateBroadcast appends a message, stamping created_at at acceptance.
func (r *BroadcastRepo) CreateBroadcast(broadcast *model.BroadcastMessage) error {
	timer := utils.TrackDBOperation("insert", "broadcasts")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if broadcast == nil {
		utils.TrackError("database", "nil_broadcast")
		return fmt.Errorf("broadcast cannot be nil")
	}

	if broadcast.Message == "" {
		utils.TrackError("database", "empty_broadcast_message")
		return fmt.Errorf("broadcast message cannot be empty")
	}

	broadcast.CreatedAt = time.Now()

	if _, err := r.MongoCollection.InsertOne(ctx, broadcast); err != nil {
		utils.TrackError("database", "broadcast_creation_failed")
		return fmt.Errorf("failed to create broadcast: %w", err)
	}

	utils.BroadcastsPublishedTotal.Inc()

	return nil
}

// ListRecent returns broadcasts most-recent-first, capped to limit.
// An empty region matches everything; a non-empty region also includes
// unscoped (all-regions) messages.
func (r *BroadcastRepo) ListRecent(limit int64, region string) ([]*model.BroadcastMessage, error) {
	timer := utils.TrackDBOperation("find", "broadcasts")
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if region != "" {
		filter["region"] = bson.M{"$in": []string{region, ""}}
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("database", "broadcast_fetch_failed")
		return nil, fmt.Errorf("failed to fetch broadcasts: %w", err)
	}
	defer cursor.Close(ctx)

	var broadcasts []*model.BroadcastMessage
	if err = cursor.All(ctx, &broadcasts); err != nil {
		return nil, fmt.Errorf("failed to decode broadcasts: %w", err)
	}

	return broadcasts, nil
}

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessionsCollection := db.Collection(os.Getenv("SOS_COLLECTION"))
	broadcastsCollection := db.Collection(os.Getenv("BROADCASTS_COLLECTION"))

	sessionIndexes := []mongo.IndexModel{
		// Share-token lookup for the public tracker
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("session_token").
				SetUnique(true),
		},
		// Backs the one-active-session-per-owner invariant: two racing
		// activations cannot both commit an active document.
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("owner_active_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "is_active", Value: true}}),
		},
		// Reaper filter and console listing
		{
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "last_ping", Value: 1},
			},
			Options: options.Index().
				SetName("active_last_ping"),
		},
		{
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "activated_at", Value: -1},
			},
			Options: options.Index().
				SetName("active_by_activation"),
		},
	}

	broadcastIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().
				SetName("broadcasts_recency"),
		},
		{
			Keys: bson.D{
				{Key: "region", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("broadcasts_region_recency"),
		},
	}

	if _, err := sessionsCollection.Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	if _, err := broadcastsCollection.Indexes().CreateMany(ctx, broadcastIndexes); err != nil {
		return fmt.Errorf("failed to create broadcast indexes: %w", err)
	}

	if operatorsName := os.Getenv("HELPDESK_OPERATORS_COLLECTION"); operatorsName != "" {
		operatorIndex := mongo.IndexModel{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("operator_username").
				SetUnique(true),
		}
		if _, err := db.Collection(operatorsName).Indexes().CreateOne(ctx, operatorIndex); err != nil {
			return fmt.Errorf("failed to create operator index: %w", err)
		}
	}

	log.Println("Successfully created all indexes")
	return nil
}

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
)

// OperatorsRepo is the per-operator credential directory. Deployments
// without one fall back to the single shared desk credential from the
// environment.
type OperatorsRepo struct {
	MongoCollection *mongo.Collection
}

func GetOperatorsRepo(client *mongo.Client) *OperatorsRepo {
	dbName := os.Getenv("MONGO_DB")
	collectionName := os.Getenv("HELPDESK_OPERATORS_COLLECTION")
	return &OperatorsRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// FindOperator returns (nil, nil) for an unknown username.
func (r *OperatorsRepo) FindOperator(username string) (*model.Operator, error) {
	timer := utils.TrackDBOperation("find", "helpdesk_operators")
	defer timer.ObserveDuration()

	if username == "" {
		utils.TrackError("database", "empty_username")
		return nil, fmt.Errorf("username cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var operator model.Operator
	err := r.MongoCollection.FindOne(ctx, bson.M{"username": username}).Decode(&operator)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "operator_fetch_failed")
		return nil, fmt.Errorf("failed to fetch operator: %w", err)
	}

	return &operator, nil
}

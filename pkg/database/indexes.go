package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	UsersCollection    = "users"
	MealsCollection    = "meals"
	UpcomingCollection = "upcomingMeals"
	RequestsCollection = "mealRequests"
)

// EnsureIndexes creates the indexes the repos rely on. Safe to run on every
// startup; Mongo treats re-creation of an identical index as a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}

	// Promotion idempotency key: at most one published meal per upcoming
	// source document.
	_, err = db.Collection(MealsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	if err != nil {
		return fmt.Errorf("meals source_id index: %w", err)
	}

	// One request per (meal, requester, email) triple. The unique index
	// backstops the pre-insert check when two creates race past it.
	_, err = db.Collection(RequestsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "meal_id", Value: 1},
			{Key: "user_id", Value: 1},
			{Key: "email", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("requests unique index: %w", err)
	}

	return nil
}

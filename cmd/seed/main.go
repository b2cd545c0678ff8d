package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mealhub/pkg/database"
	"mealhub/pkg/models"
)

func main() {
	var (
		mealsIn    = flag.String("meals", "data/meals.json", "input JSON path for published meals")
		upcomingIn = flag.String("upcoming", "data/upcoming_meals.json", "input JSON path for upcoming meals")
	)
	flag.Parse()

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db := database.MustOpen(ctx, database.DefaultConfig())
	defer database.Close(client)

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("ensure indexes failed: %v", err)
	}

	n, err := seedMeals(ctx, db.Collection(database.MealsCollection), *mealsIn)
	if err != nil {
		log.Fatalf("seed meals failed: %v", err)
	}
	m, err := seedMeals(ctx, db.Collection(database.UpcomingCollection), *upcomingIn)
	if err != nil {
		log.Fatalf("seed upcoming meals failed: %v", err)
	}

	log.Printf("seeded %d meals from %s and %d upcoming meals from %s", n, *mealsIn, m, *upcomingIn)
}

// seedMeals upserts by title so re-running the seeder refreshes fixtures
// instead of duplicating them.
func seedMeals(ctx context.Context, coll *mongo.Collection, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var items []models.Meal
	if err := json.Unmarshal(b, &items); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	count := 0
	for i := range items {
		m := &items[i]
		if m.Title == "" {
			continue
		}
		if m.Likes == nil {
			m.Likes = []string{}
		}
		if m.Reviews == nil {
			m.Reviews = []models.Review{}
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}

		// _id stays omitted: a replace keeps the existing id, an upsert
		// insert gets a generated one.
		_, err := coll.ReplaceOne(ctx,
			bson.M{"title": m.Title},
			m,
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return count, fmt.Errorf("upsert %q: %w", m.Title, err)
		}
		count++
	}

	return count, nil
}

package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Config struct {
	URI  string
	Name string
}

func DefaultConfig() Config {
	uri := os.Getenv("MEALHUB_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	name := os.Getenv("MEALHUB_DB_NAME")
	if name == "" {
		name = "mealhub"
	}

	return Config{URI: uri, Name: name}
}

// Open connects a single client for the whole process. Callers own the
// returned client and must Close it on shutdown.
func Open(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(cfg.Name), nil
}

func MustOpen(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database) {
	client, db, err := Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	return client, db
}

func Close(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}
}

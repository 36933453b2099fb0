// Package mongo holds the MongoDB connection helper and the quote history
// repository.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calcproject/freightcalc/internal/infrastructure/config"
)

const defaultTimeout = 10 * time.Second

// Connect establishes a MongoDB client, verifies connectivity with a ping,
// and returns both the client and the configured database.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

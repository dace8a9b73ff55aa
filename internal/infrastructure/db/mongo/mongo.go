package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// defaultTimeout bounds connection setup and every repository call.
const defaultTimeout = 10 * time.Second

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI         string
	Database    string
	AppName     string
	MaxPoolSize uint64
	Timeout     time.Duration
}

func (c Config) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(c.URI).
		SetServerSelectionTimeout(c.Timeout)
	if c.AppName != "" {
		opts.SetAppName(c.AppName)
	}
	if c.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.MaxPoolSize)
	}
	return opts
}

// Connect establishes a MongoDB client, verifies connectivity against the
// primary, and returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Database == "" {
		return nil, nil, fmt.Errorf("mongo connect: database name is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, cfg.clientOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

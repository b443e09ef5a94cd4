package kv

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions describes how to reach the key-value database. Zero fields
// fall back to the driver-friendly defaults below.
type MongoOptions struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

func (o MongoOptions) withDefaults() MongoOptions {
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = 50
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.ServerSelectionTimeout == 0 {
		o.ServerSelectionTimeout = 5 * time.Second
	}
	return o
}

func (o MongoOptions) clientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(o.URI).
		SetConnectTimeout(o.ConnectTimeout).
		SetServerSelectionTimeout(o.ServerSelectionTimeout).
		SetMaxPoolSize(o.MaxPoolSize).
		SetAppName("storefront-service")
}

// ConnectMongoDB dials, pings and returns the configured database. The
// client is disconnected again when the ping fails.
func ConnectMongoDB(ctx context.Context, opts MongoOptions) (*mongo.Database, error) {
	if opts.URI == "" || opts.Database == "" {
		return nil, fmt.Errorf("mongo uri and database are required")
	}
	opts = opts.withDefaults()

	client, err := mongo.Connect(ctx, opts.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ServerSelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(opts.Database), nil
}

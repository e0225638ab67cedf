package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connector hands out a shared, lazily-established Mongo database handle.
// The first caller dials, pings, and runs the onConnect hook; once that
// succeeds the client is reused for the life of the process. Any failure
// leaves the Connector empty so the next caller retries instead of reusing a
// half-initialized client.
type Connector struct {
	uri       string
	dbName    string
	onConnect func(context.Context, *mongo.Database) error

	mu     sync.Mutex
	client *mongo.Client
}

// NewConnector creates a Connector. onConnect, when non-nil, runs exactly once
// per successful dial (index bootstrap lives there).
func NewConnector(uri, dbName string, onConnect func(context.Context, *mongo.Database) error) *Connector {
	return &Connector{uri: uri, dbName: dbName, onConnect: onConnect}
}

// Database returns the shared database handle, connecting on first use.
func (c *Connector) Database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client.Database(c.dbName), nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(c.uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	db := client.Database(c.dbName)

	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if c.onConnect != nil {
		if err := c.onConnect(dialCtx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("initialize mongodb: %w", err)
		}
	}

	c.client = client
	return db, nil
}

// Close disconnects the underlying client if one was established.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	client := c.client
	c.client = nil
	return client.Disconnect(ctx)
}

package database

import (
	"context"
	"fmt"

	"projecthub/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Database wraps the mongo client and collection handles used by the
// repository layer.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, cfg config.MongoConfig) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Database{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

func (d *Database) Members() *mongo.Collection  { return d.db.Collection("members") }
func (d *Database) Projects() *mongo.Collection { return d.db.Collection("projects") }
func (d *Database) Meetings() *mongo.Collection { return d.db.Collection("meetings") }
func (d *Database) Tasks() *mongo.Collection    { return d.db.Collection("tasks") }

// EnsureIndexes creates the indexes the application relies on. Safe to call
// on every startup; CreateOne is a no-op for an existing index.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	if _, err := d.Members().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create member email index: %w", err)
	}

	if _, err := d.Tasks().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "status", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create task project index: %w", err)
	}

	if _, err := d.Tasks().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "meetingId", Value: 1}, {Key: "status", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create task meeting index: %w", err)
	}

	if _, err := d.Meetings().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create meeting date index: %w", err)
	}

	return nil
}

// HealthCheck pings the primary.
func (d *Database) HealthCheck(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the underlying client.
func (d *Database) Disconnect(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

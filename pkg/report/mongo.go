package report

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore persists reports to a MongoDB collection so multiple migration
// hosts can feed one dashboard. Files written by [Writer] stay the primary
// artifact; the store is additive.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// Document kinds stored in the reports collection.
const (
	kindMigration = "migration"
	kindInventory = "inventory"
)

// NewMongoStore connects to the given URI and verifies the connection with a
// ping. Reports land in the "reports" collection of the given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		col:    client.Database(database).Collection("reports"),
	}, nil
}

// SaveMigration stores one migration run.
func (s *MongoStore) SaveMigration(ctx context.Context, r *MigrationReport) error {
	doc := bson.M{
		"kind":       kindMigration,
		"created_at": time.Now().UTC(),
		"report":     r,
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("storing migration report: %w", err)
	}
	return nil
}

// SaveInventory stores one inventory scan for a site.
func (s *MongoStore) SaveInventory(ctx context.Context, site string, inventory []InventoryPage) error {
	doc := bson.M{
		"kind":       kindInventory,
		"created_at": time.Now().UTC(),
		"site":       site,
		"pages":      inventory,
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("storing inventory report: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

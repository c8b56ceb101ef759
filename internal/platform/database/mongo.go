package database

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Mongo owns the shared client for the document store. The store is an
// external dependency that may come up after this process, so connection
// establishment is lazy: Ensure is called before every operation and
// connects when no client exists yet. A failed attempt is never cached; the
// next call tries again.
type Mongo struct {
	mu        sync.RWMutex
	client    *mongo.Client
	uri       string
	dbName    string
	opTimeout time.Duration
}

func New(uri, dbName string, opTimeout time.Duration) *Mongo {
	return &Mongo{uri: uri, dbName: dbName, opTimeout: opTimeout}
}

// Connect performs a best-effort initial connection. Startup proceeds even
// if the store is not reachable yet.
func (m *Mongo) Connect() {
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	defer cancel()
	if err := m.Ensure(ctx); err != nil {
		log.Printf("MongoDB not reachable at startup, will retry per request: %v", err)
		return
	}
	fmt.Println("Successfully connected to MongoDB!")
}

// Ensure makes sure a live client exists, connecting at most once per call.
func (m *Mongo) Ensure(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil { // connected while waiting for the lock
		return nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}
	m.client = client

	if err := m.ensureIndexes(ctx, client); err != nil {
		log.Printf("MongoDB index setup failed: %v", err)
	}
	return nil
}

// Collection returns a handle on the named collection, establishing the
// connection first if needed.
func (m *Mongo) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	if err := m.Ensure(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client.Database(m.dbName).Collection(name), nil
}

// OpContext bounds a store round trip so requests cannot stall indefinitely
// when the store is unhealthy.
func (m *Mongo) OpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.opTimeout)
}

func (m *Mongo) ensureIndexes(ctx context.Context, client *mongo.Client) error {
	db := client.Database(m.dbName)

	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("reports").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "reporter_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("login_logs").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "identifier", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func (m *Mongo) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		_ = m.client.Disconnect(context.Background())
		m.client = nil
		fmt.Println("MongoDB connection closed.")
	}
}

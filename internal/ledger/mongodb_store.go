package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBStore implements Store using MongoDB.
type MongoDBStore struct {
	client   *mongo.Client
	payments *mongo.Collection
}

// NewMongoDBStore creates a new MongoDB-backed store.
func NewMongoDBStore(connectionString, database, collection string) (*MongoDBStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		// Disconnect() error during initialization cleanup is not
		// actionable; the connection failure is the error that matters.
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if database == "" {
		database = "gridpay"
	}
	if collection == "" {
		collection = "payments"
	}

	store := &MongoDBStore{
		client:   client,
		payments: client.Database(database).Collection(collection),
	}
	if err := store.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func (s *MongoDBStore) createIndexes(ctx context.Context) error {
	_, err := s.payments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "payer_address", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create payment indexes: %w", err)
	}
	return nil
}

// CreateIntent persists a new intent in pending state.
func (s *MongoDBStore) CreateIntent(ctx context.Context, intent PaymentIntent) error {
	if _, err := s.payments.InsertOne(ctx, intent); err != nil {
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}

// GetIntent returns the intent by id.
func (s *MongoDBStore) GetIntent(ctx context.Context, id string) (PaymentIntent, error) {
	var intent PaymentIntent
	err := s.payments.FindOne(ctx, bson.M{"_id": id}).Decode(&intent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return PaymentIntent{}, ErrNotFound
	}
	if err != nil {
		return PaymentIntent{}, fmt.Errorf("find payment intent: %w", err)
	}
	return intent, nil
}

// ResolveIntent transitions the intent from pending to a terminal status
// with a single conditional FindOneAndUpdate, matching the Postgres
// store's guarantee.
func (s *MongoDBStore) ResolveIntent(ctx context.Context, id string, status Status, txHash string, at time.Time) (PaymentIntent, error) {
	filter := bson.M{"_id": id, "status": StatusPending}
	update := bson.M{"$set": bson.M{"status": status, "tx_hash": txHash, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var intent PaymentIntent
	err := s.payments.FindOneAndUpdate(ctx, filter, update, opts).Decode(&intent)
	if err == nil {
		return intent, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return PaymentIntent{}, fmt.Errorf("resolve payment intent: %w", err)
	}

	existing, getErr := s.GetIntent(ctx, id)
	if getErr != nil {
		return PaymentIntent{}, getErr
	}
	if existing.Status.Terminal() {
		return existing, ErrAlreadyResolved
	}
	return PaymentIntent{}, fmt.Errorf("resolve payment intent %s: conditional update matched nothing", id)
}

// Close disconnects from MongoDB.
func (s *MongoDBStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBStore implements Store using MongoDB.
type MongoDBStore struct {
	client *mongo.Client
	calls  *mongo.Collection
}

// NewMongoDBStore creates a new MongoDB-backed trail.
func NewMongoDBStore(connectionString, database, collection string) (*MongoDBStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if database == "" {
		database = "gridpay"
	}
	if collection == "" {
		collection = "api_calls"
	}

	store := &MongoDBStore{
		client: client,
		calls:  client.Database(database).Collection(collection),
	}
	if err := store.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func (s *MongoDBStore) createIndexes(ctx context.Context) error {
	_, err := s.calls.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "caller_address", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create api call indexes: %w", err)
	}
	return nil
}

// Append implements the Store interface.
func (s *MongoDBStore) Append(ctx context.Context, rec Record) error {
	if _, err := s.calls.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert api call record: %w", err)
	}
	return nil
}

// List implements the Store interface.
func (s *MongoDBStore) List(ctx context.Context, limit, offset int) ([]Record, error) {
	limit, offset = clampPage(limit, offset)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := s.calls.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list api call records: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]Record, 0, limit)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode api call records: %w", err)
	}
	return out, nil
}

// Stats implements the Store interface.
func (s *MongoDBStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"total":  bson.M{"$sum": 1},
			"cached": bson.M{"$sum": bson.M{"$cond": bson.A{"$cache_hit", 1, 0}}},
			"month": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$created_at", monthStart(now)}}, 1, 0,
			}}},
			"succeeded": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$gte": bson.A{"$status", 200}},
					bson.M{"$lt": bson.A{"$status", 400}},
				}}, 1, 0,
			}}},
		}}},
	}

	cursor, err := s.calls.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate api call stats: %w", err)
	}
	defer cursor.Close(ctx)

	var row struct {
		Total     int64 `bson:"total"`
		Cached    int64 `bson:"cached"`
		Month     int64 `bson:"month"`
		Succeeded int64 `bson:"succeeded"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return Stats{}, fmt.Errorf("decode api call stats: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return Stats{}, fmt.Errorf("aggregate api call stats: %w", err)
	}

	stats := Stats{
		TotalCalls:     row.Total,
		CachedCalls:    row.Cached,
		CallsThisMonth: row.Month,
	}
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(row.Succeeded) / float64(stats.TotalCalls)
		stats.CacheHitRate = float64(stats.CachedCalls) / float64(stats.TotalCalls)
	}
	return stats, nil
}

// Close disconnects from MongoDB.
func (s *MongoDBStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

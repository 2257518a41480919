package usage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding usage events.
const CollectionName = "usage_events"

type mongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore constructs a MongoDB-backed usage store over coll.
func NewMongoStore(coll *mongo.Collection) *mongoStore {
	return &mongoStore{coll: coll}
}

// EnsureIndexes creates the (user_id, timestamp desc) index used by every query.
func (s *mongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    historyIndexKeys(),
		Options: options.Index().SetName("user_id_timestamp"),
	})
	return err
}

func (s *mongoStore) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	n, err := s.coll.CountDocuments(ctx, countFilter(userID, since))
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *mongoStore) Record(ctx context.Context, event Event) error {
	_, err := s.coll.InsertOne(ctx, event)
	return err
}

func (s *mongoStore) RecentHistory(ctx context.Context, userID string, limit int) ([]Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

func historyIndexKeys() bson.D {
	return bson.D{
		{Key: "user_id", Value: 1},
		{Key: "timestamp", Value: -1},
	}
}

func countFilter(userID string, since time.Time) bson.D {
	return bson.D{
		{Key: "user_id", Value: userID},
		{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: since}}},
	}
}

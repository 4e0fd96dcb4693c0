package store

import (
	"context"
	"time"

	"hrcases-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoHistoryStore is the status journal collection. Entries are only ever
// inserted.
type MongoHistoryStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoHistoryStore(db *mongo.Database, collection string, timeout time.Duration) *MongoHistoryStore {
	return &MongoHistoryStore{coll: db.Collection(collection), timeout: timeout}
}

func (s *MongoHistoryStore) Append(ctx context.Context, e *models.StatusHistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, e)
	if mongo.IsDuplicateKeyError(err) {
		// Same entry replayed by the reconciler after an ambiguous failure.
		return nil
	}
	return classify(err)
}

func (s *MongoHistoryStore) ListByCaseID(ctx context.Context, caseID string) ([]models.StatusHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{
		{Key: "changed_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := s.coll.Find(ctx, bson.M{"case_id": caseID}, findOptions)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	entries := []models.StatusHistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

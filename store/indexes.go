package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the lookup indexes the list, journal and analytics
// queries rely on. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, cases, history *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	caseIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "case_id", Value: 1}}},
		{Keys: bson.D{{Key: "date_reported", Value: 1}}},
		{Keys: bson.D{{Key: "date_occurred", Value: 1}}},
		{Keys: bson.D{{Key: "location.region", Value: 1}}},
		{Keys: bson.D{{Key: "violation_types", Value: 1}}},
	}
	if _, err := cases.Indexes().CreateMany(ctx, caseIndexes); err != nil {
		return fmt.Errorf("create case indexes: %w", err)
	}

	historyIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "changed_at", Value: 1}},
	}
	if _, err := history.Indexes().CreateOne(ctx, historyIndex); err != nil {
		return fmt.Errorf("create history index: %w", err)
	}
	return nil
}

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

// MongoCaseStore keeps cases in a single collection.
type MongoCaseStore struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

func NewMongoCaseStore(db *mongo.Database, collection string, timeout time.Duration) *MongoCaseStore {
	return &MongoCaseStore{
		coll:    db.Collection(collection),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoCaseStore) Insert(ctx context.Context, c *models.Case) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	c.ID = primitive.NewObjectID()
	c.Archived = false
	c.CreatedAt = now
	c.UpdatedAt = now
	ensureSlices(c)

	_, err := s.coll.InsertOne(ctx, c)
	return classify(err)
}

func (s *MongoCaseStore) findOne(ctx context.Context, filter bson.M) (*models.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var c models.Case
	if err := s.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (s *MongoCaseStore) FindActive(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	filter := activeOnly()
	filter["_id"] = id
	return s.findOne(ctx, filter)
}

func (s *MongoCaseStore) FindAny(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoCaseStore) Find(ctx context.Context, f models.CaseFilter, page models.Page) ([]models.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	findOptions := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.coll.Find(ctx, caseFilterDoc(f), findOptions)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	cases := make([]models.Case, 0, page.Limit)
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, classify(err)
	}
	return cases, nil
}

func (s *MongoCaseStore) Count(ctx context.Context, f models.CaseFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, caseFilterDoc(f))
	return n, classify(err)
}

func (s *MongoCaseStore) Replace(ctx context.Context, id primitive.ObjectID, c *models.Case) (*models.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ensureSlices(c)
	set := bson.M{
		"case_id":         c.CaseID,
		"title":           c.Title,
		"description":     c.Description,
		"violation_types": c.ViolationTypes,
		"status":          c.Status,
		"priority":        c.Priority,
		"location":        c.Location,
		"date_occurred":   c.DateOccurred,
		"date_reported":   c.DateReported,
		"victims":         c.Victims,
		"perpetrators":    c.Perpetrators,
		"evidence":        c.Evidence,
		"updated_at":      s.now(),
	}
	filter := activeOnly()
	filter["_id"] = id

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Case
	err := s.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, classify(err)
	}
	return &updated, nil
}

// SwapStatus reads the previous status in the same primitive that writes the
// new one, so concurrent swaps each observe a distinct predecessor. The
// returned stamp is the stored updated_at. It comes from this process's clock,
// so swaps racing from different replicas are ordered only as well as their
// clocks agree.
func (s *MongoCaseStore) SwapStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Case, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	at := s.now().Truncate(time.Millisecond)
	filter := activeOnly()
	filter["_id"] = id
	update := bson.M{"$set": bson.M{"status": status, "updated_at": at}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var before models.Case
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before); err != nil {
		return nil, time.Time{}, classify(err)
	}
	return &before, at, nil
}

func (s *MongoCaseStore) SetArchived(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"archived": true}})
	if err != nil {
		return classify(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoCaseStore) PushEvidence(ctx context.Context, id primitive.ObjectID, items []models.Evidence) (*models.Case, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := activeOnly()
	filter["_id"] = id
	update := bson.M{
		"$push": bson.M{"evidence": bson.M{"$each": items}},
		"$set":  bson.M{"updated_at": s.now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Case
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, classify(err)
	}
	return &updated, nil
}

func (s *MongoCaseStore) ActiveCaseIDExists(ctx context.Context, caseID string, exclude primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := activeOnly()
	filter["case_id"] = caseID
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

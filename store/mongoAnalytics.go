package store

import (
	"context"
	"time"

	"hrcases-be/models"

	"go.mongodb.org/mongo-driver/bson"
)

func (s *MongoCaseStore) aggregate(ctx context.Context, pipeline []bson.M, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return classify(err)
	}
	defer cursor.Close(ctx)

	return classify(cursor.All(ctx, out))
}

// CountByViolationType unwinds the violation set so a case counts once in
// every bucket it belongs to.
func (s *MongoCaseStore) CountByViolationType(ctx context.Context, f models.AnalyticsFilter) ([]models.ViolationTypeCount, error) {
	pipeline := []bson.M{
		{"$match": analyticsMatchDoc(f)},
		{"$unwind": "$violation_types"},
		{"$group": bson.M{
			"_id":   "$violation_types",
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
	}

	rows := []models.ViolationTypeCount{}
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoCaseStore) CountByDay(ctx context.Context, f models.AnalyticsFilter) ([]models.DayCount, error) {
	pipeline := []bson.M{
		{"$match": analyticsMatchDoc(f)},
		{"$group": bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$date_reported"},
				"month": bson.M{"$month": "$date_reported"},
				"day":   bson.M{"$dayOfMonth": "$date_reported"},
			},
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.month", Value: 1},
			{Key: "_id.day", Value: 1},
		}},
	}

	var raw []struct {
		ID struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
			Day   int `bson:"day"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := s.aggregate(ctx, pipeline, &raw); err != nil {
		return nil, err
	}

	rows := make([]models.DayCount, 0, len(raw))
	for _, r := range raw {
		day := time.Date(r.ID.Year, time.Month(r.ID.Month), r.ID.Day, 0, 0, 0, 0, time.UTC)
		rows = append(rows, models.DayCount{Date: models.NewDate(day), Count: r.Count})
	}
	return rows, nil
}

// CountByGeography merges cases only when country, region and the exact
// point all coincide.
func (s *MongoCaseStore) CountByGeography(ctx context.Context, f models.AnalyticsFilter) ([]models.GeoCount, error) {
	pipeline := []bson.M{
		{"$match": analyticsMatchDoc(f)},
		{"$group": bson.M{
			"_id": bson.M{
				"country":     "$location.country",
				"region":      "$location.region",
				"coordinates": "$location.coordinates.coordinates",
			},
			"count": bson.M{"$sum": 1},
		}},
	}

	var raw []struct {
		ID struct {
			Country     string    `bson:"country"`
			Region      string    `bson:"region"`
			Coordinates []float64 `bson:"coordinates"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := s.aggregate(ctx, pipeline, &raw); err != nil {
		return nil, err
	}

	rows := make([]models.GeoCount, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, models.GeoCount{
			Country:     r.ID.Country,
			Region:      r.ID.Region,
			Coordinates: r.ID.Coordinates,
			Count:       r.Count,
		})
	}
	return rows, nil
}

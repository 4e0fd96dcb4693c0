package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"hrcases-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// activeOnly excludes soft-deleted cases; documents without the flag are active.
func activeOnly() bson.M {
	return bson.M{"archived": bson.M{"$ne": true}}
}

// exactFold matches s exactly, ignoring case. s is escaped so user input
// cannot inject a pattern.
func exactFold(s string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(s) + "$", "$options": "i"}
}

// dayRange is the inclusive [from, to] calendar window as a half-open
// datetime range.
func dayRange(from, to *models.Date) bson.M {
	r := bson.M{}
	if from != nil {
		r["$gte"] = from.Time
	}
	if to != nil {
		r["$lt"] = to.NextDay().Time
	}
	return r
}

func caseFilterDoc(f models.CaseFilter) bson.M {
	q := activeOnly()
	if f.DateOccurred != nil {
		q["date_occurred"] = dayRange(f.DateOccurred, f.DateOccurred)
	}
	if f.Country != "" {
		q["location.country"] = exactFold(f.Country)
	}
	if f.Region != "" {
		q["location.region"] = exactFold(f.Region)
	}
	if f.ViolationType != "" {
		q["violation_types"] = f.ViolationType
	}
	if f.Priority != "" {
		q["priority"] = exactFold(f.Priority)
	}
	if f.Status != "" {
		q["status"] = exactFold(f.Status)
	}
	if f.ReportedFrom != nil || f.ReportedTo != nil {
		q["date_reported"] = dayRange(f.ReportedFrom, f.ReportedTo)
	}
	return q
}

func analyticsMatchDoc(f models.AnalyticsFilter) bson.M {
	q := activeOnly()
	if f.Start != nil || f.End != nil {
		q["date_reported"] = dayRange(f.Start, f.End)
	}
	if f.Region != "" {
		q["location.region"] = exactFold(f.Region)
	}
	if f.ViolationType != "" {
		q["violation_types"] = f.ViolationType
	}
	return q
}

// classify maps driver errors onto the store sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	default:
		return err
	}
}

// Package store persists cases and their status journal. Every interface has
// a MongoDB implementation for production and an in-memory one for tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrcases-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("invalid identifier")
	ErrTransient = errors.New("storage unavailable")
)

// ParseID resolves an opaque case identity into a store id.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

// CaseStore owns Case documents. "Active" means not archived.
type CaseStore interface {
	// Insert assigns c.ID and timestamps, then persists c with archived unset.
	Insert(ctx context.Context, c *models.Case) error
	FindActive(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	// FindAny also resolves archived cases.
	FindAny(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	Find(ctx context.Context, f models.CaseFilter, page models.Page) ([]models.Case, error)
	Count(ctx context.Context, f models.CaseFilter) (int64, error)
	// Replace overwrites every documented field of an active case.
	Replace(ctx context.Context, id primitive.ObjectID, c *models.Case) (*models.Case, error)
	// SwapStatus atomically sets the status of an active case and returns
	// the document as it was before the write, together with the updated_at
	// stamp the write recorded.
	SwapStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Case, time.Time, error)
	// SetArchived is idempotent; it fails only for ids that never existed.
	SetArchived(ctx context.Context, id primitive.ObjectID) error
	// PushEvidence atomically appends items and returns the updated case.
	PushEvidence(ctx context.Context, id primitive.ObjectID, items []models.Evidence) (*models.Case, error)
	// ActiveCaseIDExists reports whether another active case uses caseID.
	ActiveCaseIDExists(ctx context.Context, caseID string, exclude primitive.ObjectID) (bool, error)
}

// HistoryStore is the append-only status journal.
type HistoryStore interface {
	Append(ctx context.Context, e *models.StatusHistoryEntry) error
	// ListByCaseID returns entries ordered by changed_at ascending.
	ListByCaseID(ctx context.Context, caseID string) ([]models.StatusHistoryEntry, error)
}

// AnalyticsSource computes raw grouped counts over active cases.
// Ordering of the returned rows is not significant.
type AnalyticsSource interface {
	CountByViolationType(ctx context.Context, f models.AnalyticsFilter) ([]models.ViolationTypeCount, error)
	CountByDay(ctx context.Context, f models.AnalyticsFilter) ([]models.DayCount, error)
	CountByGeography(ctx context.Context, f models.AnalyticsFilter) ([]models.GeoCount, error)
}

// HistoryOutbox holds journal entries whose append failed, until the
// reconciler manages to write them.
type HistoryOutbox interface {
	Push(ctx context.Context, e models.StatusHistoryEntry) error
	// Pop removes the oldest entry. It returns nil, nil when empty.
	Pop(ctx context.Context) (*models.StatusHistoryEntry, error)
	// Requeue puts e back as the oldest entry.
	Requeue(ctx context.Context, e models.StatusHistoryEntry) error
	Len(ctx context.Context) (int64, error)
}

// ensureSlices stores optional sequences as empty arrays so that $push and
// JSON consumers never see null.
func ensureSlices(c *models.Case) {
	if c.Victims == nil {
		c.Victims = []string{}
	}
	if c.Perpetrators == nil {
		c.Perpetrators = []models.Perpetrator{}
	}
	if c.Evidence == nil {
		c.Evidence = []models.Evidence{}
	}
}

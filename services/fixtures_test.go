package services

import (
	"context"
	"errors"
	"sync"

	"hrcases-be/models"
	"hrcases-be/store"
)

func newCase(caseID string, reported string, region string, types ...string) *models.Case {
	return &models.Case{
		CaseID:         caseID,
		Title:          "Report " + caseID,
		Description:    "details",
		Status:         "open",
		ViolationTypes: types,
		Location: models.Location{
			Country:     "X",
			Region:      region,
			Coordinates: models.NewGeoPoint(10, 20),
		},
		DateOccurred: models.MustParseDate("2024-03-01"),
		DateReported: models.MustParseDate(reported),
	}
}

var errJournalDown = errors.New("journal unavailable")

// flakyHistory fails Append while down is set.
type flakyHistory struct {
	*store.MemoryHistoryStore
	mu   sync.Mutex
	down bool
}

func newFlakyHistory() *flakyHistory {
	return &flakyHistory{MemoryHistoryStore: store.NewMemoryHistoryStore()}
}

func (h *flakyHistory) setDown(down bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.down = down
}

func (h *flakyHistory) Append(ctx context.Context, e *models.StatusHistoryEntry) error {
	h.mu.Lock()
	down := h.down
	h.mu.Unlock()
	if down {
		return errJournalDown
	}
	return h.MemoryHistoryStore.Append(ctx, e)
}

// brokenOutbox refuses every push.
type brokenOutbox struct {
	store.MemoryHistoryOutbox
}

func (*brokenOutbox) Push(context.Context, models.StatusHistoryEntry) error {
	return errors.New("outbox unavailable")
}

// countingInvalidator records Invalidate calls.
type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// unavailableSource fails every aggregation as a dropped connection would.
type unavailableSource struct{}

func (unavailableSource) CountByViolationType(context.Context, models.AnalyticsFilter) ([]models.ViolationTypeCount, error) {
	return nil, store.ErrTransient
}

func (unavailableSource) CountByDay(context.Context, models.AnalyticsFilter) ([]models.DayCount, error) {
	return nil, store.ErrTransient
}

func (unavailableSource) CountByGeography(context.Context, models.AnalyticsFilter) ([]models.GeoCount, error) {
	return nil, store.ErrTransient
}

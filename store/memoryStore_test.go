package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"hrcases-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleCase(caseID, region string, reported string, types ...string) *models.Case {
	return &models.Case{
		CaseID:         caseID,
		Title:          "Case " + caseID,
		Status:         "open",
		ViolationTypes: types,
		Location: models.Location{
			Country:     "Ukraine",
			Region:      region,
			Coordinates: models.NewGeoPoint(30.5, 50.4),
		},
		DateOccurred: models.MustParseDate("2024-01-01"),
		DateReported: models.MustParseDate(reported),
	}
}

func TestMemoryCaseStoreInsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCaseStore()

	c := sampleCase("HR-1", "Kyiv", "2024-01-02", "torture")
	require.NoError(t, s.Insert(ctx, c))
	assert.False(t, c.ID.IsZero())
	assert.NotNil(t, c.Evidence)

	got, err := s.FindActive(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "HR-1", got.CaseID)

	got.Title = "mutated"
	again, err := s.FindActive(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Case HR-1", again.Title)

	_, err = s.FindActive(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCaseStoreArchive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCaseStore()
	c := sampleCase("HR-1", "Kyiv", "2024-01-02", "torture")
	require.NoError(t, s.Insert(ctx, c))

	require.NoError(t, s.SetArchived(ctx, c.ID))
	require.NoError(t, s.SetArchived(ctx, c.ID))

	_, err := s.FindActive(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindAny(ctx, c.ID)
	assert.NoError(t, err)
	_, _, err = s.SwapStatus(ctx, c.ID, "closed")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.PushEvidence(ctx, c.ID, []models.Evidence{{Type: "image", URL: "u"}})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.SetArchived(ctx, primitive.NewObjectID()), ErrNotFound)
}

func TestMemoryCaseStoreFindFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCaseStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Insert(ctx, sampleCase(fmt.Sprintf("HR-%d", i), "Kyiv", "2024-01-02", "torture")))
	}
	other := sampleCase("HR-X", "Lviv", "2024-02-02", "forced_displacement")
	require.NoError(t, s.Insert(ctx, other))

	page, err := s.Find(ctx, models.CaseFilter{Region: "KYIV"}, models.Page{Limit: 2, Skip: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "HR-1", page[0].CaseID)
	assert.Equal(t, "HR-2", page[1].CaseID)

	n, err := s.Count(ctx, models.CaseFilter{ViolationType: "torture"})
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	from := models.MustParseDate("2024-02-02")
	page, err = s.Find(ctx, models.CaseFilter{ReportedFrom: &from}, models.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "HR-X", page[0].CaseID)
}

func TestMemoryCaseStoreSwapStatusReturnsPrevious(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCaseStore()
	c := sampleCase("HR-1", "Kyiv", "2024-01-02", "torture")
	require.NoError(t, s.Insert(ctx, c))

	before, at, err := s.SwapStatus(ctx, c.ID, "under_investigation")
	require.NoError(t, err)
	assert.Equal(t, "open", before.Status)

	now, err := s.FindActive(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "under_investigation", now.Status)
	assert.True(t, now.UpdatedAt.Equal(at))
}

func TestMemoryCaseStoreSwapStampsIncreaseOnFrozenClock(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCaseStore()
	frozen := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }
	c := sampleCase("HR-1", "Kyiv", "2024-01-02", "torture")
	require.NoError(t, s.Insert(ctx, c))

	var prev time.Time
	for _, status := range []string{"a", "b", "c"} {
		_, at, err := s.SwapStatus(ctx, c.ID, status)
		require.NoError(t, err)
		assert.True(t, at.After(prev), "stamp %v not after %v", at, prev)
		prev = at
	}
}

func TestMemoryCaseStoreConcurrentPushEvidence(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCaseStore()
	c := sampleCase("HR-1", "Kyiv", "2024-01-02", "torture")
	require.NoError(t, s.Insert(ctx, c))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.PushEvidence(ctx, c.ID, []models.Evidence{{Type: "image", URL: fmt.Sprintf("u%d", i)}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.FindActive(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Evidence, 20)
}

func TestMemoryCaseStoreActiveCaseIDExists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCaseStore()
	c := sampleCase("HR-1", "Kyiv", "2024-01-02", "torture")
	require.NoError(t, s.Insert(ctx, c))

	exists, err := s.ActiveCaseIDExists(ctx, "HR-1", primitive.NilObjectID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ActiveCaseIDExists(ctx, "HR-1", c.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.SetArchived(ctx, c.ID))
	exists, err = s.ActiveCaseIDExists(ctx, "HR-1", primitive.NilObjectID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryHistoryStoreIgnoresReplays(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistoryStore()
	e := &models.StatusHistoryEntry{ID: primitive.NewObjectID(), CaseID: "HR-1", OldStatus: "open", NewStatus: "closed"}

	require.NoError(t, h.Append(ctx, e))
	require.NoError(t, h.Append(ctx, e))

	entries, err := h.ListByCaseID(ctx, "HR-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = h.ListByCaseID(ctx, "HR-2")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestMemoryOutboxIsFIFOWithRequeueAtFront(t *testing.T) {
	ctx := context.Background()
	o := NewMemoryHistoryOutbox()
	require.NoError(t, o.Push(ctx, models.StatusHistoryEntry{NewStatus: "a"}))
	require.NoError(t, o.Push(ctx, models.StatusHistoryEntry{NewStatus: "b"}))

	first, err := o.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", first.NewStatus)

	require.NoError(t, o.Requeue(ctx, *first))
	n, _ := o.Len(ctx)
	assert.EqualValues(t, 2, n)

	again, err := o.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again.NewStatus)
	next, err := o.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", next.NewStatus)

	empty, err := o.Pop(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

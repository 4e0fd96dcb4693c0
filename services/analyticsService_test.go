package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hrcases-be/apperrors"
	"hrcases-be/metrics"
	"hrcases-be/models"
	"hrcases-be/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type analyticsFixture struct {
	ctx       context.Context
	cases     *CaseService
	analytics *AnalyticsService
	metrics   *metrics.Metrics
}

func newAnalyticsFixture(t *testing.T, cache AnalyticsCache) *analyticsFixture {
	t.Helper()
	caseStore := store.NewMemoryCaseStore()
	m := metrics.NewNop()
	return &analyticsFixture{
		ctx: context.Background(),
		cases: NewCaseService(CaseServiceDeps{
			Cases:   caseStore,
			History: store.NewMemoryHistoryStore(),
			Cache:   cache,
			Metrics: m,
			Logger:  zap.NewNop(),
		}),
		analytics: NewAnalyticsService(caseStore, cache, m, zap.NewNop()),
		metrics:   m,
	}
}

func (f *analyticsFixture) create(t *testing.T, c *models.Case) *models.Case {
	t.Helper()
	created, err := f.cases.Create(f.ctx, c)
	require.NoError(t, err)
	return created
}

func TestAnalyticsExampleScenario(t *testing.T) {
	f := newAnalyticsFixture(t, nil)
	f.create(t, newCase("ID-1", "2024-03-05", "R1", "torture", "arbitrary detention"))

	types, err := f.analytics.CountByViolationType(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.ViolationTypeCount{
		{ViolationType: "arbitrary detention", Count: 1},
		{ViolationType: "torture", Count: 1},
	}, types)

	days, err := f.analytics.CountByDay(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.DayCount{{Date: models.MustParseDate("2024-03-05"), Count: 1}}, days)

	geo, err := f.analytics.CountByGeography(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.GeoCount{{Country: "X", Region: "R1", Coordinates: []float64{10, 20}, Count: 1}}, geo)
}

func TestAnalyticsOrdering(t *testing.T) {
	f := newAnalyticsFixture(t, nil)
	f.create(t, newCase("A", "2024-03-07", "R1", "torture"))
	f.create(t, newCase("B", "2024-03-05", "R1", "torture", "forced labour"))
	f.create(t, newCase("C", "2024-03-06", "R2", "arbitrary detention"))
	other := newCase("D", "2024-03-05", "R1", "torture")
	other.Location.Coordinates = models.NewGeoPoint(11, 21)
	f.create(t, other)

	types, err := f.analytics.CountByViolationType(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.ViolationTypeCount{
		{ViolationType: "torture", Count: 3},
		{ViolationType: "arbitrary detention", Count: 1},
		{ViolationType: "forced labour", Count: 1},
	}, types)

	days, err := f.analytics.CountByDay(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-03-05", days[0].Date.String())
	assert.EqualValues(t, 2, days[0].Count)
	assert.Equal(t, "2024-03-07", days[2].Date.String())

	geo, err := f.analytics.CountByGeography(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, geo, 3)
	assert.Equal(t, models.GeoCount{Country: "X", Region: "R1", Coordinates: []float64{10, 20}, Count: 2}, geo[0])
	assert.Equal(t, "R1", geo[1].Region)
	assert.Equal(t, []float64{11, 21}, geo[1].Coordinates)
	assert.Equal(t, "R2", geo[2].Region)
}

func TestAnalyticsFiltersAndArchivedExclusion(t *testing.T) {
	f := newAnalyticsFixture(t, nil)
	f.create(t, newCase("A", "2024-03-05", "R1", "torture"))
	f.create(t, newCase("B", "2024-03-10", "R1", "torture"))
	f.create(t, newCase("C", "2024-03-05", "R2", "torture"))
	gone := f.create(t, newCase("D", "2024-03-05", "R1", "torture", "forced labour"))
	require.NoError(t, f.cases.Archive(f.ctx, gone.ID.Hex()))

	start := models.MustParseDate("2024-03-05")
	end := models.MustParseDate("2024-03-05")
	filter := models.AnalyticsFilter{Start: &start, End: &end, Region: "r1"}

	types, err := f.analytics.CountByViolationType(f.ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, []models.ViolationTypeCount{{ViolationType: "torture", Count: 1}}, types)

	// Geography ignores the region filter but honours the dates.
	geo, err := f.analytics.CountByGeography(f.ctx, filter)
	require.NoError(t, err)
	require.Len(t, geo, 2)
	for _, g := range geo {
		assert.EqualValues(t, 1, g.Count)
	}

	days, err := f.analytics.CountByDay(f.ctx, models.AnalyticsFilter{ViolationType: "forced labour"})
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestAnalyticsConsistentWithList(t *testing.T) {
	f := newAnalyticsFixture(t, nil)
	fixtures := []*models.Case{
		newCase("A", "2024-03-01", "R1", "torture", "arbitrary detention"),
		newCase("B", "2024-03-02", "R1", "torture"),
		newCase("C", "2024-03-03", "R2", "forced labour", "torture", "arbitrary detention"),
		newCase("D", "2024-03-04", "r1", "forced labour"),
		newCase("E", "2024-04-01", "R1", "torture"),
	}
	for _, c := range fixtures {
		f.create(t, c)
	}

	start := models.MustParseDate("2024-03-01")
	end := models.MustParseDate("2024-03-31")
	for _, region := range []string{"", "R1", "R2"} {
		types, err := f.analytics.CountByViolationType(f.ctx, models.AnalyticsFilter{Start: &start, End: &end, Region: region})
		require.NoError(t, err)
		var sum int64
		for _, row := range types {
			sum += row.Count
		}

		list, err := f.cases.List(f.ctx, models.CaseFilter{Region: region, ReportedFrom: &start, ReportedTo: &end}, models.Page{Limit: models.MaxPageLimit})
		require.NoError(t, err)
		var pairs int64
		for _, c := range list.Cases {
			pairs += int64(len(c.ViolationTypes))
		}
		assert.Equal(t, pairs, sum, "region %q", region)
	}
}

func TestAnalyticsRejectsInvertedRange(t *testing.T) {
	f := newAnalyticsFixture(t, nil)
	start := models.MustParseDate("2024-03-06")
	end := models.MustParseDate("2024-03-05")

	_, err := f.analytics.CountByDay(f.ctx, models.AnalyticsFilter{Start: &start, End: &end})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestAnalyticsTransientSourceIsRetryable(t *testing.T) {
	a := NewAnalyticsService(unavailableSource{}, nil, nil, nil)

	_, err := a.CountByViolationType(context.Background(), models.AnalyticsFilter{})
	assert.True(t, apperrors.IsRetryable(err))
}

func newMiniredisCache(t *testing.T) (*RedisAnalyticsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAnalyticsCache(client, time.Minute, ""), mr
}

func TestAnalyticsCacheHitAndInvalidation(t *testing.T) {
	cache, _ := newMiniredisCache(t)
	f := newAnalyticsFixture(t, cache)
	f.create(t, newCase("A", "2024-03-05", "R1", "torture"))

	first, err := f.analytics.CountByViolationType(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	second, err := f.analytics.CountByViolationType(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AnalyticsCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AnalyticsCache.WithLabelValues("hit")))

	days, err := f.analytics.CountByDay(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	cachedDays, err := f.analytics.CountByDay(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, days, cachedDays)

	// A write must be visible to the next read.
	f.create(t, newCase("B", "2024-03-05", "R1", "torture"))
	after, err := f.analytics.CountByViolationType(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.ViolationTypeCount{{ViolationType: "torture", Count: 2}}, after)
}

func TestAnalyticsCacheOutageFallsBackToStore(t *testing.T) {
	cache, mr := newMiniredisCache(t)
	f := newAnalyticsFixture(t, cache)
	f.create(t, newCase("A", "2024-03-05", "R1", "torture"))
	mr.Close()

	rows, err := f.analytics.CountByViolationType(f.ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.ViolationTypeCount{{ViolationType: "torture", Count: 1}}, rows)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AnalyticsCache.WithLabelValues("error")))
}

func TestRedisAnalyticsCacheGenerations(t *testing.T) {
	ctx := context.Background()
	cache, mr := newMiniredisCache(t)

	entry, err := cache.Resolve(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, DefaultCachePrefix+":0:k", entry)

	require.NoError(t, cache.Set(ctx, entry, []int{1, 2}))
	var got []int
	hit, err := cache.Get(ctx, entry, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, time.Minute, mr.TTL(entry))

	require.NoError(t, cache.Invalidate(ctx))
	next, err := cache.Resolve(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, DefaultCachePrefix+":1:k", next)
	hit, err = cache.Get(ctx, next, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

// interleavedSource runs duringLoad once, after the first aggregation has
// read the store but before its rows reach the cache.
type interleavedSource struct {
	*store.MemoryCaseStore
	once       sync.Once
	duringLoad func()
}

func (s *interleavedSource) CountByViolationType(ctx context.Context, f models.AnalyticsFilter) ([]models.ViolationTypeCount, error) {
	rows, err := s.MemoryCaseStore.CountByViolationType(ctx, f)
	s.once.Do(s.duringLoad)
	return rows, err
}

func TestAnalyticsCacheWriteDuringLoadIsNotServedStale(t *testing.T) {
	ctx := context.Background()
	cache, _ := newMiniredisCache(t)
	caseStore := store.NewMemoryCaseStore()
	cases := NewCaseService(CaseServiceDeps{
		Cases:   caseStore,
		History: store.NewMemoryHistoryStore(),
		Cache:   cache,
	})
	_, err := cases.Create(ctx, newCase("A", "2024-03-05", "R1", "torture"))
	require.NoError(t, err)

	source := &interleavedSource{MemoryCaseStore: caseStore}
	source.duringLoad = func() {
		_, err := cases.Create(ctx, newCase("B", "2024-03-05", "R1", "torture"))
		require.NoError(t, err)
	}
	analytics := NewAnalyticsService(source, cache, nil, nil)

	during, err := analytics.CountByViolationType(ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.ViolationTypeCount{{ViolationType: "torture", Count: 1}}, during)

	after, err := analytics.CountByViolationType(ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.ViolationTypeCount{{ViolationType: "torture", Count: 2}}, after)

	cachedAgain, err := analytics.CountByViolationType(ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, after, cachedAgain)
}

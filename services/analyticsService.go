package services

import (
	"context"
	"sort"
	"strings"

	"hrcases-be/apperrors"
	"hrcases-be/metrics"
	"hrcases-be/models"
	"hrcases-be/store"

	"go.uber.org/zap"
)

// AnalyticsService computes read-only aggregates over active cases.
type AnalyticsService struct {
	source  store.AnalyticsSource
	cache   AnalyticsCache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewAnalyticsService(source store.AnalyticsSource, cache AnalyticsCache, m *metrics.Metrics, logger *zap.Logger) *AnalyticsService {
	if cache == nil {
		cache = NopAnalyticsCache{}
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{source: source, cache: cache, metrics: m, logger: logger}
}

func normalizeAnalyticsFilter(op string, f models.AnalyticsFilter) (models.AnalyticsFilter, error) {
	f.Region = strings.TrimSpace(f.Region)
	f.ViolationType = strings.TrimSpace(f.ViolationType)
	if f.Start != nil && f.End != nil && f.Start.After(*f.End) {
		return f, apperrors.Validation(op, "invalid date range",
			map[string]string{"start_date": "must not be after end_date"})
	}
	return f, nil
}

// cached serves op from the cache when possible. Cache failures fall back
// to the store; they never fail the request. The entry is resolved once,
// before the load, so rows read ahead of a concurrent write are stored under
// the generation that write retired.
func cached[T any](ctx context.Context, a *AnalyticsService, op string, f models.AnalyticsFilter, load func(context.Context) ([]T, error)) ([]T, error) {
	entry, err := a.cache.Resolve(ctx, op+":"+f.Key())
	if err != nil {
		a.metrics.AnalyticsCache.WithLabelValues("error").Inc()
		a.logger.Warn("analytics cache read failed", zap.String("op", op), zap.Error(err))
		rows, err := load(ctx)
		if err != nil {
			return nil, storeError(op, err)
		}
		return rows, nil
	}

	var rows []T
	hit, err := a.cache.Get(ctx, entry, &rows)
	switch {
	case err != nil:
		a.metrics.AnalyticsCache.WithLabelValues("error").Inc()
		a.logger.Warn("analytics cache read failed", zap.String("op", op), zap.Error(err))
	case hit:
		a.metrics.AnalyticsCache.WithLabelValues("hit").Inc()
		return rows, nil
	default:
		a.metrics.AnalyticsCache.WithLabelValues("miss").Inc()
	}

	rows, err = load(ctx)
	if err != nil {
		return nil, storeError(op, err)
	}
	if err := a.cache.Set(ctx, entry, rows); err != nil {
		a.logger.Warn("analytics cache write failed", zap.String("op", op), zap.Error(err))
	}
	return rows, nil
}

// CountByViolationType counts case memberships per violation type, ordered
// by count descending and then by type name.
func (a *AnalyticsService) CountByViolationType(ctx context.Context, f models.AnalyticsFilter) ([]models.ViolationTypeCount, error) {
	const op = "CountByViolationType"
	f, err := normalizeAnalyticsFilter(op, f)
	if err != nil {
		return nil, err
	}
	f.ViolationType = ""

	return cached(ctx, a, op, f, func(ctx context.Context) ([]models.ViolationTypeCount, error) {
		rows, err := a.source.CountByViolationType(ctx, f)
		if err != nil {
			return nil, err
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Count != rows[j].Count {
				return rows[i].Count > rows[j].Count
			}
			return rows[i].ViolationType < rows[j].ViolationType
		})
		return rows, nil
	})
}

// CountByDay is a sparse series of cases per reporting day, oldest first.
func (a *AnalyticsService) CountByDay(ctx context.Context, f models.AnalyticsFilter) ([]models.DayCount, error) {
	const op = "CountByDay"
	f, err := normalizeAnalyticsFilter(op, f)
	if err != nil {
		return nil, err
	}

	return cached(ctx, a, op, f, func(ctx context.Context) ([]models.DayCount, error) {
		rows, err := a.source.CountByDay(ctx, f)
		if err != nil {
			return nil, err
		}
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Date.Before(rows[j].Date)
		})
		return rows, nil
	})
}

// CountByGeography counts cases per (country, region, point).
func (a *AnalyticsService) CountByGeography(ctx context.Context, f models.AnalyticsFilter) ([]models.GeoCount, error) {
	const op = "CountByGeography"
	f, err := normalizeAnalyticsFilter(op, f)
	if err != nil {
		return nil, err
	}
	f.Region = ""

	return cached(ctx, a, op, f, func(ctx context.Context) ([]models.GeoCount, error) {
		rows, err := a.source.CountByGeography(ctx, f)
		if err != nil {
			return nil, err
		}
		sort.Slice(rows, func(i, j int) bool {
			return geoLess(rows[i], rows[j])
		})
		return rows, nil
	})
}

func geoLess(a, b models.GeoCount) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	if a.Country != b.Country {
		return a.Country < b.Country
	}
	if a.Region != b.Region {
		return a.Region < b.Region
	}
	for i := 0; i < len(a.Coordinates) && i < len(b.Coordinates); i++ {
		if a.Coordinates[i] != b.Coordinates[i] {
			return a.Coordinates[i] < b.Coordinates[i]
		}
	}
	return len(a.Coordinates) < len(b.Coordinates)
}

package store

import (
	"context"

	"hrcases-be/models"
)

func (s *MemoryCaseStore) population(f models.AnalyticsFilter) []*models.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Case, 0, len(s.order))
	for _, id := range s.order {
		if c := s.cases[id]; MatchAnalytics(c, f) {
			out = append(out, c.Clone())
		}
	}
	return out
}

func (s *MemoryCaseStore) CountByViolationType(_ context.Context, f models.AnalyticsFilter) ([]models.ViolationTypeCount, error) {
	counts := map[string]int64{}
	var order []string
	for _, c := range s.population(f) {
		for _, t := range c.ViolationTypes {
			if _, seen := counts[t]; !seen {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	rows := make([]models.ViolationTypeCount, 0, len(order))
	for _, t := range order {
		rows = append(rows, models.ViolationTypeCount{ViolationType: t, Count: counts[t]})
	}
	return rows, nil
}

func (s *MemoryCaseStore) CountByDay(_ context.Context, f models.AnalyticsFilter) ([]models.DayCount, error) {
	counts := map[models.Date]int64{}
	var order []models.Date
	for _, c := range s.population(f) {
		day := models.NewDate(c.DateReported.Time)
		if _, seen := counts[day]; !seen {
			order = append(order, day)
		}
		counts[day]++
	}

	rows := make([]models.DayCount, 0, len(order))
	for _, d := range order {
		rows = append(rows, models.DayCount{Date: d, Count: counts[d]})
	}
	return rows, nil
}

type geoKey struct {
	country, region string
	lon, lat        float64
	n               int
}

func (s *MemoryCaseStore) CountByGeography(_ context.Context, f models.AnalyticsFilter) ([]models.GeoCount, error) {
	counts := map[geoKey]int64{}
	points := map[geoKey][]float64{}
	var order []geoKey
	for _, c := range s.population(f) {
		coords := c.Location.Coordinates.Coordinates
		k := geoKey{country: c.Location.Country, region: c.Location.Region, n: len(coords)}
		if len(coords) > 0 {
			k.lon = coords[0]
		}
		if len(coords) > 1 {
			k.lat = coords[1]
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
			points[k] = append([]float64(nil), coords...)
		}
		counts[k]++
	}

	rows := make([]models.GeoCount, 0, len(order))
	for _, k := range order {
		rows = append(rows, models.GeoCount{
			Country:     k.country,
			Region:      k.region,
			Coordinates: points[k],
			Count:       counts[k],
		})
	}
	return rows, nil
}

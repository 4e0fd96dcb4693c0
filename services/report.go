package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"hrcases-be/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Report bundles the three aggregations for one filter.
type Report struct {
	Filter     models.AnalyticsFilter      `json:"-"`
	Violations []models.ViolationTypeCount `json:"violations"`
	Timeline   []models.DayCount           `json:"timeline"`
	Locations  []models.GeoCount           `json:"locations"`
}

// BuildReport runs the aggregations concurrently. Each one sees the filter
// fields its own signature accepts.
func (a *AnalyticsService) BuildReport(ctx context.Context, f models.AnalyticsFilter) (*Report, error) {
	r := &Report{Filter: f}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := a.CountByViolationType(gctx, f)
		r.Violations = rows
		return err
	})
	g.Go(func() error {
		rows, err := a.CountByDay(gctx, f)
		r.Timeline = rows
		return err
	})
	g.Go(func() error {
		rows, err := a.CountByGeography(gctx, f)
		r.Locations = rows
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// Report sheet names.
const (
	SheetViolations = "Violations"
	SheetTimeline   = "Timeline"
	SheetLocations  = "Locations"
)

// WriteXLSX renders the report as a workbook with one sheet per aggregation.
func (r *Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetViolations); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetTimeline); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetLocations); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	violations := [][]interface{}{{"Violation Type", "Number of Cases"}}
	for _, v := range r.Violations {
		violations = append(violations, []interface{}{v.ViolationType, v.Count})
	}
	timeline := [][]interface{}{{"Date", "Number of Cases"}}
	for _, d := range r.Timeline {
		timeline = append(timeline, []interface{}{d.Date.String(), d.Count})
	}
	locations := [][]interface{}{{"Country", "Region", "Longitude", "Latitude", "Number of Cases"}}
	for _, l := range r.Locations {
		region := l.Region
		if region == "" {
			region = "N/A"
		}
		var lon, lat float64
		if len(l.Coordinates) == 2 {
			lon, lat = l.Coordinates[0], l.Coordinates[1]
		}
		locations = append(locations, []interface{}{l.Country, region, lon, lat, l.Count})
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetViolations: violations,
		SheetTimeline:   timeline,
		SheetLocations:  locations,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", strings.ToLower(sheet), i+1, err)
		}
	}
	return nil
}

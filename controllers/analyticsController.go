package controllers

import (
	"bytes"
	"context"
	"net/http"

	"hrcases-be/models"
	"hrcases-be/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyticsService is the read-only aggregation surface.
type AnalyticsService interface {
	CountByViolationType(ctx context.Context, f models.AnalyticsFilter) ([]models.ViolationTypeCount, error)
	CountByDay(ctx context.Context, f models.AnalyticsFilter) ([]models.DayCount, error)
	CountByGeography(ctx context.Context, f models.AnalyticsFilter) ([]models.GeoCount, error)
	BuildReport(ctx context.Context, f models.AnalyticsFilter) (*services.Report, error)
}

type AnalyticsController struct {
	analytics AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsController(analytics AnalyticsService, logger *zap.Logger) *AnalyticsController {
	return &AnalyticsController{analytics: analytics, logger: logger}
}

func (ac *AnalyticsController) filter(c *gin.Context) (models.AnalyticsFilter, bool) {
	f := models.AnalyticsFilter{
		Region:        c.Query("region"),
		ViolationType: c.Query("violation_type"),
	}
	var ok bool
	if f.Start, ok = optionalDate(c, "start_date"); !ok {
		return f, false
	}
	if f.End, ok = optionalDate(c, "end_date"); !ok {
		return f, false
	}
	return f, true
}

// GetViolationsByType handles GET /analytics/violations
func (ac *AnalyticsController) GetViolationsByType(c *gin.Context) {
	f, ok := ac.filter(c)
	if !ok {
		return
	}
	rows, err := ac.analytics.CountByViolationType(c.Request.Context(), f)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	if rows == nil {
		rows = []models.ViolationTypeCount{}
	}
	c.JSON(http.StatusOK, rows)
}

// GetTimeline handles GET /analytics/timeline
func (ac *AnalyticsController) GetTimeline(c *gin.Context) {
	f, ok := ac.filter(c)
	if !ok {
		return
	}
	rows, err := ac.analytics.CountByDay(c.Request.Context(), f)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	if rows == nil {
		rows = []models.DayCount{}
	}
	c.JSON(http.StatusOK, rows)
}

// GetGeodata handles GET /analytics/geodata
func (ac *AnalyticsController) GetGeodata(c *gin.Context) {
	f, ok := ac.filter(c)
	if !ok {
		return
	}
	rows, err := ac.analytics.CountByGeography(c.Request.Context(), f)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	if rows == nil {
		rows = []models.GeoCount{}
	}
	c.JSON(http.StatusOK, rows)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DownloadReport handles GET /analytics/report.xlsx
func (ac *AnalyticsController) DownloadReport(c *gin.Context) {
	f, ok := ac.filter(c)
	if !ok {
		return
	}
	report, err := ac.analytics.BuildReport(c.Request.Context(), f)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf); err != nil {
		ac.logger.Error("failed to render report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="violations_report.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

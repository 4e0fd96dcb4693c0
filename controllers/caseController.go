package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"hrcases-be/models"
	"hrcases-be/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CaseService is the subset of services.CaseService the HTTP layer needs.
type CaseService interface {
	Create(ctx context.Context, c *models.Case) (*models.Case, error)
	Get(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, f models.CaseFilter, page models.Page) (*services.CaseList, error)
	Update(ctx context.Context, id string, c *models.Case) (*models.Case, error)
	ChangeStatus(ctx context.Context, id, newStatus string) (*services.StatusChange, error)
	Archive(ctx context.Context, id string) error
	AttachEvidence(ctx context.Context, id string, items []models.Evidence) (*models.Case, error)
	GetStatusHistory(ctx context.Context, id string) ([]models.StatusHistoryEntry, error)
}

// CaseController serves the case CRUD surface.
type CaseController struct {
	cases  CaseService
	logger *zap.Logger
}

func NewCaseController(cases CaseService, logger *zap.Logger) *CaseController {
	return &CaseController{cases: cases, logger: logger}
}

// CreateCase handles POST /cases
func (cc *CaseController) CreateCase(c *gin.Context) {
	var input models.Case
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := cc.cases.Create(c.Request.Context(), &input)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCase handles GET /cases/:id
func (cc *CaseController) GetCase(c *gin.Context) {
	found, err := cc.cases.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// optionalDate parses an optional YYYY-MM-DD query parameter.
func optionalDate(c *gin.Context, name string) (*models.Date, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		badRequest(c, name, "must be formatted as YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}

func intQuery(c *gin.Context, name string, fallback int64) (int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, name, "must be an integer")
		return 0, false
	}
	return n, true
}

// ListCases handles GET /cases with filters and limit/skip pagination.
func (cc *CaseController) ListCases(c *gin.Context) {
	filter := models.CaseFilter{
		Country:       c.Query("country"),
		Region:        c.Query("region"),
		ViolationType: c.Query("violation_type"),
		Priority:      c.Query("priority"),
		Status:        c.Query("status"),
	}

	var ok bool
	if filter.DateOccurred, ok = optionalDate(c, "date_occurred"); !ok {
		return
	}
	if filter.ReportedFrom, ok = optionalDate(c, "reported_from"); !ok {
		return
	}
	if filter.ReportedTo, ok = optionalDate(c, "reported_to"); !ok {
		return
	}

	var page models.Page
	if page.Limit, ok = intQuery(c, "limit", models.DefaultPageLimit); !ok {
		return
	}
	if page.Skip, ok = intQuery(c, "skip", 0); !ok {
		return
	}

	list, err := cc.cases.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateCase handles PUT /cases/:id. The body must be a complete case.
func (cc *CaseController) UpdateCase(c *gin.Context) {
	var input models.Case
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := cc.cases.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ArchiveCase handles DELETE /cases/:id
func (cc *CaseController) ArchiveCase(c *gin.Context) {
	if err := cc.cases.Archive(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Case archived successfully"})
}

// UpdateCaseStatus handles PATCH /cases/:id/status
func (cc *CaseController) UpdateCaseStatus(c *gin.Context) {
	var input struct {
		NewStatus string `json:"new_status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	change, err := cc.cases.ChangeStatus(c.Request.Context(), c.Param("id"), input.NewStatus)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}

	detail := "Case status updated successfully"
	if change.Warning != nil {
		detail = "Case status updated; history entry pending"
	}
	c.JSON(http.StatusOK, gin.H{
		"detail":           detail,
		"old_status":       change.OldStatus,
		"new_status":       change.NewStatus,
		"changed_at":       change.ChangedAt,
		"history_recorded": change.HistoryRecorded,
		"warning":          change.Warning,
	})
}

// GetStatusHistory handles GET /cases/:id/status-history
func (cc *CaseController) GetStatusHistory(c *gin.Context) {
	entries, err := cc.cases.GetStatusHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

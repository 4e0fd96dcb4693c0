package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"hrcases-be/models"
	"hrcases-be/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileStore persists uploaded evidence and hands back a durable URL.
type FileStore interface {
	Save(ctx context.Context, owner string, r io.Reader) (*store.StoredFile, error)
	Remove(ctx context.Context, f *store.StoredFile) error
}

// EvidenceController attaches evidence to cases, either as resolved
// references or as raw uploads.
type EvidenceController struct {
	cases          CaseService
	files          FileStore
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewEvidenceController(cases CaseService, files FileStore, maxUploadBytes int64, logger *zap.Logger) *EvidenceController {
	return &EvidenceController{cases: cases, files: files, maxUploadBytes: maxUploadBytes, logger: logger}
}

// AttachEvidence handles POST /cases/:id/evidence
func (ec *EvidenceController) AttachEvidence(c *gin.Context) {
	var input struct {
		Evidence []models.Evidence `json:"evidence"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := ec.cases.AttachEvidence(c.Request.Context(), c.Param("id"), input.Evidence)
	if err != nil {
		respondError(c, ec.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UploadFiles handles POST /cases/:id/upload with multipart "files".
func (ec *EvidenceController) UploadFiles(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	// Refuse uploads for unknown or archived cases before writing any file.
	if _, err := ec.cases.Get(ctx, id); err != nil {
		respondError(c, ec.logger, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ec.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
			return
		}
		badRequest(c, "files", "must be a multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		badRequest(c, "files", "at least one file is required")
		return
	}

	today := models.NewDate(time.Now().UTC())
	items := make([]models.Evidence, 0, len(headers))
	saved := make([]*store.StoredFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			ec.discard(ctx, id, saved)
			badRequest(c, "files", "could not read "+fh.Filename)
			return
		}
		stored, err := ec.files.Save(ctx, id, f)
		f.Close()
		if err != nil {
			ec.logger.Error("failed to store evidence file",
				zap.String("id", id), zap.String("filename", fh.Filename), zap.Error(err))
			ec.discard(ctx, id, saved)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
			return
		}
		saved = append(saved, stored)

		captured := today
		items = append(items, models.Evidence{
			Type:         stored.EvidenceType,
			URL:          stored.URL,
			Description:  fh.Filename,
			DateCaptured: &captured,
		})
	}

	if _, err := ec.cases.AttachEvidence(ctx, id, items); err != nil {
		ec.discard(ctx, id, saved)
		respondError(c, ec.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Files uploaded successfully", "files": saved})
}

// discard removes the files a failed upload already wrote.
func (ec *EvidenceController) discard(ctx context.Context, id string, saved []*store.StoredFile) {
	ctx = context.WithoutCancel(ctx)
	for _, f := range saved {
		if err := ec.files.Remove(ctx, f); err != nil {
			ec.logger.Warn("failed to remove orphaned evidence file",
				zap.String("id", id), zap.String("url", f.URL), zap.Error(err))
		}
	}
}

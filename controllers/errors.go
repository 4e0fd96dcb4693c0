package controllers

import (
	"errors"
	"net/http"

	"hrcases-be/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the HTTP form of err. Unclassified errors are logged
// and hidden from the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	switch appErr.Kind {
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
	case apperrors.KindInvalidIdentifier:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid case ID"})
	case apperrors.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message, "fields": appErr.Fields})
	case apperrors.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": appErr.Message})
	case apperrors.KindTransientStorage:
		logger.Warn("transient storage failure", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable", "retryable": true})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

// badRequest reports a malformed query parameter or body.
func badRequest(c *gin.Context, field, reason string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "invalid request",
		"fields": map[string]string{field: reason},
	})
}

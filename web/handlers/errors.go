package handlers

import (
	"net/http"

	apperrors "local-guide/errors"
	"local-guide/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondWithError logs the technical error and returns a user-friendly message
func respondWithError(c *gin.Context, statusCode int, technicalError error, userMessage string, logger *zap.Logger, fields ...zap.Field) {
	// Log technical error with context
	if logger != nil {
		fields = append(fields, zap.Error(technicalError), zap.String("request_id", c.GetString(middleware.RequestIDKey)))
		logger.Error("Request failed", fields...)
	}

	c.JSON(statusCode, gin.H{"error": userMessage, "request_id": c.GetString(middleware.RequestIDKey)})
}

// respondWithClientError returns a client error (no logging needed for validation errors)
func respondWithClientError(c *gin.Context, statusCode int, userMessage string) {
	c.JSON(statusCode, gin.H{"error": userMessage, "request_id": c.GetString(middleware.RequestIDKey)})
}

// respondWithAppError maps the application's error kinds onto HTTP statuses.
func respondWithAppError(c *gin.Context, err error, logger *zap.Logger) {
	switch {
	case apperrors.IsInvalidInput(err):
		respondWithClientError(c, http.StatusBadRequest, err.Error())
	case apperrors.IsParseError(err):
		respondWithClientError(c, http.StatusUnprocessableEntity, err.Error())
	case apperrors.IsNotFound(err):
		respondWithClientError(c, http.StatusNotFound, err.Error())
	case apperrors.IsNoKnowledgeBase(err):
		respondWithClientError(c, http.StatusServiceUnavailable, err.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, err, "internal error", logger)
	}
}

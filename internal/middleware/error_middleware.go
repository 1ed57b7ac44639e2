package middleware

import (
	"errors"
	"net/http"

	"github.com/coursetable/ferry/internal/app/models/dto"
	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	var customErr *apperrors.CustomError
	message := ""
	if errors.As(err, &customErr) {
		message = customErr.Error()
	}
	orDefault := func(fallback string) string {
		if message != "" {
			return message
		}
		return fallback
	}

	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, orDefault("Resource not found"))))
	case errors.Is(err, apperrors.ErrRunInProgress):
		c.JSON(http.StatusConflict, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeRunInProgress, "A pipeline run is already in progress").
				WithSeverity(dto.ErrorSeverityWarning)))
	case errors.Is(err, apperrors.ErrShuttingDown):
		c.JSON(http.StatusServiceUnavailable, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeServiceUnavailable, "The server is shutting down")))
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeConflict, orDefault("Conflict"))))
	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, dto.NewAPIErrorResponse(dto.HandleValidationError(err)))
	case errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(http.StatusBadRequest, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeBadRequest, orDefault("Bad request"))))
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")))
	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")))
	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")))
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled API error")
		c.JSON(http.StatusInternalServerError, dto.NewAPIErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}

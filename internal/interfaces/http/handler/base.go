package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/logger"
	"github.com/inventree/backend/internal/interfaces/http/dto"
	"github.com/inventree/backend/internal/interfaces/http/middleware"
)

// UserIDHeader identifies the acting user. Authentication happens upstream.
const UserIDHeader = "X-User-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getUserID returns the acting user, or nil when the header is absent.
// A malformed header is a validation error.
func getUserID(c *gin.Context) (*uuid.UUID, error) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.NewValidationError(shared.NonFieldErrors, "Invalid "+UserIDHeader+" header")
	}
	return &id, nil
}

// parseID reads a UUID path parameter. Malformed IDs cannot name an existing
// resource, so they answer 404 like a missing one.
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Resource not found")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body and writes a field-keyed 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and writes a field-keyed 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// HandleError maps service errors onto responses:
//   - ValidationError: 400 with field-keyed messages
//   - ErrNotFound: 404
//   - other DomainError: the status of its code, messages under non_field_errors
//   - anything else: an opaque 500, logged with the request logger
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var ve *shared.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, dto.NewFieldErrorResponse(
			dto.ValidationErrorCode(ve.Kind),
			"Validation failed",
			requestID,
			ve.Fields,
		))
		return
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		code := dto.NormalizeErrorCode(de.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewFieldErrorResponse(
			code,
			de.Message,
			requestID,
			map[string][]string{shared.NonFieldErrors: {de.Message}},
		))
		return
	}

	_ = c.Error(err)
	logger.GetGinLogger(c, nil).Error("Unhandled request error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

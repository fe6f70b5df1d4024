package dto

import (
	"net/http"

	"github.com/inventree/backend/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes, one per ValidationError kind
const (
	ErrCodeValidation       = "ERR_VALIDATION"
	ErrCodeOverAllocation   = "ERR_OVER_ALLOCATION"
	ErrCodeQuantityMismatch = "ERR_QUANTITY_MISMATCH"
	ErrCodeShipmentClosed   = "ERR_SHIPMENT_CLOSED"
	ErrCodeInvalidState     = "ERR_INVALID_STATE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Input error codes
const (
	ErrCodeBadRequest        = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput      = "ERR_INVALID_INPUT"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeRequestTooLarge   = "ERR_REQUEST_TOO_LARGE"
	ErrCodeTimeout           = "ERR_TIMEOUT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Every business rule failure is a field-keyed 400
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeOverAllocation:   http.StatusBadRequest,
	ErrCodeQuantityMismatch: http.StatusBadRequest,
	ErrCodeShipmentClosed:   http.StatusBadRequest,
	ErrCodeInvalidState:     http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeInvalidInput:      http.StatusBadRequest,
	ErrCodeInsufficientStock: http.StatusBadRequest,
	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:           http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

var kindErrorCodes = map[shared.ValidationKind]string{
	shared.KindValidation:       ErrCodeValidation,
	shared.KindOverAllocation:   ErrCodeOverAllocation,
	shared.KindQuantityMismatch: ErrCodeQuantityMismatch,
	shared.KindShipmentClosed:   ErrCodeShipmentClosed,
	shared.KindState:            ErrCodeInvalidState,
}

// ValidationErrorCode returns the API error code for a validation kind
func ValidationErrorCode(kind shared.ValidationKind) string {
	if code, ok := kindErrorCodes[kind]; ok {
		return code
	}
	return ErrCodeValidation
}

// domainErrorCodes maps domain error codes to the standardized API codes
var domainErrorCodes = map[string]string{
	shared.ErrNotFound.Code:            ErrCodeNotFound,
	shared.ErrAlreadyExists.Code:       ErrCodeAlreadyExists,
	shared.ErrInvalidInput.Code:        ErrCodeInvalidInput,
	shared.ErrInvalidState.Code:        ErrCodeInvalidState,
	shared.ErrConcurrencyConflict.Code: ErrCodeConcurrencyConflict,
	shared.ErrInsufficientStock.Code:   ErrCodeInsufficientStock,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := domainErrorCodes[code]; ok {
		return newCode
	}
	return code
}

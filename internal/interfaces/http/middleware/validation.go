package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

// SetupValidator configures the validator with custom tags
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// BindingError converts a gin binding failure into a field-keyed ValidationError.
// Validator failures are keyed on the JSON path of the field (lines.0.quantity);
// decode failures land on the offending field when it is known.
func BindingError(err error) *shared.ValidationError {
	ve := &shared.ValidationError{Kind: shared.KindValidation}

	var fieldErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &fieldErrs):
		for _, e := range fieldErrs {
			ve.Add(fieldPath(e.Namespace()), getValidationMessage(e))
		}
	case errors.As(err, &typeErr):
		ve.Add(typeErr.Field, "Invalid value for this field")
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		ve.Add(shared.NonFieldErrors, "Malformed JSON body")
	default:
		ve.Add(shared.NonFieldErrors, err.Error())
	}
	return ve
}

// HandleValidationError writes a binding failure as a field-keyed 400
func HandleValidationError(c *gin.Context, err error) {
	ve := BindingError(err)
	c.JSON(http.StatusBadRequest, dto.NewFieldErrorResponse(
		dto.ErrCodeValidation,
		"Request validation failed",
		GetRequestID(c),
		ve.Fields,
	))
}

// GetRequestID returns the request ID assigned by the request logger, falling
// back to the incoming header
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// fieldPath turns a validator namespace such as
// CreatePurchaseOrderRequest.lines[0].quantity into lines.0.quantity
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "url":
		return "Invalid URL format"
	default:
		return "Invalid value"
	}
}

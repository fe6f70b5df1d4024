package shared

import (
	"errors"
	"slices"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so errors built with
// NewDomainError compare equal to the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// NonFieldErrors is the key used for errors that do not belong to a single field.
const NonFieldErrors = "non_field_errors"

// ValidationKind distinguishes specialisations of ValidationError.
type ValidationKind string

const (
	KindValidation       ValidationKind = "VALIDATION"
	KindOverAllocation   ValidationKind = "OVER_ALLOCATION"
	KindQuantityMismatch ValidationKind = "QUANTITY_MISMATCH"
	KindShipmentClosed   ValidationKind = "SHIPMENT_CLOSED"
	KindState            ValidationKind = "STATE"
)

// ValidationError is a field-keyed collection of user-facing messages.
// Every business rule failure surfaces as one of these.
type ValidationError struct {
	Kind   ValidationKind      `json:"kind"`
	Fields map[string][]string `json:"fields"`
}

// Sentinels for errors.Is. ErrValidation matches every kind.
var (
	ErrValidation       = &ValidationError{}
	ErrOverAllocation   = &ValidationError{Kind: KindOverAllocation}
	ErrQuantityMismatch = &ValidationError{Kind: KindQuantityMismatch}
	ErrShipmentClosed   = &ValidationError{Kind: KindShipmentClosed}
	ErrStateViolation   = &ValidationError{Kind: KindState}
)

// NewValidationError creates a validation error with a single field message
func NewValidationError(field, message string) *ValidationError {
	return NewKindError(KindValidation, field, message)
}

// NewKindError creates a specialised validation error
func NewKindError(kind ValidationKind, field, message string) *ValidationError {
	e := &ValidationError{Kind: kind, Fields: make(map[string][]string)}
	return e.Add(field, message)
}

// Add appends a message for a field and returns the receiver
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	if field == "" {
		field = NonFieldErrors
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Merge copies all messages from other into e. The first specialised kind wins.
func (e *ValidationError) Merge(other *ValidationError) *ValidationError {
	if other == nil {
		return e
	}
	if e.Kind == "" || e.Kind == KindValidation {
		e.Kind = other.Kind
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			e.Add(field, m)
		}
	}
	return e
}

// Prefix returns a copy with every field key nested under prefix, e.g. items.0.quantity
func (e *ValidationError) Prefix(prefix string) *ValidationError {
	out := &ValidationError{Kind: e.Kind, Fields: make(map[string][]string, len(e.Fields))}
	for field, msgs := range e.Fields {
		out.Fields[prefix+"."+field] = append([]string(nil), msgs...)
	}
	return out
}

// HasErrors reports whether any message was recorded
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Message returns the first message recorded for a field
func (e *ValidationError) Message(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[k], ", "))
	}
	return b.String()
}

// Is lets errors.Is match on kind, and lets state and over-allocation errors
// satisfy the matching DomainError sentinels.
func (e *ValidationError) Is(target error) bool {
	switch t := target.(type) {
	case *ValidationError:
		return t.Kind == "" || t.Kind == e.Kind
	case *DomainError:
		return t.Code == e.Kind.domainCode()
	}
	return false
}

func (k ValidationKind) domainCode() string {
	switch k {
	case KindState:
		return ErrInvalidState.Code
	case KindOverAllocation:
		return ErrInsufficientStock.Code
	}
	return ""
}

// AsValidationError converts a domain-level error into a ValidationError keyed
// on field. Errors that are not domain errors return nil so the caller can
// propagate them untouched.
func AsValidationError(err error, field string) *ValidationError {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var de *DomainError
	if errors.As(err, &de) {
		kind := KindValidation
		switch de.Code {
		case ErrInvalidState.Code:
			kind = KindState
		case ErrInsufficientStock.Code:
			kind = KindOverAllocation
		}
		return NewKindError(kind, field, de.Message)
	}
	return nil
}

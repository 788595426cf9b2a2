// Package errors provides structured error types and response helpers for the API.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/narvanalabs/sitebuilder/internal/deploy"
	"github.com/narvanalabs/sitebuilder/internal/domains"
	"github.com/narvanalabs/sitebuilder/internal/onboarding"
	"github.com/narvanalabs/sitebuilder/internal/resource"
	"github.com/narvanalabs/sitebuilder/internal/siteconfig"
	"github.com/narvanalabs/sitebuilder/internal/store"
	"github.com/narvanalabs/sitebuilder/internal/templates"
)

// Error codes for structured API responses.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeValidationFailed   = "validation_failed"
	CodeUnknownField       = "unknown_field"
	CodeInvalidValue       = "invalid_value"
	CodeNotFound           = "not_found"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeConflict           = "conflict"
	CodeAlreadyInFlight    = "deployment_in_flight"
	CodeIllegalTransition  = "illegal_transition"
	CodeNotDeployed        = "not_deployed"
	CodeInvalidDomain      = "invalid_domain"
	CodeDomainInUse        = "domain_in_use"
	CodeNotBound           = "domain_not_bound"
	CodeServiceUnavailable = "service_unavailable"
	CodeInternalError      = "internal_error"
)

// APIError represents a structured API error response.
type APIError struct {
	Status    int            `json:"-"`
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error with additional details.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	c := *e
	c.Details = details
	return &c
}

// WithRequestID returns a copy of the error with the request ID set.
func (e *APIError) WithRequestID(requestID string) *APIError {
	c := *e
	c.RequestID = requestID
	return &c
}

// New creates a new APIError.
func New(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *APIError {
	return New(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *APIError {
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *APIError {
	return New(http.StatusForbidden, CodeForbidden, message)
}

// Internal creates a 500 error.
func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternalError, message)
}

// From maps an error returned by the engine to an APIError. Unknown errors
// become a generic 500 so internals are not leaked.
func From(err error) *APIError {
	var (
		apiErr   *APIError
		valErr   *siteconfig.ValidationError
		fieldErr *siteconfig.FieldError
		illegal  *deploy.IllegalTransitionError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &valErr):
		return New(http.StatusBadRequest, CodeValidationFailed, "site is missing required fields").
			WithDetails(map[string]any{"missing": valErr.Missing})
	case errors.As(err, &fieldErr) && errors.Is(err, siteconfig.ErrUnknownField):
		return New(http.StatusBadRequest, CodeUnknownField, err.Error()).
			WithDetails(map[string]any{"path": fieldErr.Path})
	case errors.As(err, &fieldErr):
		return New(http.StatusBadRequest, CodeInvalidValue, err.Error()).
			WithDetails(map[string]any{"path": fieldErr.Path})
	case errors.Is(err, templates.ErrTemplateNotFound):
		return New(http.StatusBadRequest, CodeInvalidValue, err.Error())
	case errors.Is(err, deploy.ErrAlreadyInFlight):
		return New(http.StatusConflict, CodeAlreadyInFlight, err.Error())
	case errors.As(err, &illegal):
		return New(http.StatusConflict, CodeIllegalTransition, err.Error()).
			WithDetails(map[string]any{"state": illegal.From, "action": illegal.Action})
	case errors.Is(err, deploy.ErrNoDeployments):
		return New(http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, deploy.ErrShuttingDown):
		return New(http.StatusServiceUnavailable, CodeServiceUnavailable, err.Error())
	case errors.Is(err, domains.ErrNotDeployedYet):
		return New(http.StatusConflict, CodeNotDeployed, err.Error())
	case errors.Is(err, domains.ErrInvalidDomain), errors.Is(err, domains.ErrInvalidSSLStatus):
		return New(http.StatusBadRequest, CodeInvalidDomain, err.Error())
	case errors.Is(err, domains.ErrDomainInUse):
		return New(http.StatusConflict, CodeDomainInUse, err.Error())
	case errors.Is(err, domains.ErrNotBound):
		return New(http.StatusNotFound, CodeNotBound, err.Error())
	case errors.Is(err, onboarding.ErrRestaurantRequired):
		return New(http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, resource.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return NotFound("resource not found")
	case errors.Is(err, resource.ErrDuplicate), errors.Is(err, store.ErrDuplicateKey):
		return New(http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, resource.ErrInvalid):
		return New(http.StatusBadRequest, CodeInvalidValue, err.Error())
	case errors.Is(err, resource.ErrNotSupported):
		return New(http.StatusMethodNotAllowed, CodeInvalidRequest, err.Error())
	default:
		return Internal("an unexpected error occurred")
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an APIError as a JSON response.
func WriteError(w http.ResponseWriter, err *APIError) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, err)
}

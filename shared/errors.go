package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory classifies failures along the boundaries the service
// actually has: outbound HTTP, upstream payloads, the database, auth,
// and request validation.
type ErrorCategory string

const (
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategoryUpstream       ErrorCategory = "upstream"
	ErrorCategoryDatabase       ErrorCategory = "database"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryValidation     ErrorCategory = "validation"
)

// ServiceError is the standard error carried across service boundaries.
// No error in this system is fatal to the process: the worst case is an
// empty listing with a visible error payload, so every ServiceError is
// expected to be caught, logged, and converted to a response.
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a service error with the full context set.
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewNetworkError wraps an outbound transport failure. Network errors
// are retryable by the background jobs but never on the request path.
func NewNetworkError(serviceName, operation, message string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryNetwork, "NETWORK_FAILURE", message, serviceName, operation, true, cause)
}

// NewUpstreamError marks a malformed or non-2xx upstream response.
func NewUpstreamError(serviceName, operation, message string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryUpstream, "UPSTREAM_FAILURE", message, serviceName, operation, false, cause)
}

// NewDatabaseError wraps a query or connection failure.
func NewDatabaseError(serviceName, operation string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryDatabase, "DATABASE_FAILURE", "database operation failed", serviceName, operation, true, cause)
}

// NewAuthenticationError marks a missing or invalid session.
func NewAuthenticationError(serviceName, operation, message string) *ServiceError {
	return NewServiceError(ErrorCategoryAuthentication, "AUTH_REQUIRED", message, serviceName, operation, false, nil)
}

// NewValidationError marks a rejected request payload or parameter.
func NewValidationError(serviceName, operation, message string) *ServiceError {
	return NewServiceError(ErrorCategoryValidation, "INVALID_INPUT", message, serviceName, operation, false, nil)
}

// CategoryOf extracts the category from any error chain, defaulting to
// upstream when the error is not a ServiceError.
func CategoryOf(err error) ErrorCategory {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Category
	}
	return ErrorCategoryUpstream
}

// LogError emits the error with structured fields.
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category": e.Category,
		"error_code":     e.Code,
		"service_name":   e.ServiceName,
		"operation":      e.Operation,
		"retryable":      e.Retryable,
		"cause":          e.Cause,
	}).Error(e.Message)
}

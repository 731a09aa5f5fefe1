package model

import "net/http"

// Standard error codes surfaced to API clients.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeForbidden  = "FORBIDDEN"
	ErrCodeConflict   = "CONFLICT"
	ErrCodeGateway    = "GATEWAY_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// DomainError is a business-level failure carrying the HTTP status it maps
// to. Services return these; the HTTP layer translates them exactly once.
type DomainError struct {
	Code    string
	Status  int
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewValidationError(message string) *DomainError {
	return &DomainError{Code: ErrCodeValidation, Status: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *DomainError {
	return &DomainError{Code: ErrCodeNotFound, Status: http.StatusNotFound, Message: message}
}

func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: ErrCodeForbidden, Status: http.StatusForbidden, Message: message}
}

func NewConflictError(message string) *DomainError {
	return &DomainError{Code: ErrCodeConflict, Status: http.StatusConflict, Message: message}
}

// NewGatewayError reports a payment-gateway decline or outage as a business
// failure, not a server error.
func NewGatewayError(message string) *DomainError {
	return &DomainError{Code: ErrCodeGateway, Status: http.StatusBadRequest, Message: message}
}

// ErrorResponse is the JSON body every failed request carries.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

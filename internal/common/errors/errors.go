// Package errors provides standardized error handling for the HTTP API and
// BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodePlacesSearchFailed ErrorCode = "PLACES_SEARCH_FAILED"
	ErrCodePlacesDetailFailed ErrorCode = "PLACES_DETAIL_FAILED"

	ErrCodeRestaurantStoreFailed ErrorCode = "RESTAURANT_STORE_FAILED"

	ErrCodeExportFailed ErrorCode = "EXPORT_FAILED"

	ErrCodeInviteSendFailed ErrorCode = "INVITE_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message string, cause error, details string) *StandardError {
	if details == "" && cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError reports a missing or malformed caller field.
func NewInvalidInputError(message string) *StandardError {
	return newError(ErrCodeInvalidInput, message, nil, "")
}

func NewPlacesSearchFailedError(query string, err error) *StandardError {
	e := newError(ErrCodePlacesSearchFailed, "Places search failed", err, "")
	e.Metadata = map[string]interface{}{"query": query}
	return e
}

func NewPlacesDetailFailedError(err error) *StandardError {
	return newError(ErrCodePlacesDetailFailed, "Places detail lookup failed", err, "")
}

func NewRestaurantStoreFailedError(err error) *StandardError {
	return newError(ErrCodeRestaurantStoreFailed, "Restaurant store operation failed", err, "")
}

func NewExportFailedError(err error) *StandardError {
	return newError(ErrCodeExportFailed, "Spreadsheet export failed", err, "")
}

func NewInviteSendFailedError(recipient string, err error) *StandardError {
	return newError(ErrCodeInviteSendFailed, "Invite delivery failed", err,
		fmt.Sprintf("recipient: %s, error: %v", recipient, err))
}

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:          "INVALID_INPUT",
	ErrCodePlacesSearchFailed:    "PLACES_SEARCH_FAILED",
	ErrCodePlacesDetailFailed:    "PLACES_DETAIL_FAILED",
	ErrCodeRestaurantStoreFailed: "RESTAURANT_STORE_FAILED",
	ErrCodeExportFailed:          "EXPORT_FAILED",
	ErrCodeInviteSendFailed:      "INVITE_SEND_FAILED",
}

// GetRetryCount returns the retry count for a code. Nothing in this system
// is retried: a failed unit is reported and skipped.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PLACES"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "STORE"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVITE"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "EXPORT"):
		return "EXPORT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

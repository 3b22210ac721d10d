// Package errors provides the structured error type shared by every stage
// of the diarization toolkit. Each failure carries a machine-readable code,
// a retryable flag and an HTTP status hint for whatever wrapper exposes it.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Input ---

// InvalidInput creates an AppError for an invalid request field.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates an AppError for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InvalidAudio creates an AppError for audio that is not canonical PCM.
func InvalidAudio(reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidAudio, Message: fmt.Sprintf("Invalid audio: %s", reason),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
	}
}

// --- Collaborators ---

// FetchFailed creates an AppError for a failed source download.
func FetchFailed(location string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFetchFailed, Message: "Failed to download audio file",
		HTTPStatus: http.StatusBadRequest, Retryable: true,
		Details: map[string]any{"location": location}, Cause: cause,
	}
}

// ConversionFailed creates an AppError for a failed format conversion.
func ConversionFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeConversionFailed, Message: "Audio conversion failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates an AppError for an error from a remote service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// ServiceUnavailable creates an AppError for a backend that cannot be reached.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates an AppError for an operation that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Busy creates an AppError for a provider that has no free slot.
func Busy(provider string) *AppError {
	return &AppError{
		Code: ErrCodeBusy, Message: "Too many concurrent diarization calls.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"provider": provider},
	}
}

// --- Pipeline stages ---

// Segmentation creates an AppError for a voice-activity detector failure.
func Segmentation(cause error) *AppError {
	return &AppError{
		Code: ErrCodeSegmentation, Message: "Speech detection failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Embedding creates an AppError for an embedding model failure on one segment.
func Embedding(segment int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeEmbedding, Message: "Embedding extraction failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"segment": segment}, Cause: cause,
	}
}

// Clustering creates an AppError for a clustering failure.
func Clustering(cause error) *AppError {
	return &AppError{
		Code: ErrCodeClustering, Message: "Speaker clustering failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Confidence creates an AppError for a confidence computation failure.
func Confidence(cause error) *AppError {
	return &AppError{
		Code: ErrCodeConfidence, Message: "Confidence calculation failed",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// Pipeline wraps a stage failure into the single opaque pipeline error.
// The message of the originating stage is preserved.
func Pipeline(stage string, cause error) *AppError {
	msg := cause.Error()
	if appErr, ok := AsAppError(cause); ok {
		msg = appErr.Message
	}
	return &AppError{
		Code: ErrCodePipeline, Message: msg,
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"stage": stage}, Cause: cause,
	}
}

// Internal creates an AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

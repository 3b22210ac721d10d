package errors

import (
	"encoding/json"
	stderrors "errors"
)

// Response is the envelope an AppError is reported in:
//
//	{"error": {"code": "FETCH_FAILED", "message": "...", "retryable": true}}
type Response struct {
	Error Body `json:"error" yaml:"error"`
}

// Body is the reportable part of an AppError. Cause and HTTP status stay
// internal.
type Body struct {
	Code      ErrorCode      `json:"code" yaml:"code"`
	Message   string         `json:"message" yaml:"message"`
	Retryable bool           `json:"retryable" yaml:"retryable"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// Body returns the reportable fields of e.
func (e *AppError) Body() Body {
	return Body{Code: e.Code, Message: e.Message, Retryable: e.Retryable, Details: e.Details}
}

// ToResponse wraps e in the error envelope.
func (e *AppError) ToResponse() Response {
	return Response{Error: e.Body()}
}

// ParseResponse decodes an error envelope written by another speakerkit
// process, such as a remote worker. It reports false for anything else.
func ParseResponse(data []byte) (Body, bool) {
	if len(data) == 0 {
		return Body{}, false
	}
	var r Response
	if err := json.Unmarshal(data, &r); err != nil || r.Error.Code == "" {
		return Body{}, false
	}
	return r.Error, true
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

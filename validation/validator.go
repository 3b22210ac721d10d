package validation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/speakerkit/errors"
)

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// Fields accumulates field errors from chained checks. The zero value is
// ready to use.
type Fields struct {
	errs []FieldError
}

// New returns an empty Fields collector.
func New() *Fields {
	return &Fields{}
}

// Add records a failure for field.
func (f *Fields) Add(field, message string) *Fields {
	f.errs = append(f.errs, FieldError{Field: field, Message: message})
	return f
}

// Check records message for field when ok is false.
func (f *Fields) Check(ok bool, field, message string) *Fields {
	if !ok {
		f.Add(field, message)
	}
	return f
}

// Empty reports whether every check passed.
func (f *Fields) Empty() bool { return len(f.errs) == 0 }

// List returns the recorded failures in check order.
func (f *Fields) List() []FieldError { return f.errs }

// Err returns nil when every check passed and otherwise an INVALID_INPUT
// AppError listing each field.
func (f *Fields) Err() error {
	if f.Empty() {
		return nil
	}
	return invalid(f.errs)
}

func invalid(fields []FieldError) *errors.AppError {
	parts := make([]string, len(fields))
	for i, fe := range fields {
		parts[i] = fe.Field + ": " + fe.Message
	}
	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}

// Required rejects empty and whitespace-only values.
func (f *Fields) Required(field, value string) *Fields {
	return f.Check(strings.TrimSpace(value) != "", field, "is required")
}

// Location accepts a local path or an http, https or file URL. Empty
// values are left to Required.
func (f *Fields) Location(field, value string) *Fields {
	if value == "" || !strings.Contains(value, "://") {
		return f
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return f.Add(field, "must be a valid URL")
	}
	switch u.Scheme {
	case "http", "https", "file":
		return f
	}
	return f.Add(field, "scheme must be http, https or file")
}

// MaxLength rejects values longer than n bytes.
func (f *Fields) MaxLength(field, value string, n int) *Fields {
	return f.Check(len(value) <= n, field, fmt.Sprintf("must be at most %d characters", n))
}

// Between rejects values outside [lo, hi].
func (f *Fields) Between(field string, value, lo, hi int) *Fields {
	return f.Check(value >= lo && value <= hi, field, fmt.Sprintf("must be between %d and %d", lo, hi))
}

// OneOf rejects non-empty values missing from allowed.
func (f *Fields) OneOf(field, value string, allowed ...string) *Fields {
	if value == "" {
		return f
	}
	for _, a := range allowed {
		if value == a {
			return f
		}
	}
	return f.Add(field, "must be one of: "+strings.Join(allowed, ", "))
}

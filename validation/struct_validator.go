package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/speakerkit/errors"
)

var (
	structOnce sync.Once
	structV    *validator.Validate
)

func engine() *validator.Validate {
	structOnce.Do(func() {
		structV = validator.New(validator.WithRequiredStructEnabled())
		structV.RegisterTagNameFunc(keyName)
	})
	return structV
}

// keyName reports a field under the key it has in config files so messages
// match what the operator wrote.
func keyName(fld reflect.StructField) string {
	for _, tag := range []string{"yaml", "mapstructure", "json"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// Validate checks s against its `validate` struct tags. Failures come back as
// one INVALID_INPUT AppError whose field names are dotted config keys, such
// as "sidecar.base_url".
func Validate(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation(err.Error())
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: keyPath(fe.Namespace()), Message: describe(fe)})
	}
	return invalid(fields)
}

// keyPath drops the root type name from a validator namespace.
func keyPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte", "min":
		return "must be at least " + p
	case "lte", "max":
		return "must be at most " + p
	case "gt":
		return "must be greater than " + p
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(p), ", ")
	}
	return "failed " + fe.Tag() + " check"
}

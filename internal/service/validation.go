package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
	"github.com/noah-isme/clinic-agenda-api/pkg/sanitize"
)

// NewValidator returns a validator with the domain tags registered:
// clock (HH:MM), date (YYYY-MM-DD) and nohtml (rejects markup and script injection).
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return availability.ValidClock(fl.Field().String())
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := availability.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("nohtml", func(fl validator.FieldLevel) bool {
		return !sanitize.DetectXSS(fl.Field().String())
	})
	return v
}

var fieldMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email",
	"clock":    "must be a time in HH:MM format",
	"date":     "must be a date in YYYY-MM-DD format",
	"nohtml":   "contains disallowed content",
	"uuid":     "must be a valid identifier",
	"hexcolor": "must be a hex color",
	"oneof":    "has an unsupported value",
	"min":      "is too small",
	"max":      "is too large",
	"gt":       "must be positive",
	"gte":      "is too small",
	"len":      "has the wrong length",
	"url":      "must be a valid URL",
}

// validationError converts validator output into a VALIDATION_ERROR with per-field details.
func validationError(err error, message string) error {
	details := map[string]string{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = "is invalid"
			}
			details[fieldPath(fe.Namespace())] = msg
		}
	}
	return appErrors.WithDetails(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message), details)
}

// fieldDetailError reports a single field problem detected outside struct tags.
func fieldDetailError(field, problem, message string) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, message), map[string]string{field: problem})
}

func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", validPhone)
	v.RegisterStructValidation(profileHasIdentity, profileInput{})
	return v
}

// validPhone accepts digits, spaces and dashes with an optional leading +.
func validPhone(fl validator.FieldLevel) bool {
	s := strings.TrimPrefix(fl.Field().String(), "+")
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-':
		default:
			return false
		}
	}
	return digits > 0
}

func profileHasIdentity(sl validator.StructLevel) {
	p := sl.Current().Interface().(profileInput)
	// first_name is trimmed before storage, the other fields are not.
	if nonEmpty(p.Email) || nonEmpty(p.LinkedInID) || strings.TrimSpace(value(p.FirstName)) != "" {
		return
	}
	sl.ReportError(p, "profile", "profile", "identity", "")
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// validationDetail renders validator errors as one line per field.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "pushRequest.")
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, describe(fe)))
	}
	return strings.Join(msgs, "; ")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s character(s)", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "value is not a valid email address"
	case "phone":
		return "phone number must contain only digits, spaces, dashes, and optional + prefix"
	case "identity":
		return "each profile must have at least one of: email, linkedin_id, or first_name"
	}
	return fmt.Sprintf("failed on %q", fe.Tag())
}

// Package validation checks request bodies against their struct tags and
// turns failures into a single readable ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"taskmanager/backend/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = validate.RegisterValidation("letternum", validateLetterNum)
	_ = validate.RegisterValidation("trimmed", validateTrimmed)
}

// validateLetterNum accepts ASCII letters and digits only, with at least one
// of each.
func validateLetterNum(fl validator.FieldLevel) bool {
	var letter, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			digit = true
		default:
			return false
		}
	}
	return letter && digit
}

func validateTrimmed(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == strings.TrimSpace(s)
}

// Struct validates v. The returned error is nil or a ValidationError whose
// message lists every failed field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidation("%s", err.Error())
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, message(fe))
	}
	return apperrors.NewValidation("%s", strings.Join(messages, ". "))
}

var labels = map[string]string{
	"name":            "Name",
	"email":           "Email",
	"password":        "Password",
	"profileImageUrl": "Profile image URL",
	"title":           "Title",
	"description":     "Description",
	"priority":        "Priority",
	"dueDate":         "Due date",
	"text":            "Checklist item text",
}

func label(fe validator.FieldError) string {
	field := fe.Field()
	if strings.HasPrefix(field, "attachments[") {
		return "Each attachment"
	}
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

func message(fe validator.FieldError) string {
	name := label(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", name, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	case "uri", "url":
		return fmt.Sprintf("%s must be a valid URI", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "letternum":
		return fmt.Sprintf("%s must contain only letters and numbers, with at least one of each", name)
	case "trimmed":
		return fmt.Sprintf("%s must not have leading or trailing whitespace", name)
	}
	return fmt.Sprintf("%s is invalid", name)
}

// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// maxListedErrors is how many field messages Message includes.
const maxListedErrors = 3

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is one failed rule on one field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the JSON name of the field that failed.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the tag parameter, for example "8" for "min=8".
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the value that failed.
func (e *ValidationError) Value() interface{} {
	return e.value
}

// Error returns the user-facing message.
func (e *ValidationError) Error() string {
	return e.message
}

// RequestValidationError collects every failed rule of one request body.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual failures in struct field order.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error joins every message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(ve.errors))
	for i := range ve.errors {
		messages = append(messages, ve.errors[i].Error())
	}
	return strings.Join(messages, "; ")
}

// Message is the response text: "Invalid input data." followed by the
// first three messages, with "..." when more were cut.
func (ve *RequestValidationError) Message() string {
	if len(ve.errors) == 0 {
		return "Invalid input data."
	}

	n := len(ve.errors)
	if n > maxListedErrors {
		n = maxListedErrors
	}
	messages := make([]string, 0, n)
	for i := 0; i < n; i++ {
		messages = append(messages, strings.TrimSuffix(ve.errors[i].message, "."))
	}

	msg := "Invalid input data. " + strings.Join(messages, ". ")
	if len(ve.errors) > maxListedErrors {
		msg += "..."
	}
	return msg
}

// NewError builds a single-field validation error for checks that need more
// than struct tags, such as comparing two fields of different types.
func NewError(field, message string) *RequestValidationError {
	return &RequestValidationError{errors: []ValidationError{{field: field, tag: "custom", message: message}}}
}

// GetValidator returns the singleton validator instance.
// Field names in errors are the JSON names, and "notblank" rejects strings
// that are empty after trimming.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(jsonFieldName)

		//nolint:errcheck // registration only fails on an empty tag
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return true
			}
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})

	return validate
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	default:
		return name
	}
}

// ValidateStruct validates s with the singleton validator.
// It returns nil on success or *RequestValidationError.
//
// Messages come from the field's msg tag when it has one:
//
//	Name string `json:"name" validate:"required" msg:"Please tell us your name."`
//	Email string `json:"email" validate:"required,email" msg:"required=Please provide your email.|email=Please provide a valid email"`
//
// A msg without tag= prefixes applies to every rule of the field. Fields
// without a msg tag get a generic message.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}},
		}
	}

	root := reflect.TypeOf(s)
	for root != nil && root.Kind() == reflect.Ptr {
		root = root.Elem()
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: messageFor(root, fieldErr),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

func messageFor(root reflect.Type, fe validator.FieldError) string {
	if msg, ok := customMessage(root, fe); ok {
		return msg
	}
	return translateError(fe)
}

var msgRulePattern = regexp.MustCompile(`^([a-z0-9_]+)=(.*)$`)

// customMessage reads the msg tag of the failing field. Only fields of the
// validated struct itself are looked up; nested structs use the generic text.
func customMessage(root reflect.Type, fe validator.FieldError) (string, bool) {
	if root == nil || root.Kind() != reflect.Struct {
		return "", false
	}
	// StructNamespace is "Type.Field" for top-level fields.
	if strings.Count(fe.StructNamespace(), ".") != 1 {
		return "", false
	}
	sf, ok := root.FieldByName(fe.StructField())
	if !ok {
		return "", false
	}
	tag := sf.Tag.Get("msg")
	if tag == "" {
		return "", false
	}

	var fallback string
	for _, part := range strings.Split(tag, "|") {
		m := msgRulePattern.FindStringSubmatch(part)
		if m == nil {
			fallback = part
			continue
		}
		if m[1] == fe.Tag() {
			return m[2], true
		}
	}
	return fallback, fallback != ""
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"notblank":  "%s must not be blank",
	"email":     "%s must be a valid email address",
	"uuid":      "%s must be a valid id",
	"datetime":  "%s must be a valid date",
	"latitude":  "%s must be a valid latitude (-90 to 90)",
	"longitude": "%s must be a valid longitude (-180 to 180)",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof":   "%s must be one of: %s",
	"gte":     "%s must be greater than or equal to %s",
	"lte":     "%s must be less than or equal to %s",
	"gt":      "%s must be greater than %s",
	"lt":      "%s must be less than %s",
	"eqfield": "%s must match %s",
}

// translateError converts a validator.FieldError to a generic message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}
	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max validation with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	isString := fe.Kind() == reflect.String

	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}

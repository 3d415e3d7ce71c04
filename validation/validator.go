package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/transcriptfeed/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an INVALID_INPUT AppError if any check failed, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.Validation(strings.Join(messages, "; ")).
		WithDetail("fields", v.errors)
}

// Required checks that a string field is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// RequiredUUID checks that a string field is a valid UUID.
func (v *Validator) RequiredUUID(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.AddError(field, "must be a valid UUID")
	}
	return v
}

// Range checks that an int field is within [lo, hi].
func (v *Validator) Range(field string, value, lo, hi int) *Validator {
	if value < lo || value > hi {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", lo, hi))
	}
	return v
}

// OneOf checks that a non-empty string field is one of the allowed values.
// Matching is case-insensitive; an empty value passes.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	if !slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, value) }) {
		v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// Check adds message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Package foundation holds small generic building blocks shared by the
// configuration and pipeline packages.
package foundation

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// Validator represents a validation function.
type Validator[T any] func(T) ValidationResult

// ValidationResult contains the result of a validation operation.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError represents a single validation failure.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// Error implements the error interface.
func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Valid creates a successful validation result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid creates a failed validation result with errors.
func Invalid(errs ...FieldError) ValidationResult {
	return ValidationResult{Valid: false, Errors: errs}
}

// NewFieldError creates a field error.
func NewFieldError(field, code, message string) FieldError {
	return FieldError{Field: field, Code: code, Message: message}
}

// Combine merges multiple validation results.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}
	all := make([]FieldError, 0, len(vr.Errors)+len(other.Errors))
	all = append(all, vr.Errors...)
	all = append(all, other.Errors...)
	return Invalid(all...)
}

// ToError converts a validation result to a classified validation error.
func (vr ValidationResult) ToError() error {
	if vr.Valid {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, fe := range vr.Errors {
		messages = append(messages, fe.Error())
	}
	b := ferrors.ValidationError(strings.Join(messages, "; "))
	if len(vr.Errors) > 0 && vr.Errors[0].Field != "" {
		b = b.WithContext("field", vr.Errors[0].Field)
	}
	return b.Build()
}

// ValidatorChain runs several validators and collects every failure.
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain.
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add appends a validator to the chain.
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs all validators in the chain.
func (vc *ValidatorChain[T]) Validate(value T) ValidationResult {
	result := Valid()
	for _, validator := range vc.validators {
		result = result.Combine(validator(value))
	}
	return result
}

// Required fails when the string picked from the value is empty.
func Required[T any](field string, get func(T) string) Validator[T] {
	return func(value T) ValidationResult {
		if strings.TrimSpace(get(value)) == "" {
			return Invalid(NewFieldError(field, "required", "must not be empty"))
		}
		return Valid()
	}
}

// Distinct fails when two of the named strings are equal after normalize.
func Distinct[T any](get func(T) map[string]string, order []string, normalize func(string) string) Validator[T] {
	return func(value T) ValidationResult {
		fields := get(value)
		seen := make(map[string]string, len(order))
		result := Valid()
		for _, field := range order {
			v := fields[field]
			if normalize != nil {
				v = normalize(v)
			}
			if other, dup := seen[v]; dup {
				result = result.Combine(Invalid(NewFieldError(field, "distinct",
					fmt.Sprintf("points at the same directory %q as %s", v, other))))
				continue
			}
			seen[v] = field
		}
		return result
	}
}

// LocalDir fails when the directory picked from the value is absolute, the
// root itself, or climbs out of the root with "..".
func LocalDir[T any](field string, get func(T) string) Validator[T] {
	return func(value T) ValidationResult {
		v := strings.TrimSpace(get(value))
		if v == "" {
			return Valid()
		}
		clean := filepath.Clean(v)
		if clean == "." || !filepath.IsLocal(clean) {
			return Invalid(NewFieldError(field, "local",
				fmt.Sprintf("%q must be a subdirectory of the project root", v)))
		}
		return Valid()
	}
}

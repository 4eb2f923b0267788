package easyrepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raywall/pokedex-service/dyndb"
)

var (
	ErrNotFound     = errors.New("item not found")
	ErrDuplicateKey = errors.New("item already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// NotFoundError reports that no item matched Key
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", entityName(e.Entity))
	}
	return fmt.Sprintf("%s with ID %s not found", entityName(e.Entity), e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateKeyError reports a uniqueness violation on Field=Value
type DuplicateKeyError struct {
	Entity string
	Field  string
	Value  any
}

func (e *DuplicateKeyError) Error() string {
	b, err := json.Marshal(map[string]any{e.Field: e.Value})
	if err != nil {
		b = []byte(fmt.Sprintf("{%q:%q}", e.Field, fmt.Sprint(e.Value)))
	}
	return fmt.Sprintf("%s exists in db %s", entityName(e.Entity), b)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// InternalError wraps an unexpected storage fault. Error() never exposes the
// underlying cause; use Unwrap (or errors.As) to inspect it.
type InternalError struct {
	Entity string
	Op     string
	Err    error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("can't %s %s - check server logs", e.Op, entityName(e.Entity))
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// ValidationError carries the field violations found by the validator
type ValidationError struct {
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Err != nil {
			return e.Err.Error()
		}
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range sortedKeys(e.Fields) {
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError converts validator output into a *ValidationError.
func NewValidationError(err error) *ValidationError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &ValidationError{Err: err}
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = describe(fe)
	}
	return &ValidationError{Fields: fields, Err: err}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "lowercase":
		return "must be lowercase"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return "failed " + fe.Tag()
}

// Translate maps storage and validation faults into the package taxonomy.
// Errors that already belong to the taxonomy pass through unchanged.
func Translate(entity, op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		nf   *NotFoundError
		dup  *DuplicateKeyError
		in   *InternalError
		val  *ValidationError
		cond *dyndb.ConditionalError
		ve   validator.ValidationErrors
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &dup), errors.As(err, &in), errors.As(err, &val):
		return err
	case errors.Is(err, dyndb.ErrNotFound):
		return &NotFoundError{Entity: entity}
	case errors.As(err, &cond):
		return &DuplicateKeyError{Entity: entity, Field: cond.Attribute, Value: cond.Value}
	case errors.As(err, &ve):
		return NewValidationError(err)
	}
	return &InternalError{Entity: entity, Op: op, Err: err}
}

func entityName(entity string) string {
	if entity == "" {
		return "item"
	}
	return entity
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

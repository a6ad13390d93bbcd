package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema decodes raw model output into T and checks it against a structural contract.
type Schema[T any] interface {
	// Decode parses raw JSON and validates it. The error text is shown to the model on retry.
	Decode(raw []byte) (T, error)
}

// SchemaFunc adapts a function to the Schema interface.
type SchemaFunc[T any] func(raw []byte) (T, error)

// Decode calls f.
func (f SchemaFunc[T]) Decode(raw []byte) (T, error) {
	return f(raw)
}

// StructSchema decodes JSON into T and validates its `validate` struct tags.
// Fields are reported by their JSON names.
type StructSchema[T any] struct {
	validate *validator.Validate
}

// NewStructSchema creates a schema for T.
func NewStructSchema[T any]() *StructSchema[T] {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	return &StructSchema[T]{
		validate: validate,
	}
}

// Decode parses raw and validates the result.
// Structs reached through pointers, slices, arrays and maps are validated too; a JSON null is rejected.
func (s *StructSchema[T]) Decode(raw []byte) (T, error) {
	var value T

	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if err := s.check(reflect.ValueOf(&value).Elem()); err != nil {
		return value, err
	}

	return value, nil
}

func (s *StructSchema[T]) check(value reflect.Value) error {
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return errNullResponse
		}
		value = value.Elem()
	}

	var err error
	switch value.Kind() {
	case reflect.Struct:
		err = s.validate.Struct(value.Interface())
	case reflect.Slice, reflect.Map:
		if value.IsNil() {
			return errNullResponse
		}
		fallthrough
	case reflect.Array:
		tag, ok := diveTag(value.Type().Elem())
		if !ok {
			return nil
		}
		err = s.validate.Var(value.Interface(), tag)
	default:
		return nil
	}

	if err != nil {
		return describeValidationError(err)
	}
	return nil
}

var errNullResponse = errors.New("response does not match schema: value is null")

// diveTag builds the validator tag that reaches struct elements of a container type.
// Pointer elements must be non-nil. ok is false when no struct is reachable.
func diveTag(elem reflect.Type) (tag string, ok bool) {
	tag = "dive"
	for {
		if elem.Kind() == reflect.Pointer {
			tag += ",required"
			for elem.Kind() == reflect.Pointer {
				elem = elem.Elem()
			}
		}

		switch elem.Kind() {
		case reflect.Struct:
			return tag, true
		case reflect.Slice, reflect.Array, reflect.Map:
			tag += ",dive"
			elem = elem.Elem()
		default:
			return "", false
		}
	}
}

func describeValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		// Struct errors start with the type name; element errors start with the index.
		path := fieldErr.Namespace()
		if !strings.HasPrefix(path, "[") {
			if _, rest, found := strings.Cut(path, "."); found {
				path = rest
			}
		}

		problem := fmt.Sprintf("field %q failed %q validation", path, fieldErr.Tag())
		if fieldErr.Param() != "" {
			problem = fmt.Sprintf("field %q failed %q validation (%s)", path, fieldErr.Tag(), fieldErr.Param())
		}
		problems = append(problems, problem)
	}

	return fmt.Errorf("response does not match schema: %s", strings.Join(problems, "; "))
}

const fenceTagChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_+-"

// StripCodeFences removes a leading ``` (with optional language tag) and a trailing ```.
func StripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)

	if rest, ok := strings.CutPrefix(trimmed, "```"); ok {
		// Drop the language tag, if any, up to the end of the first line.
		if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
			tag := strings.TrimSpace(rest[:newline])
			if !strings.ContainsAny(tag, "{[\"") {
				rest = rest[newline+1:]
			}
		} else if tagless := strings.TrimLeft(rest, fenceTagChars); strings.HasPrefix(tagless, "{") ||
			strings.HasPrefix(tagless, "[") {
			rest = tagless
		}
		trimmed = rest
	}

	if rest, ok := strings.CutSuffix(strings.TrimSpace(trimmed), "```"); ok {
		trimmed = rest
	}

	return strings.TrimSpace(trimmed)
}

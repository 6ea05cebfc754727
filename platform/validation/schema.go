package validation

import (
	"fmt"
	"sort"

	"github.com/deskradar/clients-api/platform/apperrors"
)

// Schema is a declarative object validator. Fields are checked in declaration
// order, rules within a field in the order they were attached, and only the
// first violated rule is reported. This first-error-wins behavior is part of
// the API contract and must not be "improved" into exhaustive reporting.
type Schema struct {
	fields       []field
	allowUnknown bool
}

type field interface {
	Name() string
	Validate(value any, present bool, parent map[string]any) (any, *apperrors.FieldError)
}

// Object builds a schema over the given fields. Unknown keys are rejected
// unless Unknown() is called.
func Object(fields ...field) *Schema {
	return &Schema{fields: fields}
}

// Unknown permits keys not declared in the schema.
func (s *Schema) Unknown() *Schema {
	s.allowUnknown = true
	return s
}

// Validate checks payload against the schema and returns the validated (and
// possibly coerced) values. On failure the returned error is a
// *apperrors.Error of kind ValidationError carrying exactly one detail entry.
func (s *Schema) Validate(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	out := make(map[string]any, len(s.fields))

	for _, f := range s.fields {
		value, present := payload[f.Name()]
		validated, fieldErr := f.Validate(value, present, payload)
		if fieldErr != nil {
			return nil, apperrors.Validation(*fieldErr)
		}
		if present {
			out[f.Name()] = validated
		}
	}

	if !s.allowUnknown {
		if fieldErr := s.findUnknown(payload); fieldErr != nil {
			return nil, apperrors.Validation(*fieldErr)
		}
	}

	return out, nil
}

// validateNested is used by ObjectField to validate sub-documents, prefixing
// error paths with the parent key.
func (s *Schema) validateNested(parentKey string, payload map[string]any) (map[string]any, *apperrors.FieldError) {
	out := make(map[string]any, len(s.fields))

	for _, f := range s.fields {
		value, present := payload[f.Name()]
		validated, fieldErr := f.Validate(value, present, payload)
		if fieldErr != nil {
			fieldErr.Path = append([]string{parentKey}, fieldErr.Path...)
			return nil, fieldErr
		}
		if present {
			out[f.Name()] = validated
		}
	}

	if !s.allowUnknown {
		if fieldErr := s.findUnknown(payload); fieldErr != nil {
			fieldErr.Path = append([]string{parentKey}, fieldErr.Path...)
			return nil, fieldErr
		}
	}

	return out, nil
}

func (s *Schema) findUnknown(payload map[string]any) *apperrors.FieldError {
	declared := make(map[string]struct{}, len(s.fields))
	for _, f := range s.fields {
		declared[f.Name()] = struct{}{}
	}

	// Deterministic pick of the offending key.
	keys := make([]string, 0, len(payload))
	for key := range payload {
		if _, ok := declared[key]; !ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	return &apperrors.FieldError{
		Type:    "object.allowUnknown",
		Message: fmt.Sprintf("%q is not allowed", keys[0]),
		Path:    []string{keys[0]},
	}
}

func newFieldError(ruleType, key, text string) *apperrors.FieldError {
	return &apperrors.FieldError{
		Type:    ruleType,
		Message: fmt.Sprintf("%q %s", key, text),
		Path:    []string{key},
	}
}

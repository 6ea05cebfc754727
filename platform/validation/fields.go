package validation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deskradar/clients-api/platform/apperrors"
)

// BooleanField validates booleans strictly: string forms like "true" are not
// converted.
type BooleanField struct {
	name     string
	required bool
}

func Boolean(name string) *BooleanField {
	return &BooleanField{name: name}
}

func (f *BooleanField) Name() string { return f.name }

func (f *BooleanField) Required() *BooleanField {
	f.required = true
	return f
}

func (f *BooleanField) Validate(value any, present bool, _ map[string]any) (any, *apperrors.FieldError) {
	if !present {
		if f.required {
			return nil, newFieldError("any.required", f.name, "is required")
		}
		return nil, nil
	}

	b, ok := value.(bool)
	if !ok {
		return nil, newFieldError("boolean.base", f.name, "must be a boolean")
	}
	return b, nil
}

type numberCheck struct {
	ruleType string
	text     string
	fn       func(value float64) bool
}

// NumberField validates numbers strictly: numeric strings are not converted.
type NumberField struct {
	name     string
	required bool
	checks   []numberCheck
}

func Number(name string) *NumberField {
	return &NumberField{name: name}
}

func (f *NumberField) Name() string { return f.name }

func (f *NumberField) Required() *NumberField {
	f.required = true
	return f
}

func (f *NumberField) Message(text string) *NumberField {
	if len(f.checks) > 0 {
		f.checks[len(f.checks)-1].text = text
	}
	return f
}

func (f *NumberField) Min(limit float64) *NumberField {
	f.checks = append(f.checks, numberCheck{
		ruleType: "number.min",
		text:     fmt.Sprintf("must be larger than or equal to %v", limit),
		fn:       func(value float64) bool { return value >= limit },
	})
	return f
}

func (f *NumberField) Max(limit float64) *NumberField {
	f.checks = append(f.checks, numberCheck{
		ruleType: "number.max",
		text:     fmt.Sprintf("must be less than or equal to %v", limit),
		fn:       func(value float64) bool { return value <= limit },
	})
	return f
}

func (f *NumberField) Validate(value any, present bool, _ map[string]any) (any, *apperrors.FieldError) {
	if !present {
		if f.required {
			return nil, newFieldError("any.required", f.name, "is required")
		}
		return nil, nil
	}

	var num float64
	switch v := value.(type) {
	case float64:
		num = v
	case int:
		num = float64(v)
	case int64:
		num = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, newFieldError("number.base", f.name, "must be a number")
		}
		num = parsed
	default:
		return nil, newFieldError("number.base", f.name, "must be a number")
	}

	for _, check := range f.checks {
		if !check.fn(num) {
			return nil, newFieldError(check.ruleType, f.name, check.text)
		}
	}

	return num, nil
}

// DateField validates ISO 8601 date strings and coerces them to time.Time.
type DateField struct {
	name     string
	required bool
}

func Date(name string) *DateField {
	return &DateField{name: name}
}

func (f *DateField) Name() string { return f.name }

func (f *DateField) Required() *DateField {
	f.required = true
	return f
}

var isoDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (f *DateField) Validate(value any, present bool, _ map[string]any) (any, *apperrors.FieldError) {
	if !present {
		if f.required {
			return nil, newFieldError("any.required", f.name, "is required")
		}
		return nil, nil
	}

	if t, ok := value.(time.Time); ok {
		return t, nil
	}

	str, ok := value.(string)
	if !ok {
		return nil, newFieldError("date.isoDate", f.name, "must be a valid ISO 8601 date")
	}
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return nil, newFieldError("date.isoDate", f.name, "must be a valid ISO 8601 date")
}

// ObjectField validates a nested document against a sub-schema. A JSON string
// value is decoded first, mirroring form payloads that carry serialized
// objects.
type ObjectField struct {
	name     string
	required bool
	schema   *Schema
}

func NestedObject(name string, schema *Schema) *ObjectField {
	return &ObjectField{name: name, schema: schema}
}

func (f *ObjectField) Name() string { return f.name }

func (f *ObjectField) Required() *ObjectField {
	f.required = true
	return f
}

func (f *ObjectField) Validate(value any, present bool, _ map[string]any) (any, *apperrors.FieldError) {
	if !present {
		if f.required {
			return nil, newFieldError("any.required", f.name, "is required")
		}
		return nil, nil
	}

	var doc map[string]any
	switch v := value.(type) {
	case map[string]any:
		doc = v
	case string:
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return nil, newFieldError("object.base", f.name, "must be an object")
		}
	default:
		return nil, newFieldError("object.base", f.name, "must be an object")
	}

	return f.schema.validateNested(f.name, doc)
}

// ArrayField validates that the value is an array. Element validation is not
// needed by any current schema.
type ArrayField struct {
	name     string
	required bool
}

func Array(name string) *ArrayField {
	return &ArrayField{name: name}
}

func (f *ArrayField) Name() string { return f.name }

func (f *ArrayField) Required() *ArrayField {
	f.required = true
	return f
}

func (f *ArrayField) Validate(value any, present bool, _ map[string]any) (any, *apperrors.FieldError) {
	if !present {
		if f.required {
			return nil, newFieldError("any.required", f.name, "is required")
		}
		return nil, nil
	}

	if _, ok := value.([]any); !ok {
		return nil, newFieldError("array.base", f.name, "must be an array")
	}
	return value, nil
}

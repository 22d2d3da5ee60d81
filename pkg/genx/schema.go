package genx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrEmptyOutput is returned by ResponseSchema.Decode for blank text.
var ErrEmptyOutput = errors.New("genx: empty output")

// ResponseSchema is the JSON shape a structured generation must conform to.
//
// Schemas derived from Go types are normalized for model providers: nullable
// type unions collapse to their single non-null type and
// additionalProperties is dropped. Validation runs against the normalized
// schema, so a required array that comes back as null is rejected.
type ResponseSchema struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema

	resolved *jsonschema.Resolved
}

// NewResponseSchema derives a ResponseSchema from T. Exported fields without
// omitempty or omitzero are required. A `jsonschema:"..."` struct tag becomes
// the field description.
func NewResponseSchema[T any](name, description string) (*ResponseSchema, error) {
	s, err := jsonschema.For[T](&jsonschema.ForOptions{})
	if err != nil {
		return nil, fmt.Errorf("genx: schema for %s: %w", name, err)
	}
	return NewResponseSchemaFrom(name, description, s)
}

// MustNewResponseSchema is like NewResponseSchema but panics on error.
func MustNewResponseSchema[T any](name, description string) *ResponseSchema {
	s, err := NewResponseSchema[T](name, description)
	if err != nil {
		panic(err)
	}
	return s
}

// NewResponseSchemaFrom wraps a hand-written schema. s is not modified.
func NewResponseSchemaFrom(name, description string, s *jsonschema.Schema) (*ResponseSchema, error) {
	if s == nil {
		return nil, fmt.Errorf("genx: schema %s is nil", name)
	}
	norm := normalizeSchema(s.CloneSchemas())
	resolved, err := norm.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("genx: resolve schema %s: %w", name, err)
	}
	return &ResponseSchema{
		Name:        name,
		Description: description,
		Schema:      norm,
		resolved:    resolved,
	}, nil
}

// Validate checks a decoded JSON value (maps, slices, float64, ...) against
// the schema.
func (rs *ResponseSchema) Validate(instance any) error {
	return rs.resolved.Validate(instance)
}

// Decode parses text as JSON, repairing syntax errors and stripping a
// markdown code fence, validates it and stores the result in v. v is left
// untouched on failure.
func (rs *ResponseSchema) Decode(text string, v any) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyOutput
	}
	var raw any
	if err := unmarshalJSON([]byte(text), &raw); err != nil {
		return fmt.Errorf("genx: decode %s: %w", rs.Name, err)
	}
	if err := rs.Validate(raw); err != nil {
		return fmt.Errorf("genx: validate %s: %w", rs.Name, err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("genx: decode %s: %w", rs.Name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("genx: decode %s: %w", rs.Name, err)
	}
	return nil
}

func normalizeSchema(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil {
		return nil
	}
	if s.Type == "" && len(s.Types) > 0 {
		var nonNull []string
		for _, t := range s.Types {
			if t != "null" {
				nonNull = append(nonNull, t)
			}
		}
		if len(nonNull) == 1 {
			s.Type = nonNull[0]
			s.Types = nil
		}
	}
	s.AdditionalProperties = nil
	s.Items = normalizeSchema(s.Items)
	for k, p := range s.Properties {
		s.Properties[k] = normalizeSchema(p)
	}
	return s
}

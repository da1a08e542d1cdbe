// Package validation checks the shape and JSON types of raw category payloads before
// they are decoded and handed to the business rules.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	apperrors "loan-intake/internal/common/errors"
)

// JSONSchema defines the structure of a category payload.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Nullable    bool   `json:"-"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// loaderDocument renders the schema as a draft-07 document. Nullable properties
// accept JSON null in addition to their declared type.
func (s JSONSchema) loaderDocument() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Properties))
	for name, p := range s.Properties {
		var typ interface{} = p.Type
		if p.Nullable {
			typ = []string{p.Type, "null"}
		}
		prop := map[string]interface{}{"type": typ}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[name] = prop
	}

	doc := map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       s.Type,
		"properties": props,
	}
	if len(s.Required) > 0 {
		required := make([]interface{}, len(s.Required))
		for i, r := range s.Required {
			required[i] = r
		}
		doc["required"] = required
	}
	if s.AdditionalProperties {
		doc["additionalProperties"] = true
	}
	return doc
}

// ValidateJSON validates a raw JSON document against the schema.
func ValidateJSON(raw []byte, schema JSONSchema) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.loaderDocument()),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

// ValidateInput validates already decoded input, such as Zeebe job variables.
func ValidateInput(input interface{}, schema JSONSchema) (*ValidationResult, error) {
	// round-trip so integers decoded as float64 keep their JSON form
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	return ValidateJSON(raw, schema)
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out
}

// Violations converts a failed result into the error taxonomy.
func (r *ValidationResult) Violations() []apperrors.Violation {
	violations := make([]apperrors.Violation, 0, len(r.Errors))
	for _, e := range r.Errors {
		violations = append(violations, apperrors.Violation{Field: e.Field, Reason: e.Message})
	}
	return violations
}

// CheckJSON validates raw against schema and returns VALIDATION_FAILED on mismatch.
func CheckJSON(raw []byte, schema JSONSchema) error {
	result, err := ValidateJSON(raw, schema)
	if err != nil {
		return apperrors.NewInputParsingFailedError(err)
	}
	if !result.Valid {
		return apperrors.NewValidationFailedError(result.Violations())
	}
	return nil
}

// CheckInput is CheckJSON for decoded values.
func CheckInput(input interface{}, schema JSONSchema) error {
	result, err := ValidateInput(input, schema)
	if err != nil {
		return apperrors.NewInputParsingFailedError(err)
	}
	if !result.Valid {
		return apperrors.NewValidationFailedError(result.Violations())
	}
	return nil
}

// DecodeCategory checks the raw category object named field against schema and decodes it
// into dst. An absent or null object is reported as a violation on field. A decoder that
// fails with a StandardError has it returned unchanged.
func DecodeCategory(raw json.RawMessage, field string, schema JSONSchema, dst interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return apperrors.NewValidationFailedError([]apperrors.Violation{{Field: field, Reason: "is required"}})
	}
	if err := CheckJSON(trimmed, schema); err != nil {
		return err
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		if stdErr, ok := apperrors.AsStandard(err); ok {
			return stdErr
		}
		return apperrors.NewInputParsingFailedError(fmt.Errorf("decode %s: %w", field, err))
	}
	return nil
}

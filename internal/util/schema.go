// Package util holds small reflection and templating helpers shared by the
// tool and agent packages.
package util

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema creates a JSON schema from a Go struct using reflection.
//
// Fields tagged omitempty or declared as pointers are optional. The
// description struct tag becomes the property description.
func CreateSchema(structType any) map[string]any {
	return createSchema(structType, false)
}

// CreateStrictSchema is CreateSchema for strict function calling: every
// property is required and additional properties are rejected. Pointer fields
// stay nullable by declaring a ["<type>", "null"] type.
func CreateStrictSchema(structType any) map[string]any {
	return createSchema(structType, true)
}

func createSchema(structType any, strict bool) map[string]any {
	t := reflect.TypeOf(structType)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		schema := map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
		if strict {
			schema["additionalProperties"] = false
		}
		return schema
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
		}

		fieldSchema := map[string]any{
			"type": getJSONType(field.Type),
		}
		if strict && isPointer(field.Type) {
			fieldSchema["type"] = []any{getJSONType(field.Type), "null"}
		}

		if description := field.Tag.Get("description"); description != "" {
			fieldSchema["description"] = description
		}

		properties[fieldName] = fieldSchema

		if strict || (!hasOmitEmpty(jsonTag) && !isPointer(field.Type)) {
			required = append(required, fieldName)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}
	if strict {
		schema["additionalProperties"] = false
	}

	return schema
}

// RequiredFields returns the required property names of schema. Both []string
// (as built by CreateSchema) and []any (as decoded from JSON) are accepted.
func RequiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

// ValidateParameters validates parameters against a JSON schema.
//
// A required field set to null is rejected unless its type admits "null".
func ValidateParameters(params map[string]any, schema map[string]any) error {
	properties, _ := schema["properties"].(map[string]any)

	for _, fieldName := range RequiredFields(schema) {
		value, exists := params[fieldName]
		if !exists {
			return &ValidationError{
				Field:   fieldName,
				Message: "required field is missing",
			}
		}
		if value == nil {
			propMap, _ := properties[fieldName].(map[string]any)
			if _, nullable := schemaTypes(propMap); !nullable {
				return &ValidationError{
					Field:   fieldName,
					Message: "required field must not be null",
				}
			}
		}
	}

	closed := schema["additionalProperties"] == false

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, fieldName := range names {
		value := params[fieldName]
		propSchema, exists := properties[fieldName]
		if !exists {
			if closed {
				return &ValidationError{
					Field:   fieldName,
					Value:   value,
					Message: "unknown field",
				}
			}
			continue
		}

		propMap, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}

		expectedType, _ := schemaTypes(propMap)
		if !isValidType(value, expectedType) {
			return &ValidationError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", expectedType, value),
			}
		}
	}

	return nil
}

// schemaTypes returns the non-null type of a property schema and whether the
// property admits null. Both "string" and ["string", "null"] forms are read.
func schemaTypes(prop map[string]any) (string, bool) {
	switch t := prop["type"].(type) {
	case string:
		return t, t == "null"
	case []string:
		return firstNonNull(t)
	case []any:
		names := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
		return firstNonNull(names)
	default:
		return "", false
	}
}

func firstNonNull(types []string) (string, bool) {
	var (
		name     string
		nullable bool
	)
	for _, t := range types {
		if t == "null" {
			nullable = true
		} else if name == "" {
			name = t
		}
	}
	return name, nullable
}

// getJSONType returns the JSON schema type for a given Go type.
func getJSONType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return getJSONType(t.Elem())
	default:
		return "string"
	}
}

func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

func isPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr
}

// isValidType checks if a value is valid according to the expected JSON schema type.
func isValidType(value any, expectedType string) bool {
	if value == nil {
		return true
	}

	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // encoding/json decodes numbers as float64
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

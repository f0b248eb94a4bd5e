package tools

import (
	"reflect"
	"strings"
)

// BuildSchema generates a JSON Schema from a tagged Go struct.
//
//	type Args struct {
//	    Path  string `json:"path" jsonschema:"description=File path,required"`
//	    Limit int    `json:"limit" jsonschema:"description=Max results"`
//	}
//
// Supported jsonschema attributes: description=<text>, required,
// enum=<a|b|c>, default=<value>.
func BuildSchema(v any) map[string]any {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := make(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if jsonTag, _, _ := strings.Cut(field.Tag.Get("json"), ","); jsonTag != "" {
			if jsonTag == "-" {
				continue
			}
			name = jsonTag
		}

		prop := map[string]any{"type": typeName(field.Type)}
		if typeName(field.Type) == "array" {
			prop["items"] = map[string]any{"type": typeName(field.Type.Elem())}
		}

		for _, attr := range strings.Split(field.Tag.Get("jsonschema"), ",") {
			attr = strings.TrimSpace(attr)
			switch {
			case attr == "required":
				required = append(required, name)
			case strings.HasPrefix(attr, "description="):
				prop["description"] = strings.TrimPrefix(attr, "description=")
			case strings.HasPrefix(attr, "enum="):
				vals := strings.Split(strings.TrimPrefix(attr, "enum="), "|")
				anyVals := make([]any, len(vals))
				for i, v := range vals {
					anyVals[i] = v
				}
				prop["enum"] = anyVals
			case strings.HasPrefix(attr, "default="):
				prop["default"] = strings.TrimPrefix(attr, "default=")
			}
		}

		properties[name] = prop
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
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
	default:
		return "object"
	}
}

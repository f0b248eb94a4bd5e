package tools

import (
	"reflect"
	"testing"
)

func TestBuildSchema(t *testing.T) {
	type args struct {
		Path    string   `json:"path" jsonschema:"description=File path,required"`
		Limit   int      `json:"limit" jsonschema:"description=Max results"`
		Mode    string   `json:"mode" jsonschema:"enum=fast|full,default=fast"`
		Tags    []string `json:"tags"`
		Exact   bool     `json:"exact"`
		Skipped string   `json:"-"`
		hidden  string
	}
	_ = args{Skipped: "", hidden: ""}

	schema := BuildSchema(args{})

	if schema["type"] != "object" {
		t.Errorf("expected object schema, got %v", schema["type"])
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %T", schema["properties"])
	}

	path := props["path"].(map[string]any)
	if path["type"] != "string" || path["description"] != "File path" {
		t.Errorf("unexpected path property %v", path)
	}

	limit := props["limit"].(map[string]any)
	if limit["type"] != "integer" {
		t.Errorf("unexpected limit property %v", limit)
	}

	mode := props["mode"].(map[string]any)
	if !reflect.DeepEqual(mode["enum"], []any{"fast", "full"}) {
		t.Errorf("unexpected enum %v", mode["enum"])
	}
	if mode["default"] != "fast" {
		t.Errorf("unexpected default %v", mode["default"])
	}

	tags := props["tags"].(map[string]any)
	if tags["type"] != "array" {
		t.Errorf("unexpected tags property %v", tags)
	}
	items := tags["items"].(map[string]any)
	if items["type"] != "string" {
		t.Errorf("unexpected items %v", items)
	}

	exact := props["exact"].(map[string]any)
	if exact["type"] != "boolean" {
		t.Errorf("unexpected exact property %v", exact)
	}

	if _, ok := props["Skipped"]; ok {
		t.Error("json:\"-\" field must be excluded")
	}
	if _, ok := props["hidden"]; ok {
		t.Error("unexported field must be excluded")
	}

	if !reflect.DeepEqual(schema["required"], []string{"path"}) {
		t.Errorf("unexpected required %v", schema["required"])
	}
}

func TestBuildSchemaNonStruct(t *testing.T) {
	schema := BuildSchema(42)
	if schema["type"] != "object" {
		t.Errorf("expected fallback object schema, got %v", schema)
	}
	props := schema["properties"].(map[string]any)
	if len(props) != 0 {
		t.Errorf("expected empty properties, got %v", props)
	}
}

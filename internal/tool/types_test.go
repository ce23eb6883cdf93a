package tool

import (
	"encoding/json"
	"testing"
)

func TestBuildSchema(t *testing.T) {
	schema := BuildSchema(
		SchemaParam{Name: "key", Type: "string", Description: "State key", Required: true},
		SchemaParam{Name: "value", Type: "integer", Description: "Value to store", Required: false},
	)

	// Should be valid JSON
	var parsed map[string]interface{}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		t.Fatalf("BuildSchema output is not valid JSON: %v", err)
	}

	// Should have type: object
	if parsed["type"] != "object" {
		t.Errorf("type = %v, want 'object'", parsed["type"])
	}

	// Should have properties
	props, ok := parsed["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'properties' field")
	}

	key, ok := props["key"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'key' property")
	}
	if key["type"] != "string" {
		t.Errorf("key.type = %v, want 'string'", key["type"])
	}
	if key["description"] != "State key" {
		t.Errorf("key.description = %v, want 'State key'", key["description"])
	}

	value, ok := props["value"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'value' property")
	}
	if value["type"] != "integer" {
		t.Errorf("value.type = %v, want 'integer'", value["type"])
	}

	// Check required array
	required, ok := parsed["required"].([]interface{})
	if !ok {
		t.Fatal("missing 'required' field")
	}
	if len(required) != 1 || required[0] != "key" {
		t.Errorf("required = %v, want [key]", required)
	}
}

func TestBuildSchemaEmpty(t *testing.T) {
	schema := BuildSchema()

	var parsed map[string]interface{}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		t.Fatalf("empty schema is not valid JSON: %v", err)
	}

	if parsed["type"] != "object" {
		t.Errorf("type = %v, want 'object'", parsed["type"])
	}
}

func TestRegistryBasicOps(t *testing.T) {
	reg := NewRegistry()

	// List should be empty
	if len(reg.List()) != 0 {
		t.Error("new registry should be empty")
	}

	// Get non-existent
	_, ok := reg.Get("nope")
	if ok {
		t.Error("Get on empty registry should return false")
	}
}

func TestGenerateToolsPromptEmpty(t *testing.T) {
	reg := NewRegistry()
	prompt := reg.GenerateToolsPrompt()
	if prompt != "(no tools available)" {
		t.Errorf("empty registry prompt = %q, want '(no tools available)'", prompt)
	}
}

func TestErrorResult(t *testing.T) {
	r := ErrorResult("File not found: x.pdf")
	if r.Error == "" {
		t.Error("Error should be set")
	}
	var parsed map[string]string
	if err := json.Unmarshal([]byte(r.Output), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if parsed["status"] != "error" || parsed["message"] != "File not found: x.pdf" {
		t.Errorf("output = %v", parsed)
	}
}

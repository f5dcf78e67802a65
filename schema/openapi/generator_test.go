package openapi

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	nestmap "github.com/goliatone/go-nestmap"
)

func TestNewGeneratorOptions(t *testing.T) {
	custom := NewGenerator(
		WithOpenAPIVersion("3.1.0"),
		WithInfo("Observatory", "2.0.0", WithInfoDescription("observing configuration")),
		WithOperation("/observatory", "POST", "updateObservatory", WithOperationSummary("Update observatory")),
		WithContentType("application/yaml"),
		WithResponse("201", "Created"),
		WithRootComponent("Observatory"),
	)

	cfg := custom.config
	if cfg.openAPIVersion != "3.1.0" {
		t.Fatalf("expected openapi version 3.1.0, got %q", cfg.openAPIVersion)
	}
	if cfg.info.Title != "Observatory" || cfg.info.Version != "2.0.0" || cfg.info.Description != "observing configuration" {
		t.Fatalf("unexpected info %+v", cfg.info)
	}
	if cfg.operation.Path != "/observatory" || cfg.operation.Method != "post" || cfg.operation.OperationID != "updateObservatory" {
		t.Fatalf("unexpected operation %+v", cfg.operation)
	}
	if cfg.operation.Summary != "Update observatory" {
		t.Fatalf("unexpected summary %q", cfg.operation.Summary)
	}
	if cfg.contentType != "application/yaml" {
		t.Fatalf("unexpected content type %q", cfg.contentType)
	}
	if cfg.responses["201"].Description != "Created" {
		t.Fatalf("expected the 201 response to be configured")
	}
	if _, exists := cfg.responses["204"]; !exists {
		t.Fatalf("expected default 204 response to remain configured")
	}
	if cfg.rootComponent != "Observatory" {
		t.Fatalf("unexpected root component %q", cfg.rootComponent)
	}
	if NewGenerator(WithRootComponent("")).config.rootComponent != "Config" {
		t.Fatalf("an empty component name must keep the default")
	}
}

func TestGenerateLayeredView(t *testing.T) {
	strong, err := nestmap.NewResolving(map[string]any{
		"OBS":  map[string]any{"temperature": 7.5, "unit": "!SIM.unit"},
		"mode": "imaging",
	})
	if err != nil {
		t.Fatalf("NewResolving: %v", err)
	}
	weak, err := nestmap.NewResolving(map[string]any{
		"OBS":     map[string]any{"exposure": 30, "filters": []any{"g", "r"}},
		"enabled": true,
		"gain":    nil,
	})
	if err != nil {
		t.Fatalf("NewResolving: %v", err)
	}

	document, err := NewGenerator().Generate(nestmap.NewLayeredView(strong, weak))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	assertJSONEqual(t, loadExpected(t, "layered_document.json"), document)
	if err := validateDocument(document); err != nil {
		t.Fatalf("document failed validation: %v", err)
	}
}

func TestGenerateKeepsObjectsOverScalars(t *testing.T) {
	strong, _ := nestmap.NewResolving(map[string]any{"OBS": "disabled"})
	weak, _ := nestmap.NewResolving(map[string]any{"OBS": map[string]any{"temperature": 3}})

	document, err := NewGenerator().Generate(nestmap.NewLayeredView(strong, weak))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	schema := document["components"].(map[string]any)["schemas"].(map[string]any)["Config"].(map[string]any)
	obs := schema["properties"].(map[string]any)["OBS"].(map[string]any)
	if obs["type"] != "object" {
		t.Fatalf("expected OBS to stay an object, got %v", obs)
	}
	if _, ok := obs["properties"].(map[string]any)["temperature"]; !ok {
		t.Fatalf("expected temperature under OBS, got %v", obs)
	}
}

func TestGenerateResolvedSubMapping(t *testing.T) {
	tree, err := nestmap.NewResolving(map[string]any{
		"current": "!cameras.main",
		"cameras": map[string]any{"main": map[string]any{"gain": 2}},
	})
	if err != nil {
		t.Fatalf("NewResolving: %v", err)
	}
	document, err := NewGenerator().Generate(tree)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	schema := document["components"].(map[string]any)["schemas"].(map[string]any)["Config"].(map[string]any)
	current := schema["properties"].(map[string]any)["current"].(map[string]any)
	if current["type"] != "object" {
		t.Fatalf("expected the resolved reference to describe an object, got %v", current)
	}
}

func TestGenerateNilView(t *testing.T) {
	document, err := NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	schema := document["components"].(map[string]any)["schemas"].(map[string]any)["Config"].(map[string]any)
	if len(schema["properties"].(map[string]any)) != 0 {
		t.Fatalf("expected an empty object schema, got %v", schema)
	}
}

func TestGenerateReportsCycles(t *testing.T) {
	tree, err := nestmap.NewResolving(map[string]any{"loop": map[string]any{"a": "!loop.b", "b": "!loop.a"}})
	if err != nil {
		t.Fatalf("NewResolving: %v", err)
	}
	if _, err := NewGenerator().Generate(tree); err == nil {
		t.Fatalf("expected the cycle to surface")
	}
}

func loadExpected(t *testing.T, name string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", name, err)
	}
	return out
}

func assertJSONEqual(t *testing.T, want, got map[string]any) {
	t.Helper()
	wantJSON := mustMarshal(t, want)
	gotJSON := mustMarshal(t, got)
	if string(wantJSON) != string(gotJSON) {
		t.Fatalf("document mismatch\nwant: %s\ngot:  %s", wantJSON, gotJSON)
	}
}

func mustMarshal(t *testing.T, value any) []byte {
	t.Helper()
	payload, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return payload
}

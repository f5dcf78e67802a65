package layering

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeFromFixture(t *testing.T) {
	fx := loadLayeringFixture(t, "layering_merge.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			layers := make([]map[string]any, len(tc.Layers))
			for i := range tc.Layers {
				layers[i] = tc.Layers[i].Snapshot
			}

			got := Merge(layers...)
			if diff := cmp.Diff(tc.Expect, got); diff != "" {
				t.Errorf("merged snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeZeroInput(t *testing.T) {
	got := Merge()
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty map, got %#v", got)
	}
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	strong := map[string]any{"OBS": map[string]any{"temperature": 7}}
	weak := map[string]any{"OBS": map[string]any{"airmass": 1.2}}

	merged := Merge(strong, weak)
	merged["OBS"].(map[string]any)["temperature"] = 99

	if got := strong["OBS"].(map[string]any)["temperature"]; got != 7 {
		t.Fatalf("strong layer mutated through merge result: %v", got)
	}
	if _, ok := weak["OBS"].(map[string]any)["temperature"]; ok {
		t.Fatalf("weak layer gained a key through merge result")
	}
}

func TestSetPathCreatesIntermediates(t *testing.T) {
	target := map[string]any{"SIM": "off"}
	SetPath(target, []string{"SIM", "random", "seed"}, 9001)

	want := map[string]any{"SIM": map[string]any{"random": map[string]any{"seed": 9001}}}
	if diff := cmp.Diff(want, target); diff != "" {
		t.Fatalf("unexpected tree (-want +got):\n%s", diff)
	}

	got, ok := GetPath(target, []string{"SIM", "random", "seed"})
	if !ok || got != 9001 {
		t.Fatalf("GetPath = %v, %v", got, ok)
	}
	if _, ok := GetPath(target, []string{"SIM", "random", "seed", "deeper"}); ok {
		t.Fatalf("expected GetPath through a scalar to fail")
	}
}

type layeringFixture struct {
	Description string                `json:"description"`
	Cases       []layeringFixtureCase `json:"cases"`
}

type layeringFixtureCase struct {
	Name   string                 `json:"name"`
	Layers []layeringFixtureLayer `json:"layers"`
	Expect map[string]any         `json:"expect"`
}

type layeringFixtureLayer struct {
	Scope    string         `json:"scope"`
	Snapshot map[string]any `json:"snapshot"`
}

func loadLayeringFixture(t *testing.T, name string) layeringFixture {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read layering fixture %q: %v", name, err)
	}
	var fx layeringFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal layering fixture %q: %v", name, err)
	}
	return fx
}

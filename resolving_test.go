package nestmap

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustResolving(t *testing.T, source any, opts ...Option) *ResolvingTreeMap {
	t.Helper()
	r, err := NewResolving(source, opts...)
	if err != nil {
		t.Fatalf("NewResolving: %v", err)
	}
	return r
}

func TestResolvingFollowsReferences(t *testing.T) {
	r := mustResolving(t, map[string]any{
		"SIM": map[string]any{"exposure": "!OBS.exposure", "bands": "!OBS.filters"},
		"OBS": map[string]any{"exposure": 30, "filters": map[string]any{"g": 1, "r": 2}},
	})

	if got := mustGet(t, r, "!SIM.exposure").Scalar(); got != 30 {
		t.Fatalf("expected 30, got %v", got)
	}

	bands := mustGet(t, r, "!SIM.bands")
	if !bands.IsMap() {
		t.Fatalf("expected reference to a sub-mapping to return a view")
	}
	if _, ok := bands.View().(*ResolvingTreeMap); !ok {
		t.Fatalf("expected a ResolvingTreeMap view, got %T", bands.View())
	}
	if diff := cmp.Diff(map[string]any{"g": 1, "r": 2}, bands.Interface()); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvingSubViewKeepsResolving(t *testing.T) {
	r := mustResolving(t, map[string]any{
		"SIM": map[string]any{"exposure": "!OBS.exposure"},
		"OBS": map[string]any{"exposure": 30},
	})
	sim := mustGet(t, r, "SIM").View()
	if got := mustGet(t, sim, "exposure").Scalar(); got != "!OBS.exposure" {
		t.Fatalf("a sub-view resolves against its own root, got %v", got)
	}
}

func TestResolvingDetectsCycles(t *testing.T) {
	r := mustResolving(t, map[string]any{
		"foo": map[string]any{"a": "!bar.x", "b": "!bar.y"},
		"bar": map[string]any{"x": "!foo.b", "y": "!foo.a"},
	})

	_, err := r.Get("!foo.b")
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %T", err)
	}
	want := []string{"!foo.b", "!bar.y", "!foo.a", "!bar.x", "!foo.b"}
	if diff := cmp.Diff(want, cycle.Chain); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), "!foo.b -> !bar.y") {
		t.Fatalf("unexpected message %q", err)
	}

	if got := mustGet(t, r, "foo").IsMap(); !got {
		t.Fatalf("a failed chase must not corrupt the tree")
	}
}

func TestResolvingSelfReference(t *testing.T) {
	r := mustResolving(t, map[string]any{"loop": map[string]any{"me": "!loop.me"}})
	if _, err := r.Get("!loop.me"); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestResolvingDanglingReference(t *testing.T) {
	r := mustResolving(t, map[string]any{
		"foo": map[string]any{"a": "!bar.x", "b": "!bar.y"},
	})
	if got := mustGet(t, r, "!foo.b").Scalar(); got != "!bar.y" {
		t.Fatalf("expected the unresolved reference, got %v", got)
	}
	if _, err := r.Get("!foo.c"); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("a missing requested key is still an error, got %v", err)
	}
}

func TestResolvingDepthLimit(t *testing.T) {
	source := map[string]any{"k": map[string]any{"a": "!k.b", "b": "!k.c", "c": "!k.d", "d": 1}}

	r := mustResolving(t, source, WithMaxChaseDepth(2))
	if _, err := r.Get("!k.a"); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}

	r = mustResolving(t, source)
	if got := mustGet(t, r, "!k.a").Scalar(); got != 1 {
		t.Fatalf("expected 1 with the default limit, got %v", got)
	}
}

func TestResolvingDepthLimitCountsHops(t *testing.T) {
	r := mustResolving(t, map[string]any{"k": map[string]any{"a": "!k.b", "b": "!k.c", "c": 1}}, WithMaxChaseDepth(2))
	if got := mustGet(t, r, "!k.a").Scalar(); got != 1 {
		t.Fatalf("a two-hop chain fits a limit of 2, got %v", got)
	}

	r = mustResolving(t, map[string]any{"k": map[string]any{"a": "!k.b", "b": "!k.c", "c": 1}}, WithMaxChaseDepth(1))
	_, err := r.Get("!k.a")
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 1 hops") {
		t.Fatalf("unexpected message %q", err)
	}
}

func TestResolvingReferenceThroughSingleValue(t *testing.T) {
	r := mustResolving(t, map[string]any{
		"foo": map[string]any{"a": "!bar.x.y"},
		"bar": map[string]any{"x": 5},
	})
	if got := mustGet(t, r, "!foo.a").Scalar(); got != "!bar.x.y" {
		t.Fatalf("expected the unresolved reference, got %v", got)
	}
	if _, err := r.Get("!bar.x.y"); !errors.Is(err, ErrNotTraversable) {
		t.Fatalf("a direct lookup must still fail, got %v", err)
	}
}

func TestResolvingSharesStorage(t *testing.T) {
	tm := mustTree(t, map[string]any{"a": "!b.c"})
	r := Resolving(tm)
	if err := tm.Set("!b.c", "found"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mustGet(t, r, "a").Scalar(); got != "found" {
		t.Fatalf("expected found, got %v", got)
	}
	if r.Title() != "ResolvingTreeMap" {
		t.Fatalf("unexpected title %q", r.Title())
	}
}

func TestFromLayersYieldsResolvedSubMappings(t *testing.T) {
	layers := []*ResolvingTreeMap{
		mustResolving(t, map[string]any{"optics": map[string]any{"focal": 10}}),
		mustResolving(t, map[string]any{"optics": 3}),
		nil,
		mustResolving(t, map[string]any{"site": 1}),
		mustResolving(t, map[string]any{"optics": map[string]any{"mirror": 2}}),
		mustResolving(t, map[string]any{"optics": "!spare", "spare": map[string]any{"lens": 4}}),
	}

	var titles []string
	var keys []string
	for view := range FromLayers(layers, "optics") {
		titles = append(titles, view.Title())
		keys = append(keys, slices.Collect(view.Keys())...)
	}
	if diff := cmp.Diff([]string{"[0] layer", "[4] layer", "[5] layer"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"focal", "mirror", "lens"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvingCloneIsIndependent(t *testing.T) {
	r := mustResolving(t, map[string]any{"a": 1})
	clone := r.Clone()
	if err := clone.Set("a", 2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mustGet(t, r, "a").Scalar(); got != 1 {
		t.Fatalf("clone write leaked, got %v", got)
	}
	if clone.Title() != "ResolvingTreeMap" {
		t.Fatalf("unexpected clone title %q", clone.Title())
	}
}

package state_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	nestmap "github.com/goliatone/go-nestmap"
	"github.com/goliatone/go-nestmap/pkg/state"
)

func userRef(domain, id string) state.Ref {
	return state.Ref{
		Domain: domain,
		Scope: nestmap.NewScope("user", nestmap.ScopePriorityUser,
			nestmap.WithScopeMetadata(map[string]any{"user_id": id})),
	}
}

func TestMemoryStoreSaveThenLoad(t *testing.T) {
	store := state.NewMemoryStore()
	ref := userRef("sensors", "ada")
	tree := nestmap.Pairs{
		{Key: "OBS", Value: nestmap.Pairs{{Key: "temperature", Value: 21.5}, {Key: "unit", Value: "C"}}},
		{Key: "name", Value: "station"},
	}

	meta, err := store.Save(context.Background(), ref, tree, state.Meta{SnapshotID: "snap-1", ETag: "v1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID != "snap-1" || meta.ETag != "v1" {
		t.Fatalf("unexpected saved meta: %+v", meta)
	}

	got, loaded, ok, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected record to exist")
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(meta, loaded); diff != "" {
		t.Fatalf("meta mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStoreCopiesTrees(t *testing.T) {
	store := state.NewMemoryStore()
	ref := userRef("sensors", "ada")
	nested := nestmap.Pairs{{Key: "temperature", Value: 21.5}}
	tree := nestmap.Pairs{{Key: "OBS", Value: nested}}

	if _, err := store.Save(context.Background(), ref, tree, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	nested[0].Value = 99

	got, _, _, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	obs, _ := got.Get("OBS")
	if value, _ := obs.(nestmap.Pairs).Get("temperature"); value != 21.5 {
		t.Fatalf("expected stored copy to keep 21.5, got %v", value)
	}
}

func TestMemoryStoreMissingRecord(t *testing.T) {
	store := state.NewMemoryStore()
	_, _, ok, err := store.Load(context.Background(), userRef("sensors", "nobody"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected no record")
	}
}

func TestMemoryStoreRejectsUnsupportedScope(t *testing.T) {
	store := state.NewMemoryStore()
	ref := state.Ref{Domain: "sensors", Scope: nestmap.NewScope("tenant", 10)}
	if _, err := store.Save(context.Background(), ref, nil, state.Meta{}); err == nil {
		t.Fatalf("expected unsupported scope error")
	}
}

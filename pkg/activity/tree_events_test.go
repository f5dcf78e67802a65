package activity

import (
	"context"
	"testing"
)

func TestBuildSetEventCarriesKeyAndValues(t *testing.T) {
	meta := map[string]any{"source": "cli"}
	input := TreeEventInput{
		ActorID:  " actor ",
		Tree:     "TreeMap",
		Key:      "!OBS.temperature",
		OldValue: 100,
		NewValue: 7,
		Metadata: meta,
		Scope:    ScopeContext{Name: "user", Label: "User", Priority: 400, SnapshotID: "snap-1"},
	}

	event := BuildSetEvent(input)

	if event.Verb != VerbTreeSet || event.ObjectType != ObjectTypeTree {
		t.Fatalf("unexpected verb/object type: %+v", event)
	}
	if event.ObjectID != "!OBS.temperature" {
		t.Fatalf("expected key as object id, got %q", event.ObjectID)
	}
	if event.ActorID != "actor" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	if event.Metadata["old_value"] != 100 || event.Metadata["new_value"] != 7 {
		t.Fatalf("expected old/new values, got %+v", event.Metadata)
	}
	if event.Metadata["scope_name"] != "user" || event.Metadata["scope_priority"] != 400 || event.Metadata["scope_label"] != "User" {
		t.Fatalf("expected scope metadata, got %+v", event.Metadata)
	}
	if event.Metadata["snapshot_id"] != "snap-1" || event.Metadata["tree"] != "TreeMap" {
		t.Fatalf("expected snapshot/tree metadata, got %+v", event.Metadata)
	}
	if len(meta) != 1 {
		t.Fatalf("expected input metadata untouched, got %+v", meta)
	}
}

func TestBuildMergedEventFallsBackToTreeTitle(t *testing.T) {
	event := BuildMergedEvent(TreeEventInput{Tree: "defaults", Keys: []string{"OBS", "SIM"}, Warnings: 2})
	if event.ObjectID != "defaults" {
		t.Fatalf("expected tree title as object id, got %q", event.ObjectID)
	}
	keys, ok := event.Metadata["keys"].([]string)
	if !ok || len(keys) != 2 {
		t.Fatalf("expected merged keys, got %v", event.Metadata["keys"])
	}
	if event.Metadata["warnings"] != 2 {
		t.Fatalf("expected warning count, got %v", event.Metadata["warnings"])
	}
}

func TestBuildDeletedEventUsesFallbackObjectID(t *testing.T) {
	event := BuildDeletedEvent(TreeEventInput{})
	if event.ObjectID != ObjectTypeTree {
		t.Fatalf("expected fallback object ID %q, got %q", ObjectTypeTree, event.ObjectID)
	}
}

func TestBuildLayerSavedEventPrefersSnapshotID(t *testing.T) {
	event := BuildLayerSavedEvent(TreeEventInput{
		Scope: ScopeContext{Name: "mode", SnapshotID: "instrument/mode/3"},
	})
	if event.Verb != VerbTreeLayerSaved || event.ObjectType != ObjectTypeTreeLayer {
		t.Fatalf("unexpected verb/object type: %+v", event)
	}
	if event.ObjectID != "instrument/mode/3" {
		t.Fatalf("expected snapshot id as object id, got %q", event.ObjectID)
	}

	capture := &CaptureHook{}
	if err := (Hooks{capture}).Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := capture.Verbs(); len(got) != 1 || got[0] != VerbTreeLayerSaved {
		t.Fatalf("expected layer saved event captured, got %v", got)
	}
}

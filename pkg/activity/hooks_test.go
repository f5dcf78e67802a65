package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"key": "!OBS.temperature"}
	evt := Event{
		Verb:       " tree.set ",
		ActorID:    " actor ",
		TenantID:   " tenant ",
		ObjectType: " tree ",
		ObjectID:   " !OBS.temperature ",
		Channel:    " nestmap ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "tree.set" || got.ObjectType != "tree" || got.ObjectID != "!OBS.temperature" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.TenantID != "tenant" || got.Channel != "nestmap" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["key"] = "changed"
	if evt.Metadata["key"] != "!OBS.temperature" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: VerbTreeSet}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, _ Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbTreeSet, ObjectType: ObjectTypeTree, ObjectID: "foo"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if got := capture.Verbs(); len(got) != 1 || got[0] != VerbTreeSet {
		t.Fatalf("expected one captured tree.set event, got %v", got)
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: VerbTreeDeleted, ObjectType: ObjectTypeTree, ObjectID: "foo"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	if NewEmitter(nil, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without hooks to stay disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, ActorID: "operator"})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
	if capture.Events[0].ActorID != "operator" {
		t.Fatalf("expected default actor applied, got %q", capture.Events[0].ActorID)
	}
}

func TestEmitterPreservesExplicitFields(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default", ActorID: "fallback"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbTreeSet,
		ActorID:    "alice",
		ObjectType: ObjectTypeTree,
		ObjectID:   "foo",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := capture.Events[0]
	if got.Channel != "custom" || got.ActorID != "alice" {
		t.Fatalf("expected explicit fields preserved, got %+v", got)
	}
	if !got.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", got.OccurredAt)
	}
}

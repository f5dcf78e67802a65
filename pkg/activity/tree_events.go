package activity

import (
	"strings"
	"time"
)

const (
	VerbTreeSet          = "tree.set"
	VerbTreeDeleted      = "tree.deleted"
	VerbTreeMerged       = "tree.merged"
	VerbTreeLayerSaved   = "tree.layer.saved"
	ObjectTypeTree       = "tree"
	ObjectTypeTreeLayer  = "tree.layer"
	metadataKey          = "key"
	metadataTree         = "tree"
	metadataOldValue     = "old_value"
	metadataNewValue     = "new_value"
	metadataWarnings     = "warnings"
	metadataScopeName    = "scope_name"
	metadataScopePrio    = "scope_priority"
	metadataScopeLabel   = "scope_label"
	metadataSnapshotID   = "snapshot_id"
	metadataChangedPaths = "keys"
)

// ScopeContext identifies the stored layer a mutation belongs to.
type ScopeContext struct {
	Name       string
	Label      string
	Priority   int
	SnapshotID string
}

// TreeEventInput collects the fields shared by tree events.
type TreeEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Tree       string
	Key        string
	Keys       []string
	OldValue   any
	NewValue   any
	Warnings   int
	Scope      ScopeContext
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildSetEvent describes a successful Set.
func BuildSetEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeSet, ObjectTypeTree, input)
}

// BuildDeletedEvent describes a successful Delete.
func BuildDeletedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeDeleted, ObjectTypeTree, input)
}

// BuildMergedEvent describes an Update. Keys lists the top-level keys that
// were merged.
func BuildMergedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeMerged, ObjectTypeTree, input)
}

// BuildLayerSavedEvent describes a stored layer being written back.
func BuildLayerSavedEvent(input TreeEventInput) Event {
	return buildTreeEvent(VerbTreeLayerSaved, ObjectTypeTreeLayer, input)
}

func buildTreeEvent(verb, objectType string, input TreeEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Key != "" {
		set(metadataKey, input.Key)
	}
	if input.Tree != "" {
		set(metadataTree, input.Tree)
	}
	if len(input.Keys) > 0 {
		set(metadataChangedPaths, append([]string{}, input.Keys...))
	}
	if input.OldValue != nil {
		set(metadataOldValue, input.OldValue)
	}
	if input.NewValue != nil {
		set(metadataNewValue, input.NewValue)
	}
	if input.Warnings > 0 {
		set(metadataWarnings, input.Warnings)
	}
	if input.Scope.Name != "" {
		set(metadataScopeName, input.Scope.Name)
		set(metadataScopePrio, input.Scope.Priority)
		if input.Scope.Label != "" {
			set(metadataScopeLabel, input.Scope.Label)
		}
	}
	if input.Scope.SnapshotID != "" {
		set(metadataSnapshotID, input.Scope.SnapshotID)
	}

	objectID := strings.TrimSpace(input.Key)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Scope.SnapshotID)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.Tree)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

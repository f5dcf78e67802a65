package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	nestmap "github.com/goliatone/go-nestmap"
	"github.com/goliatone/go-nestmap/internal/logging"
	"github.com/goliatone/go-nestmap/pkg/activity"
	"github.com/rs/zerolog"
)

var (
	// ErrETagMismatch reports a concurrent write detected by Mutate.
	ErrETagMismatch = errors.New("state: etag mismatch")
	// ErrNoLayers reports that none of the requested scopes had a stored layer.
	ErrNoLayers = errors.New("state: no layers found")
)

// Ref identifies one stored layer of one configuration domain.
type Ref struct {
	Domain string
	Scope  nestmap.Scope
}

// Meta is storage-owned metadata used for provenance and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves the tree of a single Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (tree nestmap.Pairs, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, tree nestmap.Pairs, meta Meta) (Meta, error)
}

// Mutator edits a loaded layer in place.
type Mutator func(*nestmap.ResolvingTreeMap) error

// Resolver loads scoped layers from a Store.
type Resolver struct {
	Store Store
	// Options are applied to every tree the resolver builds.
	Options []nestmap.Option
	// Activity, when set, receives a tree.layer.saved event after Mutate.
	Activity *activity.Emitter
	// Logger records hook failures. Defaults to the "state" component logger.
	Logger *zerolog.Logger
}

// Identifier returns the canonical storage key of r.
func (r Ref) Identifier() (string, error) {
	switch r.Scope.Name {
	case "defaults":
		return fmt.Sprintf("defaults/%s", r.Domain), nil
	case "package", "mode", "user":
		metadataKey := r.Scope.Name + "_id"
		id, ok := r.Scope.Metadata[metadataKey].(string)
		if !ok || id == "" {
			return "", fmt.Errorf("missing metadata key %q for scope %q", metadataKey, r.Scope.Name)
		}
		return fmt.Sprintf("%s/%s/%s", r.Scope.Name, id, r.Domain), nil
	default:
		return "", fmt.Errorf("unsupported scope name %q", r.Scope.Name)
	}
}

func (r Resolver) check(domain string) error {
	if r.Store == nil {
		return fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return fmt.Errorf("state: domain is required")
	}
	return nil
}

func (r Resolver) loadLayers(ctx context.Context, domain string, scopes []nestmap.Scope) ([]nestmap.Layer, error) {
	layers := make([]nestmap.Layer, 0, len(scopes)+1)
	for _, scope := range scopes {
		pairs, meta, ok, err := r.Store.Load(ctx, Ref{Domain: domain, Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", domain, scope.Name, err)
		}
		if !ok {
			continue
		}
		tree := nestmap.Restore(pairs, r.Options...)
		layers = append(layers, nestmap.NewLayer(scope, tree, nestmap.WithSnapshotID(meta.SnapshotID)))
	}
	return layers, nil
}

// Resolve loads every requested scope that has a stored layer and stacks
// them by priority.
func (r Resolver) Resolve(ctx context.Context, domain string, scopes ...nestmap.Scope) (*nestmap.Stack, error) {
	if err := r.check(domain); err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("state: at least one scope is required")
	}

	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w for domain %q", ErrNoLayers, domain)
	}

	stack, err := nestmap.NewStack(layers...)
	if err != nil {
		return nil, fmt.Errorf("state: stack: %w", err)
	}
	return stack, nil
}

// ResolveWithDefaults is Resolve with an in-memory defaults layer placed
// below every requested scope.
func (r Resolver) ResolveWithDefaults(ctx context.Context, domain string, defaults *nestmap.ResolvingTreeMap, scopes ...nestmap.Scope) (*nestmap.Stack, error) {
	if err := r.check(domain); err != nil {
		return nil, err
	}

	defaultsPriority := nestmap.ScopePriorityDefaults
	prioritySet := make(map[int]struct{}, len(scopes))
	for _, scope := range scopes {
		if scope.Name == "defaults" {
			return nil, fmt.Errorf("state: scope name %q is reserved", "defaults")
		}
		prioritySet[scope.Priority] = struct{}{}
		if scope.Priority <= defaultsPriority {
			defaultsPriority = scope.Priority - 1
		}
	}
	for {
		if _, taken := prioritySet[defaultsPriority]; !taken {
			break
		}
		defaultsPriority--
	}

	layers, err := r.loadLayers(ctx, domain, scopes)
	if err != nil {
		return nil, err
	}
	defaultsScope := nestmap.NewScope("defaults", defaultsPriority, nestmap.WithScopeLabel("Defaults"))
	layers = append(layers, nestmap.NewLayer(defaultsScope, defaults))

	stack, err := nestmap.NewStack(layers...)
	if err != nil {
		return nil, fmt.Errorf("state: stack: %w", err)
	}
	return stack, nil
}

// Mutate loads one layer, applies fn, checks that its references still
// resolve without cycles, then saves it. The returned stack holds only the
// saved layer.
func (r Resolver) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (*nestmap.Stack, Meta, error) {
	if err := r.check(ref.Domain); err != nil {
		return nil, Meta{}, err
	}
	if ref.Scope.Name == "" {
		return nil, Meta{}, fmt.Errorf("state: scope name is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	pairs, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	if !ok {
		pairs = nil
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	tree := nestmap.Restore(pairs, r.Options...)
	if err := fn(tree); err != nil {
		return nil, loadedMeta, err
	}
	if err := validateReferences(tree); err != nil {
		return nil, loadedMeta, err
	}

	savedMeta, err := r.Store.Save(ctx, ref, tree.Pairs(), mergeMeta(loadedMeta, meta))
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Domain, ref.Scope.Name, err)
	}
	r.emitSaved(ctx, ref, savedMeta)

	stack, err := nestmap.NewStack(nestmap.NewLayer(ref.Scope, tree, nestmap.WithSnapshotID(savedMeta.SnapshotID)))
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: stack: %w", err)
	}
	return stack, savedMeta, nil
}

// validateReferences fails when any bang-string value of tree takes part in
// a reference cycle or an over-long chain.
func validateReferences(tree *nestmap.ResolvingTreeMap) error {
	for key := range tree.Keys() {
		_, err := tree.Get(key)
		if errors.Is(err, nestmap.ErrCycleDetected) || errors.Is(err, nestmap.ErrDepthExceeded) {
			return fmt.Errorf("state: invalid layer: %w", err)
		}
	}
	return nil
}

func (r Resolver) emitSaved(ctx context.Context, ref Ref, meta Meta) {
	if !r.Activity.Enabled() {
		return
	}
	event := activity.BuildLayerSavedEvent(activity.TreeEventInput{
		Tree: ref.Domain,
		Scope: activity.ScopeContext{
			Name:       ref.Scope.Name,
			Label:      ref.Scope.Label,
			Priority:   ref.Scope.Priority,
			SnapshotID: meta.SnapshotID,
		},
	})
	// Hook failures do not undo a completed save.
	if err := r.Activity.Emit(ctx, event); err != nil {
		logger := r.logger()
		logger.Error().Err(err).Str("verb", event.Verb).Str("object_id", event.ObjectID).
			Str("domain", ref.Domain).Msg("Activity hook failed")
	}
}

func (r Resolver) logger() zerolog.Logger {
	if r.Logger != nil {
		return *r.Logger
	}
	return logging.Component("state")
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

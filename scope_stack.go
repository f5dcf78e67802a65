package nestmap

import (
	"errors"
	"fmt"
	"sort"
)

// Scope models a named precedence bucket (defaults, package, mode, user).
// Higher priority values represent stronger layers.
type Scope struct {
	Name     string         `json:"name"`
	Label    string         `json:"label,omitempty"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches arbitrary metadata to the scope. The map is
// copied.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

func (s Scope) isZero() bool {
	return s.Name == "" && s.Label == "" && s.Priority == 0 && len(s.Metadata) == 0
}

// Layer pairs a scope with the tree captured for it.
type Layer struct {
	Scope      Scope
	Tree       *ResolvingTreeMap
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID sets the snapshot identifier used for auditing.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer builds a Layer holding a private copy of tree. A nil tree becomes
// an empty one.
func NewLayer(scope Scope, tree *ResolvingTreeMap, opts ...LayerOption) Layer {
	layer := Layer{
		Scope: scope.clone(),
		Tree:  cloneTree(tree),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

func cloneTree(tree *ResolvingTreeMap) *ResolvingTreeMap {
	if tree == nil || tree.TreeMap == nil {
		empty, _ := NewResolving(nil)
		return empty
	}
	return tree.Clone()
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("scope: name must be provided")
	// ErrDuplicateScopeName indicates NewStack received several layers with
	// the same scope name.
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	// ErrPriorityOrder indicates duplicate priorities.
	ErrPriorityOrder = errors.New("scope: priorities must be strictly ordered")
	// ErrEmptyStack indicates an operation that needs at least one layer.
	ErrEmptyStack = errors.New("scope: stack must include at least one layer")
)

// Stack is an immutable, scope-aware set of layers ordered from strongest
// to weakest.
type Stack struct {
	layers []Layer
}

// NewStack validates the layers and sorts them so the highest priority comes
// first. Layer trees are copied.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer := cloneLayer(layer)
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns copies of the layers, strongest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// View returns a LayeredView over the stack's trees, strongest first. The
// view reads the stack's own copies; it cannot mutate the caller's trees.
func (s *Stack) View() (*LayeredView, error) {
	if s == nil || len(s.layers) == 0 {
		return nil, ErrEmptyStack
	}
	trees := make([]*ResolvingTreeMap, len(s.layers))
	for i := range s.layers {
		trees[i] = s.layers[i].Tree
	}
	return NewLayeredView(trees...), nil
}

// Rules returns an evaluator over the stack's merged view. The strongest
// scope becomes the default rule scope unless opts set another one.
func (s *Stack) Rules(opts ...RuleOption) (*Rules, error) {
	view, err := s.View()
	if err != nil {
		return nil, err
	}
	defaults := []RuleOption{WithRuleScope(s.layers[0].Scope)}
	return NewRules(view, append(defaults, opts...)...), nil
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Scope:      layer.Scope.clone(),
		Tree:       cloneTree(layer.Tree),
		SnapshotID: layer.SnapshotID,
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}

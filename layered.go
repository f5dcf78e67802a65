package nestmap

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

const layeredKind = "LayeredView"

// LayeredView overlays ResolvingTreeMap layers. Index 0 is the strongest
// layer: lookups return the first layer that defines a key. Sub-mappings
// defined by several layers come back as a new LayeredView over just those
// sub-views, so overlays merge lazily at any depth.
//
// A LayeredView holds references to its layers; mutating a layer is visible
// through the view on the next lookup.
type LayeredView struct {
	layers []*ResolvingTreeMap
}

// NewLayeredView builds a view over layers, strongest first. Nil layers are
// ignored.
func NewLayeredView(layers ...*ResolvingTreeMap) *LayeredView {
	kept := make([]*ResolvingTreeMap, 0, len(layers))
	for _, layer := range layers {
		if layer != nil {
			kept = append(kept, layer)
		}
	}
	return &LayeredView{layers: kept}
}

// Layers returns the layers in precedence order.
func (v *LayeredView) Layers() []*ResolvingTreeMap {
	out := make([]*ResolvingTreeMap, len(v.layers))
	copy(out, v.layers)
	return out
}

// LayerWith returns a new view with stronger placed in front of the existing
// layers.
func (v *LayeredView) LayerWith(stronger ...*ResolvingTreeMap) *LayeredView {
	return NewLayeredView(append(append([]*ResolvingTreeMap{}, stronger...), v.layers...)...)
}

// Title returns "LayeredView".
func (v *LayeredView) Title() string {
	return layeredKind
}

func (v *LayeredView) chaseDepth() int {
	if len(v.layers) == 0 {
		return DefaultMaxChaseDepth
	}
	return v.layers[0].cfg.chaseDepth()
}

// find returns the value from the first layer that defines key. Layers that
// miss the key, or hold a single value somewhere along its path, are
// skipped.
func (v *LayeredView) find(key string) (Value, error) {
	for _, layer := range v.layers {
		val, err := layer.Get(key)
		if err == nil {
			return val, nil
		}
		if errors.Is(err, ErrMissingKey) || errors.Is(err, ErrNotTraversable) {
			continue
		}
		return Value{}, err
	}
	return Value{}, missingKey(key, OpGet)
}

// Get returns the value under key from the strongest layer defining it.
//
// A trailing "!" on a bang-key asks for bang-string values to be chased
// through the whole view. Without it, bang-string values are returned as
// they are stored (each layer still resolves references within itself).
func (v *LayeredView) Get(key string) (Value, error) {
	key, chase := trimResolvingMark(key)
	limit := v.chaseDepth()
	chain := []string{key}
	visited := map[string]struct{}{key: {}}
	current := key
	for {
		val, err := v.find(current)
		if err != nil {
			if current != key && errors.Is(err, ErrMissingKey) {
				return Scalar(current), nil
			}
			return Value{}, err
		}
		if val.IsMap() {
			return v.collect(current, val), nil
		}
		next, ok := val.BangKey()
		if !ok || !chase {
			return val, nil
		}
		chain = append(chain, next)
		if _, seen := visited[next]; seen {
			return Value{}, &CycleError{Key: key, Chain: chain}
		}
		if len(chain)-1 > limit {
			return Value{}, fmt.Errorf("%w: %q after %d hops", ErrDepthExceeded, key, limit)
		}
		visited[next] = struct{}{}
		current = next
	}
}

// collect gathers the sub-mappings every layer holds under key.
func (v *LayeredView) collect(key string, found Value) Value {
	var subs []*ResolvingTreeMap
	for sub := range FromLayers(v.layers, key) {
		subs = append(subs, sub)
	}
	switch len(subs) {
	case 0:
		return found
	case 1:
		return Value{view: subs[0]}
	default:
		return Value{view: NewLayeredView(subs...)}
	}
}

// Has reports whether any layer defines key.
func (v *LayeredView) Has(key string) bool {
	key, _ = trimResolvingMark(key)
	_, err := v.find(key)
	return err == nil
}

// Keys yields the union of the layers' keys: the weakest layer's keys
// first, then keys only stronger layers define.
func (v *LayeredView) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, key := range v.union() {
			if !yield(key) {
				return
			}
		}
	}
}

// Len returns the number of distinct keys across all layers.
func (v *LayeredView) Len() int {
	return len(v.union())
}

func (v *LayeredView) union() []string {
	seen := make(map[string]struct{})
	var keys []string
	for i := len(v.layers) - 1; i >= 0; i-- {
		for key := range v.layers[i].Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// Pairs returns the layers merged into one ordered mapping, stronger layers
// overriding weaker ones.
func (v *LayeredView) Pairs() Pairs {
	merged := newNode()
	for i := len(v.layers) - 1; i >= 0; i-- {
		mergeInto(merged, v.layers[i].Pairs(), "", nil)
	}
	return merged.pairs()
}

// String renders every layer in precedence order, separated by a blank line.
func (v *LayeredView) String() string {
	parts := make([]string, len(v.layers))
	for i, layer := range v.layers {
		parts[i] = layer.String()
	}
	return strings.Join(parts, "\n\n")
}

package nestmap

import (
	"errors"
	"fmt"
	"iter"
)

// ResolvingTreeMap is a TreeMap whose Get follows bang-string values: a
// value such as "!SIM.spectral.bands" is treated as a reference and looked
// up in the same tree until a non-reference value is reached.
type ResolvingTreeMap struct {
	*TreeMap
}

// NewResolving builds a ResolvingTreeMap from the same inputs New accepts.
func NewResolving(source any, opts ...Option) (*ResolvingTreeMap, error) {
	tm, err := New(source, opts...)
	if err != nil {
		return nil, err
	}
	tm.kind = "ResolvingTreeMap"
	return &ResolvingTreeMap{TreeMap: tm}, nil
}

// Resolving returns a resolving view over tm. Both share storage.
func Resolving(tm *TreeMap) *ResolvingTreeMap {
	return &ResolvingTreeMap{TreeMap: &TreeMap{root: tm.root, cfg: tm.cfg, kind: "ResolvingTreeMap"}}
}

// Get returns the value under key, chasing bang-string values. A reference
// whose target is missing is returned as the unresolved bang string.
func (r *ResolvingTreeMap) Get(key string) (Value, error) {
	limit := r.cfg.chaseDepth()
	chain := []string{key}
	visited := map[string]struct{}{key: {}}
	current := key
	for {
		e, err := r.lookup(current)
		if err != nil {
			if current != key && (errors.Is(err, ErrMissingKey) || errors.Is(err, ErrNotTraversable)) {
				return Scalar(current), nil
			}
			return Value{}, err
		}
		if e.isMap() {
			return Value{view: &ResolvingTreeMap{TreeMap: r.view(e.child)}}, nil
		}
		next, ok := e.scalar.(string)
		if !ok || !IsBangKey(next) {
			return Scalar(e.scalar), nil
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

// Clone returns a deep copy with the same configuration.
func (r *ResolvingTreeMap) Clone() *ResolvingTreeMap {
	return &ResolvingTreeMap{TreeMap: r.TreeMap.Clone()}
}

// FromLayers yields, for each layer in order, a view of key when that layer
// resolves it to a sub-mapping, following references within the layer.
// Views are titled "[i] layer" after the layer's position. Layers that miss
// the key, hold a single value or fail to resolve it are skipped.
func FromLayers(layers []*ResolvingTreeMap, key string) iter.Seq[*ResolvingTreeMap] {
	return func(yield func(*ResolvingTreeMap) bool) {
		for i, layer := range layers {
			if layer == nil {
				continue
			}
			val, err := layer.Get(key)
			if err != nil || !val.IsMap() {
				continue
			}
			sub, ok := val.View().(*ResolvingTreeMap)
			if !ok {
				continue
			}
			view := *sub.TreeMap
			view.cfg.title = fmt.Sprintf("[%d] layer", i)
			if !yield(&ResolvingTreeMap{TreeMap: &view}) {
				return
			}
		}
	}
}

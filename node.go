package nestmap

import (
	"fmt"
	"slices"
	"sort"
)

// entry is one stored value: a scalar or a child node, never both.
type entry struct {
	scalar any
	child  *node
}

func (e entry) isMap() bool {
	return e.child != nil
}

func (e entry) plain() any {
	if e.child != nil {
		return e.child.plain()
	}
	return e.scalar
}

// node is an insertion-ordered string-keyed mapping.
type node struct {
	keys   []string
	values map[string]entry
}

func newNode() *node {
	return &node{values: map[string]entry{}}
}

func (n *node) get(key string) (entry, bool) {
	e, ok := n.values[key]
	return e, ok
}

func (n *node) set(key string, e entry) {
	if _, ok := n.values[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.values[key] = e
}

func (n *node) remove(key string) bool {
	if _, ok := n.values[key]; !ok {
		return false
	}
	delete(n.values, key)
	if i := slices.Index(n.keys, key); i >= 0 {
		n.keys = slices.Delete(n.keys, i, i+1)
	}
	return true
}

func (n *node) len() int {
	return len(n.keys)
}

// hasChildMap reports whether any value of n is itself a mapping.
func (n *node) hasChildMap() bool {
	for _, key := range n.keys {
		if n.values[key].isMap() {
			return true
		}
	}
	return false
}

func (n *node) clone() *node {
	out := &node{
		keys:   slices.Clone(n.keys),
		values: make(map[string]entry, len(n.values)),
	}
	for key, e := range n.values {
		if e.child != nil {
			e.child = e.child.clone()
		}
		out.values[key] = e
	}
	return out
}

func (n *node) plain() map[string]any {
	out := make(map[string]any, len(n.keys))
	for _, key := range n.keys {
		out[key] = n.values[key].plain()
	}
	return out
}

func (n *node) pairs() Pairs {
	out := make(Pairs, 0, len(n.keys))
	for _, key := range n.keys {
		e := n.values[key]
		if e.child != nil {
			out = append(out, Pair{Key: key, Value: e.child.pairs()})
			continue
		}
		out = append(out, Pair{Key: key, Value: e.scalar})
	}
	return out
}

// asMapping reports whether value is one of the mapping shapes the tree
// understands and returns its entries in a deterministic order.
func asMapping(value any) (Pairs, bool) {
	switch typed := value.(type) {
	case Pairs:
		return typed, true
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make(Pairs, 0, len(keys))
		for _, key := range keys {
			out = append(out, Pair{Key: key, Value: typed[key]})
		}
		return out, true
	case map[any]any:
		keys := make([]string, 0, len(typed))
		lookup := make(map[string]any, len(typed))
		for key, v := range typed {
			s := fmt.Sprint(key)
			keys = append(keys, s)
			lookup[s] = v
		}
		sort.Strings(keys)
		out := make(Pairs, 0, len(keys))
		for _, key := range keys {
			out = append(out, Pair{Key: key, Value: lookup[key]})
		}
		return out, true
	case *TreeMap:
		if typed == nil {
			return nil, false
		}
		return typed.root.pairs(), true
	case *ResolvingTreeMap:
		if typed == nil || typed.TreeMap == nil {
			return nil, false
		}
		return typed.root.pairs(), true
	case *LayeredView:
		if typed == nil {
			return nil, false
		}
		return typed.Pairs(), true
	case Value:
		if typed.view == nil {
			return asMapping(typed.scalar)
		}
		return asMapping(typed.view)
	default:
		return nil, false
	}
}

// toEntry converts arbitrary input into a stored entry, deep-copying any
// mapping so the tree never aliases caller data.
func toEntry(value any) entry {
	if pairs, ok := asMapping(value); ok {
		return entry{child: nodeFromPairs(pairs)}
	}
	if v, ok := value.(Value); ok {
		return entry{scalar: v.scalar}
	}
	return entry{scalar: value}
}

func nodeFromPairs(pairs Pairs) *node {
	n := newNode()
	for _, pair := range pairs {
		n.set(pair.Key, toEntry(pair.Value))
	}
	return n
}

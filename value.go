package nestmap

import (
	"fmt"
	"iter"
)

// Lookup is the read surface shared by TreeMap, ResolvingTreeMap and
// LayeredView.
type Lookup interface {
	Get(key string) (Value, error)
	Has(key string) bool
	Keys() iter.Seq[string]
	Len() int
	Title() string
	String() string
}

var (
	_ Lookup = (*TreeMap)(nil)
	_ Lookup = (*ResolvingTreeMap)(nil)
	_ Lookup = (*LayeredView)(nil)
)

// Value is the result of a lookup: either a scalar or a sub-mapping view.
type Value struct {
	scalar any
	view   Lookup
}

// Scalar wraps v as a scalar Value.
func Scalar(v any) Value {
	return Value{scalar: v}
}

// IsMap reports whether the value is a sub-mapping.
func (v Value) IsMap() bool {
	return v.view != nil
}

// Scalar returns the scalar payload, or nil for sub-mappings.
func (v Value) Scalar() any {
	return v.scalar
}

// View returns the sub-mapping view, or nil for scalars.
func (v Value) View() Lookup {
	return v.view
}

// BangKey returns the scalar as a bang-key string when it is one.
func (v Value) BangKey() (string, bool) {
	if v.view != nil || !IsBangKey(v.scalar) {
		return "", false
	}
	return v.scalar.(string), true
}

// Interface returns plain Go data: the scalar itself or a nested
// map[string]any snapshot of the view.
func (v Value) Interface() any {
	if v.view != nil {
		return Snapshot(v.view)
	}
	return v.scalar
}

func (v Value) String() string {
	if v.view != nil {
		return v.view.String()
	}
	return formatScalar(v.scalar)
}

func formatScalar(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

// Pair is a single key/value entry. On its own it is merged as a
// single-entry mapping.
type Pair struct {
	Key   string
	Value any
}

// Pairs is an ordered mapping. Loaders produce Pairs so that insertion order
// survives into the tree.
type Pairs []Pair

// Get returns the value stored under key.
func (p Pairs) Get(key string) (any, bool) {
	for _, pair := range p {
		if pair.Key == key {
			return pair.Value, true
		}
	}
	return nil, false
}

// Map converts the ordered mapping into plain nested maps.
func (p Pairs) Map() map[string]any {
	return nodeFromPairs(p).plain()
}

// Clone returns a deep copy of p.
func (p Pairs) Clone() Pairs {
	return nodeFromPairs(p).pairs()
}

package nestmap

import (
	"fmt"
	"iter"
)

const (
	aliasField      = "alias"
	propertiesField = "properties"
)

// TreeMap is a nested, insertion-ordered mapping addressable with plain keys
// ("name") and dotted bang-keys ("!OBS.temperature").
//
// TreeMap is not safe for concurrent use; callers sharing one across
// goroutines must synchronise externally.
type TreeMap struct {
	root *node
	cfg  config
	kind string
}

// New builds a TreeMap from source. Source may be nil, a mapping, an alias
// block, a single Pair, or a slice of those which is merged left to right.
func New(source any, opts ...Option) (*TreeMap, error) {
	m := &TreeMap{root: newNode(), cfg: applyOptions(opts), kind: "TreeMap"}
	if err := m.load(source); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TreeMap) load(source any) error {
	var entries []any
	switch typed := source.(type) {
	case nil:
		return nil
	case []any:
		entries = typed
	case []map[string]any:
		for _, item := range typed {
			entries = append(entries, item)
		}
	case []Pairs:
		for _, item := range typed {
			entries = append(entries, item)
		}
	case []Pair:
		for _, item := range typed {
			entries = append(entries, item)
		}
	default:
		entries = []any{source}
	}
	for _, item := range entries {
		if _, err := m.Update(item); err != nil {
			return err
		}
	}
	return nil
}

// view wraps child in a TreeMap sharing storage with m.
func (m *TreeMap) view(child *node) *TreeMap {
	cfg := m.cfg
	cfg.title = ""
	return &TreeMap{root: child, cfg: cfg, kind: m.kind}
}

// Title returns the configured title or the type name.
func (m *TreeMap) Title() string {
	if m.cfg.title != "" {
		return m.cfg.title
	}
	return m.kind
}

// Update merges input into the tree. Alias blocks ({alias, properties}) are
// merged into m[alias]; bang-keys at the top level of input are applied with
// Set; the rest is merged recursively. Type replacements are returned as
// warnings and logged.
func (m *TreeMap) Update(input any) ([]MergeWarning, error) {
	if pair, ok := input.(Pair); ok {
		input = Pairs{pair}
	}
	if input == nil {
		return nil, nil
	}
	pairs, ok := asMapping(input)
	if !ok {
		return nil, fmt.Errorf("%w: cannot merge %T", ErrInvalidInput, input)
	}

	if alias, ok := pairs.Get(aliasField); ok {
		return m.updateAlias(alias, pairs)
	}

	rest := make(Pairs, 0, len(pairs))
	for _, pair := range pairs {
		if !IsBangKey(pair.Key) {
			rest = append(rest, pair)
			continue
		}
		logger := m.cfg.log()
		logger.Debug().Str("key", pair.Key).
			Msg("Bang-key seen in Update, applying it with Set")
		if err := m.Set(pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	if len(rest) == 0 {
		return nil, nil
	}

	warnings := mergeInto(m.root, rest, "", nil)
	m.report(warnings)
	m.emitMerged(rest, warnings)
	return warnings, nil
}

func (m *TreeMap) updateAlias(alias any, block Pairs) ([]MergeWarning, error) {
	name, ok := alias.(string)
	if !ok {
		return nil, fmt.Errorf("%w: alias must be a string, got %T", ErrInvalidInput, alias)
	}
	var props Pairs
	if raw, ok := block.Get(propertiesField); ok && raw != nil {
		if props, ok = asMapping(raw); !ok {
			return nil, fmt.Errorf("%w: properties of %q must be a mapping, got %T", ErrInvalidInput, name, raw)
		}
	}

	incoming := Pairs{{Key: name, Value: props}}
	warnings := mergeInto(m.root, incoming, "", nil)
	m.report(warnings)
	m.emitMerged(incoming, warnings)
	return warnings, nil
}

func (m *TreeMap) report(warnings []MergeWarning) {
	logger := m.cfg.log()
	for _, w := range warnings {
		msg := "Overwriting single value with sub-mapping"
		if w.ReplacedMap() {
			msg = "Overwriting sub-mapping with single value"
		}
		logger.Warn().Str("key", w.Key).Interface("old", w.Old).Interface("new", w.New).Msg(msg)
	}
}

func (m *TreeMap) lookup(key string) (entry, error) {
	if !IsBangKey(key) {
		e, ok := m.root.get(key)
		if !ok {
			return entry{}, missingKey(key, OpGet)
		}
		return e, nil
	}

	chunks := splitKey(key)
	current := entry{child: m.root}
	for i, chunk := range chunks {
		if !current.isMap() {
			return entry{}, notTraversable(key, chunks[:i], OpGet)
		}
		next, ok := current.child.get(chunk)
		if !ok {
			return entry{}, missingKey(key, OpGet)
		}
		current = next
	}
	return current, nil
}

// Get returns the value stored under key. Sub-mappings come back as a
// TreeMap view that shares storage with m.
func (m *TreeMap) Get(key string) (Value, error) {
	e, err := m.lookup(key)
	if err != nil {
		return Value{}, err
	}
	if e.isMap() {
		return Value{view: m.view(e.child)}, nil
	}
	return Value{scalar: e.scalar}, nil
}

// Has reports whether Get(key) would succeed.
func (m *TreeMap) Has(key string) bool {
	_, err := m.lookup(key)
	return err == nil
}

// Set stores value under key. Bang-keys create missing intermediate
// sub-mappings, refuse to descend through single values and refuse to
// replace an existing sub-mapping with a single value.
func (m *TreeMap) Set(key string, value any) error {
	if !IsBangKey(key) {
		old, _ := m.root.get(key)
		m.root.set(key, toEntry(value))
		m.emitSet(key, old.plain(), value)
		return nil
	}

	chunks := splitKey(key)
	parents, final := chunks[:len(chunks)-1], chunks[len(chunks)-1]
	container := m.root
	for i, chunk := range parents {
		next, ok := container.get(chunk)
		if !ok {
			child := newNode()
			container.set(chunk, entry{child: child})
			container = child
			continue
		}
		if !next.isMap() {
			return notTraversable(key, chunks[:i+1], OpSet)
		}
		container = next.child
	}

	old, exists := container.get(final)
	if _, incomingIsMap := asMapping(value); exists && old.isMap() && !incomingIsMap {
		return occupiedBySubMap(key)
	}
	container.set(final, toEntry(value))
	m.emitSet(key, old.plain(), value)
	return nil
}

// Delete removes key. Bang-keys are guarded like Get, and the container of
// the final segment must itself be a sub-mapping.
func (m *TreeMap) Delete(key string) error {
	if !IsBangKey(key) {
		old, _ := m.root.get(key)
		if !m.root.remove(key) {
			return missingKey(key, OpDelete)
		}
		m.emitDeleted(key, old.plain())
		return nil
	}

	chunks := splitKey(key)
	parents, final := chunks[:len(chunks)-1], chunks[len(chunks)-1]
	current := entry{child: m.root}
	for i, chunk := range parents {
		if !current.isMap() {
			return notTraversable(key, chunks[:i], OpDelete)
		}
		next, ok := current.child.get(chunk)
		if !ok {
			return missingKey(key, OpDelete)
		}
		current = next
	}
	if !current.isMap() {
		return notTraversable(key, parents, OpDelete)
	}
	old, _ := current.child.get(final)
	if !current.child.remove(final) {
		return missingKey(key, OpDelete)
	}
	m.emitDeleted(key, old.plain())
	return nil
}

// Keys yields every leaf key in staggered order: at each level, sub-mappings
// are enumerated depth first before the single values of that level.
// Top-level single values keep their plain key; everything nested is
// reported as a bang-key.
func (m *TreeMap) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		staggered(m.root, "", func(key string, _ entry) bool {
			return yield(key)
		})
	}
}

// All yields leaf keys with their stored values in staggered order.
func (m *TreeMap) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		staggered(m.root, "", func(key string, e entry) bool {
			return yield(key, e.scalar)
		})
	}
}

// Len returns the number of leaf entries.
func (m *TreeMap) Len() int {
	count := 0
	staggered(m.root, "", func(string, entry) bool {
		count++
		return true
	})
	return count
}

func staggered(n *node, prefix string, yield func(string, entry) bool) bool {
	for _, key := range levelOrder(n) {
		e := n.values[key]
		full := joinSubkey(prefix, key)
		if e.isMap() {
			if !staggered(e.child, full, yield) {
				return false
			}
			continue
		}
		if !yield(full, e) {
			return false
		}
	}
	return true
}

// Pairs returns an ordered deep copy of the tree.
func (m *TreeMap) Pairs() Pairs {
	return m.root.pairs()
}

// Map returns the tree as plain nested maps.
func (m *TreeMap) Map() map[string]any {
	return m.root.plain()
}

// Clone returns a deep copy with the same configuration.
func (m *TreeMap) Clone() *TreeMap {
	return &TreeMap{root: m.root.clone(), cfg: m.cfg, kind: m.kind}
}

// IsNestedMapping reports whether value is a mapping holding at least one
// further mapping.
func IsNestedMapping(value any) bool {
	pairs, ok := asMapping(value)
	if !ok {
		return false
	}
	for _, pair := range pairs {
		if _, ok := asMapping(pair.Value); ok {
			return true
		}
	}
	return false
}

// Restore rebuilds a tree from pairs exactly as given, without alias or
// bang-key handling. It is the inverse of Pairs.
func Restore(pairs Pairs, opts ...Option) *ResolvingTreeMap {
	return &ResolvingTreeMap{TreeMap: &TreeMap{
		root: nodeFromPairs(pairs),
		cfg:  applyOptions(opts),
		kind: "ResolvingTreeMap",
	}}
}

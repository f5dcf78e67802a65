package nestmap

// MergeWarning records a type replacement performed while merging: a
// sub-mapping replaced by a scalar or the other way round. Warnings are
// informational; the merge still happened.
type MergeWarning struct {
	Key string
	Old any
	New any
}

// ReplacedMap reports whether a sub-mapping was overwritten by a scalar.
func (w MergeWarning) ReplacedMap() bool {
	_, oldIsMap := w.Old.(map[string]any)
	return oldIsMap
}

// mergeInto applies incoming onto old key by key. Both-map entries merge
// recursively, everything else is replaced by the incoming value.
func mergeInto(old *node, incoming Pairs, prefix string, warnings []MergeWarning) []MergeWarning {
	for _, pair := range incoming {
		key := joinSubkey(prefix, pair.Key)
		current, exists := old.get(pair.Key)
		sub, incomingIsMap := asMapping(pair.Value)
		if exists && current.isMap() && incomingIsMap {
			warnings = mergeInto(current.child, sub, key, warnings)
			continue
		}
		next := toEntry(pair.Value)
		if exists && current.isMap() != incomingIsMap {
			warnings = append(warnings, MergeWarning{Key: key, Old: current.plain(), New: next.plain()})
		}
		old.set(pair.Key, next)
	}
	return warnings
}

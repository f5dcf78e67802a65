// Package layering merges and copies plain nested map data, the shape views
// are materialised into for expression engines and encoders.
package layering

// Merge composes maps ordered from strongest to weakest. Nested maps present
// in several layers are merged key by key; any other value is taken from the
// strongest layer defining it. Inputs are never modified.
func Merge(layers ...map[string]any) map[string]any {
	if len(layers) == 0 {
		return map[string]any{}
	}
	merged := cloneMap(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeMaps(layers[i], merged)
	}
	return merged
}

func mergeMaps(strong, weak map[string]any) map[string]any {
	result := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		result[key] = value
	}
	for key, value := range strong {
		strongMap, strongIsMap := value.(map[string]any)
		weakMap, weakIsMap := result[key].(map[string]any)
		if strongIsMap && weakIsMap {
			result[key] = mergeMaps(strongMap, weakMap)
			continue
		}
		result[key] = Clone(value)
	}
	return result
}

// Clone deep copies maps and slices; other values are returned as is.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	default:
		return value
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = Clone(value)
	}
	return out
}

// SetPath stores value at path inside target, creating intermediate maps
// and replacing any non-map found along the way.
func SetPath(target map[string]any, path []string, value any) {
	if len(path) == 0 {
		return
	}
	current := target
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}

// GetPath returns the value stored at path.
func GetPath(source map[string]any, path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	current := source
	for _, segment := range path[:len(path)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	value, ok := current[path[len(path)-1]]
	return value, ok
}

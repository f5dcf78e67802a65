package nestmap

import "github.com/goliatone/go-nestmap/layering"

// Snapshot materialises view into plain nested maps. Bang-string values are
// kept as stored; LayeredViews are merged with stronger layers winning.
func Snapshot(view Lookup) map[string]any {
	switch typed := view.(type) {
	case nil:
		return map[string]any{}
	case *TreeMap:
		return typed.Map()
	case *ResolvingTreeMap:
		return typed.Map()
	case *LayeredView:
		layers := make([]map[string]any, len(typed.layers))
		for i, layer := range typed.layers {
			layers[i] = layer.Map()
		}
		return layering.Merge(layers...)
	default:
		out := map[string]any{}
		for key := range view.Keys() {
			value, err := view.Get(key)
			if err != nil {
				continue
			}
			layering.SetPath(out, keyPath(key), value.Interface())
		}
		return out
	}
}

// keyPath returns the segments a key addresses. Plain keys are a single
// segment even when they contain dots.
func keyPath(key string) []string {
	if IsBangKey(key) {
		return splitKey(key)
	}
	return []string{key}
}

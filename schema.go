package nestmap

import "fmt"

// FieldDescriptor describes a leaf key and the Go type of its value.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Describe lists every leaf of view in key order. Bang-string values are
// reported as "ref" rather than string.
func Describe(view Lookup) []FieldDescriptor {
	if view == nil {
		return []FieldDescriptor{}
	}
	fields := make([]FieldDescriptor, 0, view.Len())
	for key := range view.Keys() {
		value, err := view.Get(key)
		if err != nil {
			continue
		}
		fields = append(fields, FieldDescriptor{Path: key, Type: describeValue(value)})
	}
	return fields
}

func describeValue(value Value) string {
	if value.IsMap() {
		return "map"
	}
	if _, ok := value.BangKey(); ok {
		return "ref"
	}
	return typeName(value.Scalar())
}

func typeName(value any) string {
	switch typed := value.(type) {
	case nil:
		return "nil"
	case []any:
		if len(typed) == 0 {
			return "[]any"
		}
		return "[]" + typeName(typed[0])
	default:
		return fmt.Sprintf("%T", value)
	}
}

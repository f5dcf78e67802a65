// Package openapi describes a configuration tree as an OpenAPI document so
// editors and form generators can validate payloads shaped like the tree.
package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	nestmap "github.com/goliatone/go-nestmap"
)

// ExtensionReference marks string properties whose current value is a
// bang-key reference. Its value is the referenced key.
const ExtensionReference = "x-nestmap-ref"

// Generator builds OpenAPI documents from tree views.
type Generator struct {
	config generatorConfig
}

// NewGenerator constructs a Generator.
func NewGenerator(opts ...GeneratorOption) Generator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return Generator{config: cfg}
}

// Generate publishes the schema of view under components and references it
// from the configured operation's request body. Every leaf key becomes a
// property nested along its bang-key segments; where layers disagree on
// whether a key is a sub-mapping, the object schema is kept.
func (g Generator) Generate(view nestmap.Lookup) (map[string]any, error) {
	root := newObjectSchema()
	if view != nil {
		for key := range view.Keys() {
			value, err := view.Get(key)
			if err != nil {
				return nil, fmt.Errorf("openapi: describe %q: %w", key, err)
			}
			leaf, err := buildSchema(reflect.ValueOf(value.Interface()))
			if err != nil {
				return nil, fmt.Errorf("openapi: describe %q: %w", key, err)
			}
			insert(root, keyPath(key), leaf)
		}
	}
	return newOpenAPIDocumentBuilder(g.config, root).build()
}

func newObjectSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func isObject(schema map[string]any) bool {
	return schema != nil && schema["type"] == "object"
}

func insert(root map[string]any, path []string, leaf map[string]any) {
	node := root
	for _, segment := range path[:len(path)-1] {
		properties := node["properties"].(map[string]any)
		child, _ := properties[segment].(map[string]any)
		if !isObject(child) {
			child = newObjectSchema()
			properties[segment] = child
		}
		node = child
	}
	properties := node["properties"].(map[string]any)
	last := path[len(path)-1]
	if existing, _ := properties[last].(map[string]any); isObject(existing) && !isObject(leaf) {
		return
	}
	properties[last] = leaf
}

func keyPath(key string) []string {
	if nestmap.IsBangKey(key) {
		return strings.Split(strings.TrimPrefix(key, "!"), ".")
	}
	return []string{key}
}

func buildSchema(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{"nullable": true}, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{"nullable": true}, nil
		}
		rv = rv.Elem()
	}

	if rv.Type() == reflect.TypeOf(time.Time{}) {
		return map[string]any{"type": "string", "format": "date-time"}, nil
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return map[string]any{"nullable": true}, nil
		}
		return buildSchema(rv.Elem())
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		schema := map[string]any{"type": "string"}
		if value := rv.String(); nestmap.IsBangKey(value) {
			schema[ExtensionReference] = value
		}
		return schema, nil
	case reflect.Slice, reflect.Array:
		return schemaForSlice(rv)
	case reflect.Map:
		return schemaForMap(rv)
	default:
		return nil, fmt.Errorf("unsupported kind %s", rv.Kind())
	}
}

func schemaForMap(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map keys must be strings, got %s", rv.Type().Key())
	}
	schema := newObjectSchema()
	properties := schema["properties"].(map[string]any)
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, key := range keys {
		child, err := buildSchema(rv.MapIndex(key))
		if err != nil {
			return nil, err
		}
		properties[key.String()] = child
	}
	return schema, nil
}

func schemaForSlice(rv reflect.Value) (map[string]any, error) {
	items := map[string]any{}
	if rv.Len() > 0 {
		first, err := buildSchema(rv.Index(0))
		if err != nil {
			return nil, err
		}
		items = first
	}
	return map[string]any{"type": "array", "items": items}, nil
}

// Package loader reads configuration files and the environment into ordered
// nestmap.Pairs, ready to be merged into a TreeMap.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	nestmap "github.com/goliatone/go-nestmap"
	"github.com/goliatone/go-nestmap/internal/logging"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func logger() zerolog.Logger {
	return logging.Component("loader")
}

const mergeTag = "!!merge"

// ErrUnsupportedFormat reports a file extension File cannot parse.
var ErrUnsupportedFormat = errors.New("loader: unsupported file format")

// YAML reads every document of r. Mapping key order is kept; anchors and
// aliases are expanded. Empty documents are skipped.
func YAML(r io.Reader) ([]nestmap.Pairs, error) {
	decoder := yaml.NewDecoder(r)
	var docs []nestmap.Pairs
	for index := 0; ; index++ {
		var doc yaml.Node
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loader: yaml document %d: %w", index, err)
		}
		value, err := fromNode(&doc)
		if err != nil {
			return nil, fmt.Errorf("loader: yaml document %d: %w", index, err)
		}
		if value == nil {
			continue
		}
		pairs, ok := value.(nestmap.Pairs)
		if !ok {
			return nil, fmt.Errorf("loader: yaml document %d: top level must be a mapping, got %T", index, value)
		}
		docs = append(docs, pairs)
	}
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.MappingNode:
		pairs := make(nestmap.Pairs, 0, len(n.Content)/2)
		var inherited nestmap.Pairs
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			value, err := fromNode(valueNode)
			if err != nil {
				return nil, err
			}
			if keyNode.ShortTag() == mergeTag {
				inherited = appendMerged(inherited, value)
				continue
			}
			key := keyNode.Value
			if ref, ok := bangTag(keyNode); ok {
				key = ref
			}
			pairs = append(pairs, nestmap.Pair{Key: key, Value: value})
		}
		return appendMissing(pairs, inherited), nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			value, err := fromNode(child)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return items, nil
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.ScalarNode:
		if ref, ok := bangTag(n); ok {
			return ref, nil
		}
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
	}
}

// bangTag recovers an unquoted bang-key such as `unit: !OBS.unit`, which
// YAML reads as a local tag on an empty scalar.
func bangTag(n *yaml.Node) (string, bool) {
	if n.Kind != yaml.ScalarNode || n.Value != "" || n.Style&yaml.TaggedStyle == 0 {
		return "", false
	}
	if !strings.HasPrefix(n.Tag, "!") || strings.HasPrefix(n.Tag, "!!") {
		return "", false
	}
	return n.Tag, true
}

// appendMerged collects the mappings named by a "<<" key. Earlier entries
// win over later ones.
func appendMerged(inherited nestmap.Pairs, value any) nestmap.Pairs {
	switch typed := value.(type) {
	case nestmap.Pairs:
		return appendMissing(inherited, typed)
	case []any:
		for _, item := range typed {
			if pairs, ok := item.(nestmap.Pairs); ok {
				inherited = appendMissing(inherited, pairs)
			}
		}
	}
	return inherited
}

func appendMissing(pairs, extra nestmap.Pairs) nestmap.Pairs {
	for _, pair := range extra {
		if _, ok := pairs.Get(pair.Key); !ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// TOML reads a TOML document. TOML tables carry no order, so keys come back
// sorted.
func TOML(r io.Reader) (nestmap.Pairs, error) {
	var raw map[string]any
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("loader: toml: %w", err)
	}
	return sortedPairs(raw), nil
}

func sortedPairs(raw map[string]any) nestmap.Pairs {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make(nestmap.Pairs, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, nestmap.Pair{Key: key, Value: sortedValue(raw[key])})
	}
	return pairs
}

func sortedValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return sortedPairs(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = sortedValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = sortedPairs(item)
		}
		return out
	default:
		return typed
	}
}

// File parses path according to its extension. JSON is read with the YAML
// parser, so a JSON file keeps its key order too.
func File(path string) ([]nestmap.Pairs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		docs, err := YAML(f)
		if err != nil {
			return nil, fmt.Errorf("%w (%s)", err, path)
		}
		return docs, nil
	case ".toml":
		doc, err := TOML(f)
		if err != nil {
			return nil, fmt.Errorf("%w (%s)", err, path)
		}
		return []nestmap.Pairs{doc}, nil
	default:
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, path)
	}
}

// Tree merges every document of every path, in order, into one
// ResolvingTreeMap.
func Tree(paths []string, opts ...nestmap.Option) (*nestmap.ResolvingTreeMap, error) {
	var docs []nestmap.Pairs
	for _, path := range paths {
		loaded, err := File(path)
		if err != nil {
			return nil, err
		}
		log := logger()
		log.Debug().Str("path", path).Int("documents", len(loaded)).Msg("Loaded configuration file")
		docs = append(docs, loaded...)
	}
	return nestmap.NewResolving(docs, opts...)
}

// Layers loads each path into its own tree, titled with the file name, in
// the order given. The result can be passed to nestmap.NewLayeredView.
func Layers(paths []string, opts ...nestmap.Option) ([]*nestmap.ResolvingTreeMap, error) {
	layers := make([]*nestmap.ResolvingTreeMap, 0, len(paths))
	for _, path := range paths {
		layerOpts := append([]nestmap.Option{nestmap.WithTitle(filepath.Base(path))}, opts...)
		tree, err := Tree([]string{path}, layerOpts...)
		if err != nil {
			return nil, err
		}
		layers = append(layers, tree)
	}
	return layers, nil
}

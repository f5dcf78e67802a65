package loader

import (
	"fmt"
	"strings"

	nestmap "github.com/goliatone/go-nestmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvNestingSeparator splits an environment variable name into key segments.
const EnvNestingSeparator = "__"

// Env reads variables starting with prefix. The prefix is dropped, the rest
// is lower-cased and split on "__", so APP_OBS__TEMPERATURE=5 becomes
// "!obs.temperature" = "5". Values stay strings.
func Env(prefix string) (nestmap.Pairs, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(name, EnvNestingSeparator, ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loader: env %q: %w", prefix, err)
	}

	tree, err := nestmap.New(nil)
	if err != nil {
		return nil, err
	}
	for _, key := range k.Keys() {
		target := key
		if strings.Contains(key, ".") {
			target = "!" + key
		}
		if err := tree.Set(target, k.Get(key)); err != nil {
			return nil, fmt.Errorf("loader: env %q: %w", prefix, err)
		}
	}
	return tree.Pairs(), nil
}

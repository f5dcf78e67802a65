package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	nestmap "github.com/goliatone/go-nestmap"
	"github.com/goliatone/go-nestmap/internal/logging"
	"github.com/goliatone/go-nestmap/pkg/loader"
)

const appName = "nestmap"

type rootOptions struct {
	verbosity int
	layers    []string
	envPrefix string
	title     string
}

// NewRootCmd builds the nestmap command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Inspect layered bang-key configuration trees",
		Long: `nestmap loads YAML, TOML and JSON files as layers of a configuration
tree and lets you query it with bang-keys such as !OBS.temperature.

Layers given first take precedence. Without --layer, the files found under
the XDG config directories (for example ~/.config/nestmap/config.yaml) are
used.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Setup(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	flags.StringArrayVarP(&opts.layers, "layer", "l", nil, "Configuration file to load as a layer (repeatable, first wins)")
	flags.StringVar(&opts.envPrefix, "env-prefix", "", "Load environment variables with this prefix as the strongest layer")
	flags.StringVar(&opts.title, "title", "", "Title used when rendering a merged tree")

	cmd.AddCommand(
		newShowCmd(opts),
		newGetCmd(opts),
		newKeysCmd(opts),
		newTraceCmd(opts),
		newEvalCmd(opts),
		newDescribeCmd(opts),
		newSchemaCmd(opts),
	)
	return cmd
}

func (o *rootOptions) paths() []string {
	if len(o.layers) > 0 {
		return o.layers
	}
	return loader.Discover(appName)
}

func (o *rootOptions) treeOptions() []nestmap.Option {
	return []nestmap.Option{nestmap.WithLogger(logging.Component(appName))}
}

// stack loads every layer into a scoped stack, strongest first.
func (o *rootOptions) stack() (*nestmap.Stack, error) {
	paths := o.paths()
	trees, err := loader.Layers(paths, o.treeOptions()...)
	if err != nil {
		return nil, err
	}

	type named struct {
		name, label string
		tree        *nestmap.ResolvingTreeMap
	}
	var entries []named
	if o.envPrefix != "" {
		pairs, err := loader.Env(o.envPrefix)
		if err != nil {
			return nil, err
		}
		tree := nestmap.Restore(pairs, append(o.treeOptions(), nestmap.WithTitle("env"))...)
		entries = append(entries, named{name: "env", label: o.envPrefix + "*", tree: tree})
	}
	for i, tree := range trees {
		entries = append(entries, named{name: filepath.Base(paths[i]), label: paths[i], tree: tree})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no layers: pass --layer or --env-prefix, or create %s", loader.DefaultSearchPaths(appName)[0])
	}

	seen := make(map[string]int, len(entries))
	layers := make([]nestmap.Layer, len(entries))
	for i, entry := range entries {
		name := entry.name
		if count := seen[entry.name]; count > 0 {
			name = fmt.Sprintf("%s#%d", entry.name, count+1)
		}
		seen[entry.name]++
		scope := nestmap.NewScope(name, len(entries)-i, nestmap.WithScopeLabel(entry.label))
		layers[i] = nestmap.NewLayer(scope, entry.tree)
	}
	return nestmap.NewStack(layers...)
}

func (o *rootOptions) view() (*nestmap.LayeredView, error) {
	stack, err := o.stack()
	if err != nil {
		return nil, err
	}
	return stack.View()
}

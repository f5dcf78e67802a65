package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	nestmap "github.com/goliatone/go-nestmap"
	"github.com/goliatone/go-nestmap/internal/logging"
	"github.com/goliatone/go-nestmap/schema/openapi"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	var merged bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render every layer, or the merged tree with --merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := opts.view()
			if err != nil {
				return err
			}
			if !merged {
				fmt.Fprintln(cmd.OutOrStdout(), view.String())
				return nil
			}
			tree, err := nestmap.New(view.Pairs(), nestmap.WithTitle(opts.title))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tree.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&merged, "merged", false, "Render the layers merged into one tree")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value under KEY (append ! to follow references across layers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.view()
			if err != nil {
				return err
			}
			value, err := view.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value.String())
			return nil
		},
	}
}

func newKeysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every leaf key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := opts.view()
			if err != nil {
				return err
			}
			for key := range view.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func newTraceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace KEY",
		Short: "Show which layers define KEY, as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := opts.stack()
			if err != nil {
				return err
			}
			trace, err := stack.Trace(args[0])
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(trace, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
}

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "eval EXPR",
		Short: "Evaluate an expression over the merged configuration",
		Long: `Evaluate an expression over the merged configuration.

Top-level keys are variables; leaves["!OBS.temperature"] holds every leaf and,
with the expr engine, lookup("!OBS.temperature!") resolves a key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stack, err := opts.stack()
			if err != nil {
				return err
			}
			evaluator, err := evaluatorFor(engine)
			if err != nil {
				return err
			}
			rules, err := stack.Rules(
				nestmap.WithEvaluator(evaluator),
				nestmap.WithEvaluatorLogger(nestmap.ZerologEvaluatorLogger(logging.Component(appName))),
			)
			if err != nil {
				return err
			}
			result, err := rules.Evaluate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatResult(result))
			return nil
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "expr", "Expression engine: expr, cel or js")
	return cmd
}

func evaluatorFor(engine string) (nestmap.Evaluator, error) {
	switch engine {
	case "", "expr":
		return nestmap.NewExprEvaluator(), nil
	case "cel":
		return nestmap.NewCELEvaluator(), nil
	case "js":
		evaluator := nestmap.NewJSEvaluator()
		if evaluator == nil {
			return nil, fmt.Errorf("the js engine is not available in this build (rebuild with -tags js_eval)")
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}

func formatResult(result any) string {
	switch result.(type) {
	case map[string]any, []any:
		payload, err := json.Marshal(result)
		if err == nil {
			return string(payload)
		}
	}
	return fmt.Sprint(result)
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "List every leaf key with the type of its value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := opts.view()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, field := range nestmap.Describe(view) {
				fmt.Fprintf(w, "%s\t%s\n", field.Path, field.Type)
			}
			return w.Flush()
		},
	}
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print an OpenAPI document describing the merged tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := opts.view()
			if err != nil {
				return err
			}
			generator := openapi.NewGenerator(openapi.WithInfo(opts.title, version))
			document, err := generator.Generate(view)
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(document, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "schema-version", "", "Version recorded in the document's info block")
	return cmd
}

package nestmap

import "time"

// JSEvaluatorOption configures the goja engine returned by NewJSEvaluator.
type JSEvaluatorOption func(*jsEvaluatorConfig)

type jsEvaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSWithProgramCache shares compiled scripts through cache. Keys are
// prefixed with "js:" so one cache can serve several engines.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) { cfg.cache = cache }
}

// JSWithFunctionRegistry exposes the registry's helpers as globals and
// through call(name, ...args). The registry is copied.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		if registry != nil {
			cfg.registry = registry.Clone()
		}
	}
}

// JSWithTimeout interrupts a rule still running after d. Zero means no
// limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		if d >= 0 {
			cfg.timeout = d
		}
	}
}

func newJSEvaluatorConfig(opts []JSEvaluatorOption) jsEvaluatorConfig {
	var cfg jsEvaluatorConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// jsGlobals returns the globals a script sees: the snapshot's top-level
// keys, then the tree helpers, which win over snapshot keys of the same
// name. Registry helpers are bound last.
func jsGlobals(ctx RuleContext, registry *FunctionRegistry) map[string]any {
	globals := make(map[string]any, len(ctx.Snapshot)+7)
	for key, value := range ctx.Snapshot {
		globals[key] = value
	}
	globals["now"] = ctx.timestamp()
	globals["args"] = ctx.Args
	globals["metadata"] = ctx.Metadata
	globals["leaves"] = ctx.leaves()
	globals["lookup"] = func(key string) (any, error) { return ctx.lookup(key) }
	if scope := ctx.scopeBinding(); scope != nil {
		globals["scope"] = scope
	}
	if registry == nil {
		return globals
	}
	globals["call"] = func(name string, arguments ...any) (any, error) {
		return registry.Call(name, arguments...)
	}
	for _, name := range registry.Names() {
		fn := name
		globals[fn] = func(arguments ...any) (any, error) { return registry.Call(fn, arguments...) }
	}
	return globals
}

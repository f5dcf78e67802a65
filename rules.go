package nestmap

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEvaluator reports that no expression engine could be configured.
var ErrNoEvaluator = errors.New("nestmap: evaluator not configured")

// RuleContext carries the inputs of one expression evaluation.
type RuleContext struct {
	// Snapshot is exposed to expressions as top-level variables.
	Snapshot map[string]any
	// View backs the lookup(key) helper; bang-keys and the resolving marker
	// work as they do on the view.
	View      Lookup
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	Scope     Scope
	ScopeName string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) withDefaultScope(scope Scope) RuleContext {
	if ctx.Scope.isZero() && !scope.isZero() {
		ctx.Scope = scope.clone()
	}
	if ctx.ScopeName == "" && ctx.Scope.Name != "" {
		ctx.ScopeName = ctx.Scope.Name
	}
	return ctx
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.Scope.Name != "" {
		return ctx.Scope.Name
	}
	if ctx.ScopeName != "" {
		return ctx.ScopeName
	}
	return "unknown"
}

func (ctx RuleContext) scopeBinding() map[string]any {
	if !ctx.Scope.isZero() {
		binding := map[string]any{
			"name":     ctx.Scope.Name,
			"label":    ctx.Scope.Label,
			"priority": ctx.Scope.Priority,
		}
		if len(ctx.Scope.Metadata) > 0 {
			binding["metadata"] = copyMetadata(ctx.Scope.Metadata)
		}
		return binding
	}
	if ctx.ScopeName == "" {
		return nil
	}
	return map[string]any{"name": ctx.ScopeName}
}

// lookup resolves key against the context view and returns plain data.
func (ctx RuleContext) lookup(key string) (any, error) {
	if ctx.View == nil {
		return nil, missingKey(key, OpGet)
	}
	value, err := ctx.View.Get(key)
	if err != nil {
		return nil, err
	}
	return value.Interface(), nil
}

// leaves maps every leaf key of the view to its stored value.
func (ctx RuleContext) leaves() map[string]any {
	out := map[string]any{}
	if ctx.View == nil {
		return out
	}
	for key := range ctx.View.Keys() {
		if value, err := ctx.View.Get(key); err == nil {
			out[key] = value.Interface()
		}
	}
	return out
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// RuleOption configures Rules.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       EvaluatorLogger
	scope        Scope
}

// WithEvaluator selects the expression engine. The default is expr.
func WithEvaluator(e Evaluator) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.evaluator = e
	}
}

// WithRuleScope sets the scope bound as "scope" in expressions.
func WithRuleScope(scope Scope) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.scope = scope.clone()
	}
}

// Rules evaluates expressions over a view. Every evaluation reads the view's
// current state.
type Rules struct {
	view Lookup
	cfg  ruleConfig
}

// NewRules builds an evaluator over view.
func NewRules(view Lookup, opts ...RuleOption) *Rules {
	cfg := ruleConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Rules{view: view, cfg: cfg}
}

// Evaluate runs expr with the view's snapshot as variables.
func (r *Rules) Evaluate(expr string) (any, error) {
	return r.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr using ctx, filling Snapshot, View and Scope from
// the Rules when ctx leaves them empty.
func (r *Rules) EvaluateWith(ctx RuleContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("nestmap: expression must not be empty")
	}
	evaluator, err := r.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.View == nil {
		ctx.View = r.view
	}
	if ctx.Snapshot == nil && ctx.View != nil {
		ctx.Snapshot = Snapshot(ctx.View)
	}
	ctx = ctx.withDefaultScope(r.cfg.scope).withDefaults()

	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	engine := evaluatorEngineName(evaluator)
	evalErr = wrapEvaluationError(engine, expr, ctx.scopeLabel(), evalErr)
	r.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (r *Rules) resolveEvaluator() (Evaluator, error) {
	if r.cfg.evaluator != nil {
		return r.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if r.cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(r.cfg.programCache))
	}
	if r.cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(r.cfg.functions))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	r.cfg.evaluator = evaluator
	return evaluator, nil
}

func (r *Rules) evaluatorLogger() EvaluatorLogger {
	if r.cfg.logger != nil {
		return r.cfg.logger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if name := jsEngineName(e); name != "" {
			return name
		}
		return "custom"
	}
}

package nestmap

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

var (
	anySliceType  = reflect.TypeOf([]any{})
	celIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	celReserved   = map[string]struct{}{
		"true": {}, "false": {}, "null": {}, "in": {}, "as": {}, "break": {}, "const": {},
		"continue": {}, "else": {}, "for": {}, "function": {}, "if": {}, "import": {},
		"let": {}, "loop": {}, "package": {}, "namespace": {}, "return": {}, "var": {}, "void": {}, "while": {},
	}
)

// celVariable reports whether a snapshot key can be declared as a CEL
// variable. Other keys stay reachable through leaves.
func celVariable(key string) bool {
	if _, ok := celReserved[key]; ok {
		return false
	}
	return celIdentifier.MatchString(key)
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

// celEvaluator runs CEL expressions. Snapshot keys become dyn variables and
// leaves holds the flattened view keyed by bang-key. CEL has no lookup
// helper since functions are bound when the program is built.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression, ctx.Snapshot)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
	}, nil
}

// celCacheKey ties a compiled program to the variable names it was declared
// with; a snapshot with other top-level keys needs its own program.
func celCacheKey(expression string, snapshot map[string]any) string {
	names := make([]string, 0, len(snapshot))
	for key := range snapshot {
		names = append(names, key)
	}
	sort.Strings(names)
	return "cel:" + strings.Join(names, ",") + ":" + expression
}

func (e *celEvaluator) loadOrCompile(expression string, snapshot map[string]any) (*celProgram, error) {
	key := celCacheKey(expression, snapshot)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(snapshot)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{env: env, program: prg}
	if e.cache != nil {
		e.cache.Set(key, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(snapshot map[string]any) (*celgo.Env, error) {
	reserved := map[string]struct{}{"now": {}, "args": {}, "metadata": {}, "leaves": {}, "scope": {}}
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("leaves", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("scope", celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		)))
	}
	for key := range snapshot {
		if _, ok := reserved[key]; ok || !celVariable(key) {
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx RuleContext) map[string]any {
	activation := make(map[string]any, len(ctx.Snapshot)+5)
	for key, value := range ctx.Snapshot {
		activation[key] = value
	}
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["metadata"] = ctx.Metadata
	activation["leaves"] = ctx.leaves()
	scope := ctx.scopeBinding()
	if scope == nil {
		scope = map[string]any{}
	}
	activation["scope"] = scope
	return activation
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, fmt.Errorf("cel compiled rule missing evaluator")
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}

// callBinding implements call(name, [args...]) against the registry.
func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if len(values) != 2 {
			return types.NewErr("nestmap: call requires a function name and an argument list")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("nestmap: call name must be string")
		}
		native, err := values[1].ConvertToNative(anySliceType)
		if err != nil {
			return types.NewErr("nestmap: call arguments must be a list: %v", err)
		}
		result, err := e.registry.Call(name, native.([]any)...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

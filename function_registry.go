package nestmap

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownFunction is returned when a rule calls a name nobody registered.
var ErrUnknownFunction = errors.New("nestmap: unknown function")

// Function is a helper callable from rule expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry is the table of helpers rules may call. Names are
// case-insensitive and stored lowercased.
type FunctionRegistry struct {
	mu    sync.RWMutex
	table map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{table: map[string]Function{}}
}

func functionName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds fn under name. A name may only be registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := functionName(name)
	switch {
	case key == "":
		return errors.New("nestmap: function name is empty")
	case fn == nil:
		return fmt.Errorf("nestmap: function %q has no body", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.table == nil {
		r.table = map[string]Function{}
	}
	if _, taken := r.table[key]; taken {
		return fmt.Errorf("nestmap: function %q is already registered", key)
	}
	r.table[key] = fn
	return nil
}

// Clone copies the table so later registrations stay local to the copy.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	table := maps.Clone(r.table)
	if table == nil {
		table = map[string]Function{}
	}
	return &FunctionRegistry{table: table}
}

// Call runs the helper registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.table[functionName(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownFunction, name)
	}
	return fn(args...)
}

// Names lists the registered (lowercased) names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.table))
}

// WithFunctionRegistry makes the helpers in registry callable from rules.
// The registry is copied.
func WithFunctionRegistry(registry *FunctionRegistry) RuleOption {
	return func(cfg *ruleConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction registers a single helper. A name that is already
// taken keeps its first function.
func WithCustomFunction(name string, fn Function) RuleOption {
	return func(cfg *ruleConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

package nestmap

import "sync"

// ProgramCache stores compiled expression programs keyed by expression
// strings. Implementations must be safe for concurrent use.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache shares compiled programs across evaluations.
func WithProgramCache(cache ProgramCache) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.programCache = cache
	}
}

// MemoryProgramCache is an unbounded in-process ProgramCache.
type MemoryProgramCache struct {
	programs sync.Map
}

// NewMemoryProgramCache returns an empty cache.
func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}

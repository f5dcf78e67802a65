package nestmap

import (
	"github.com/goliatone/go-nestmap/internal/logging"
	"github.com/goliatone/go-nestmap/pkg/activity"
	"github.com/rs/zerolog"
)

// DefaultMaxChaseDepth bounds bang-string chases that never revisit a key.
const DefaultMaxChaseDepth = 256

// Option configures a TreeMap or ResolvingTreeMap.
type Option func(*config)

type config struct {
	title         string
	logger        *zerolog.Logger
	activity      *activity.Emitter
	maxChaseDepth int
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (c config) log() zerolog.Logger {
	if c.logger != nil {
		return *c.logger
	}
	return logging.Component("nestmap")
}

func (c config) chaseDepth() int {
	if c.maxChaseDepth > 0 {
		return c.maxChaseDepth
	}
	return DefaultMaxChaseDepth
}

// WithTitle sets the display title. Without it the type name is used.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = title
	}
}

// WithLogger routes merge warnings and hook failures to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = &logger
	}
}

// WithMaxChaseDepth overrides DefaultMaxChaseDepth for resolving lookups.
func WithMaxChaseDepth(depth int) Option {
	return func(cfg *config) {
		cfg.maxChaseDepth = depth
	}
}

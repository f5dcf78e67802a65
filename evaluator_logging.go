package nestmap

import (
	"time"

	"github.com/rs/zerolog"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// ZerologEvaluatorLogger writes successful evaluations at debug level and
// failures at warn level.
func ZerologEvaluatorLogger(logger zerolog.Logger) EvaluatorLogger {
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		entry := logger.Debug()
		if event.Err != nil {
			entry = logger.Warn().Err(event.Err)
		}
		entry.Str("engine", event.Engine).
			Str("expr", event.Expr).
			Str("scope", event.Scope).
			Dur("duration", event.Duration).
			Msg("Evaluated rule")
	})
}

// WithEvaluatorLogger attaches an evaluator logger. Nil disables logging.
func WithEvaluatorLogger(logger EvaluatorLogger) RuleOption {
	return func(cfg *ruleConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

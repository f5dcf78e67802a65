package nestmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const errPrefix = "nestmap:"

// EvaluationError reports a rule that failed to compile or run, together
// with the engine, the expression text and the label of the scope it ran in.
type EvaluationError struct {
	Engine string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	expr := "<empty>"
	if e.Expr != "" {
		expr = strconv.Quote(e.Expr)
	}
	var b strings.Builder
	b.WriteString(errPrefix)
	b.WriteString(" " + e.Engine + " evaluator")
	b.WriteString(" expr=" + expr)
	b.WriteString(" scope=" + e.Scope)
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError tags engine setup failures with the engine name unless
// they already carry package context.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), errPrefix) {
		return err
	}
	return fmt.Errorf("%s %s evaluator: %w", errPrefix, engine, err)
}

// wrapEvaluationError attaches rule context to err. An EvaluationError
// already in the chain is reused and only its blank fields are filled.
func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Scope: scope, Err: err}
	}
	fill := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	fill(&evalErr.Engine, engine)
	fill(&evalErr.Expr, expr)
	fill(&evalErr.Scope, scope)
	return evalErr
}

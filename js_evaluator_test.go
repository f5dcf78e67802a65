//go:build js_eval

package nestmap

import (
	"errors"
	"testing"
	"time"

	"github.com/dop251/goja"
)

func TestJSEvaluatorInterruptsLongRules(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	_, err := evaluator.Evaluate(RuleContext{}, "(function(){ while (true) {} })()")
	var interrupted *goja.InterruptedError
	if !errors.As(err, &interrupted) {
		t.Fatalf("expected an interrupt, got %v", err)
	}
}

func TestJSEvaluatorSeesTreeHelpers(t *testing.T) {
	view := mustResolving(t, map[string]any{
		"OBS": map[string]any{"temperature": 7, "unit": "!SIM.unit"},
		"SIM": map[string]any{"unit": "C"},
	})
	rules := NewRules(view, WithEvaluator(NewJSEvaluator()))
	got, err := rules.Evaluate(`lookup("!OBS.unit") === "C" && OBS.temperature === 7`)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
}

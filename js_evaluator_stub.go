//go:build !js_eval

package nestmap

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = newJSEvaluatorConfig(opts)
	return nil
}

func jsEngineName(Evaluator) string {
	return ""
}

package sandcontrol

// EvaluateCompletion reports whether the completion type indicates sand control.
// Only open-hole completions do.
func EvaluateCompletion(t CompletionType) bool {
	return t == CompletionOpenHole
}

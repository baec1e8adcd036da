package sandcontrol

// EvaluateEconomic reports whether installation is economically feasible.
// The result is also the veto gate in Aggregate.
func EvaluateEconomic(f Feasibility) bool {
	switch f {
	case FeasibilityPositive, FeasibilityCanBeSorted:
		return true
	default:
		return false
	}
}

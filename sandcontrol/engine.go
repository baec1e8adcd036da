package sandcontrol

// Evaluator computes the per-factor verdicts for an input
type Evaluator interface {
	Verdicts(in Input, p Policy) Verdicts
}

// Native evaluates the factors with the built-in thresholds.
// The zero value is ready to use and holds no state.
type Native struct{}

// Verdicts runs the five factor evaluators
func (Native) Verdicts(in Input, p Policy) Verdicts {
	return Verdicts{
		Reservoir:     EvaluateReservoir(in.Reservoir),
		Production:    EvaluateProduction(in.Production),
		Completion:    EvaluateCompletion(in.Completion),
		Economic:      EvaluateEconomic(in.Economic),
		Environmental: EvaluateEnvironmental(in, p),
	}
}

// Assess evaluates the input with the built-in thresholds and aggregates
func Assess(in Input, p Policy) Recommendation {
	return AssessWith(Native{}, in, p)
}

// AssessWith evaluates the input with ev and aggregates.
// A nil evaluator falls back to Native.
func AssessWith(ev Evaluator, in Input, p Policy) Recommendation {
	if ev == nil {
		ev = Native{}
	}
	if p.Variant == "" {
		p.Variant = VariantA
	}
	return Aggregate(ev.Verdicts(in, p), p.Variant)
}

package sandcontrol

// Vetoes returns the factors whose failure blocks installation outright.
// VariantA vetoes on economics; VariantB on economics or environment.
// An unrecognized variant vetoes like VariantA.
func Vetoes(v Verdicts, variant Variant) []Factor {
	var vetoes []Factor
	if !v.Economic {
		vetoes = append(vetoes, FactorEconomic)
	}
	if variant == VariantB && !v.Environmental {
		vetoes = append(vetoes, FactorEnvironmental)
	}
	return vetoes
}

// Mode returns the most frequent value among votes. ok is false when votes
// is empty or when two or more values share the highest count.
func Mode[T comparable](votes []T) (mode T, ok bool) {
	counts := make(map[T]int, len(votes))
	best := 0
	for _, vote := range votes {
		counts[vote]++
		if counts[vote] > best {
			best = counts[vote]
		}
	}

	leaders := 0
	for value, n := range counts {
		if n == best {
			mode = value
			leaders++
		}
	}
	if leaders != 1 {
		var zero T
		return zero, false
	}
	return mode, true
}

// Majority maps the mode of the votes to an outcome
func Majority(votes []bool) Outcome {
	mode, ok := Mode(votes)
	switch {
	case !ok:
		return OutcomeIndeterminate
	case mode:
		return OutcomeInstall
	default:
		return OutcomeDoNotInstall
	}
}

// Aggregate reduces the five verdicts to a recommendation. The veto check
// runs first and short-circuits the majority vote, in which the vetoing
// factors are counted again.
func Aggregate(v Verdicts, variant Variant) Recommendation {
	rec := Recommendation{
		Verdicts: v,
		Variant:  variant,
	}

	if vetoes := Vetoes(v, variant); len(vetoes) > 0 {
		rec.Outcome = OutcomeDoNotInstall
		rec.Vetoed = true
		rec.VetoedBy = vetoes
		return rec
	}

	rec.Outcome = Majority(v.Votes())
	return rec
}

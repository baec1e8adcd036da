package sandcontrol

import (
	"fmt"
	"strings"
)

// Variant selects one of the two observed decision procedures
type Variant string

const (
	// VariantA reads the environmental impact and vetoes on economics only
	VariantA Variant = "A"
	// VariantB feeds the economic feasibility into the environmental factor
	// and vetoes when either economics or environment is not indicated
	VariantB Variant = "B"
)

// ParseVariant accepts "a"/"b" in any case. Empty defaults to VariantA.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "A":
		return VariantA, nil
	case "B":
		return VariantB, nil
	default:
		return "", fmt.Errorf("unknown variant %q (must be A or B)", s)
	}
}

// Policy configures how one assessment is carried out
type Policy struct {
	Variant Variant `json:"variant" yaml:"variant"`

	// EnvironmentalFromImpact makes VariantB read the impact observation
	// instead of the economic feasibility. VariantA always reads the impact.
	EnvironmentalFromImpact bool `json:"environmentalFromImpact" yaml:"environmental_from_impact"`
}

// DefaultPolicy is VariantA
func DefaultPolicy() Policy {
	return Policy{Variant: VariantA}
}

// EnvironmentalSource names the input field the environmental factor reads
type EnvironmentalSource string

const (
	SourceImpact      EnvironmentalSource = "impact"
	SourceFeasibility EnvironmentalSource = "feasibility"
)

// EnvironmentalSource returns which observation the policy feeds into the
// environmental factor
func (p Policy) EnvironmentalSource() EnvironmentalSource {
	if p.Variant == VariantB && !p.EnvironmentalFromImpact {
		return SourceFeasibility
	}
	return SourceImpact
}

// EvaluateImpact reports whether the environmental impact is acceptable
func EvaluateImpact(i Impact) bool {
	return i == ImpactMinimal
}

// EvaluateEnvironmental evaluates the environmental factor under the policy.
// Under VariantB without EnvironmentalFromImpact the economic feasibility is
// read in place of the impact, and only FeasibilityPositive passes.
func EvaluateEnvironmental(in Input, p Policy) bool {
	if p.EnvironmentalSource() == SourceFeasibility {
		return in.Economic == FeasibilityPositive
	}
	return EvaluateImpact(in.Environmental)
}

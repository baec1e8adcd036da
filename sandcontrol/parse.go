package sandcontrol

import (
	"fmt"
	"strings"
)

// Labels are matched case-insensitively with spaces and hyphens treated as
// underscores, so the form labels "Open hole or Barefoot" and "Can be sorted"
// parse the same as "open_hole_or_barefoot" and "can_be_sorted".
var (
	consolidationLabels = map[string]Consolidation{
		"consolidated":        Consolidated,
		"poorly_consolidated": PoorlyConsolidated,
		"unconsolidated":      PoorlyConsolidated,
	}
	permeabilityBandLabels = map[string]PermeabilityBand{
		"500_to_800": Permeability500To800,
		"500_800":    Permeability500To800,
		"other":      PermeabilityOther,
	}
	grainSizeLabels = map[string]GrainSize{
		"large": GrainLarge,
		"small": GrainSmall,
		"none":  GrainNone,
	}
	viscosityLevelLabels = map[string]ViscosityLevel{
		"high": ViscosityHigh,
		"low":  ViscosityLow,
		"none": ViscosityNone,
	}
	rateLabels = map[string]RateCondition{
		"above_critical_rate": RateAboveCritical,
		"above_critical":      RateAboveCritical,
		"above":               RateAboveCritical,
		"below_critical_rate": RateBelowCritical,
		"below_critical":      RateBelowCritical,
		"below":               RateBelowCritical,
		"none":                RateNone,
	}
	waterCutLabels = map[string]WaterCutLevel{
		"high": WaterCutHigh,
		"low":  WaterCutLow,
	}
	completionLabels = map[string]CompletionType{
		"open_hole":             CompletionOpenHole,
		"open_hole_or_barefoot": CompletionOpenHole,
		"openhole":              CompletionOpenHole,
		"openhole_or_barefoot":  CompletionOpenHole,
		"barefoot":              CompletionOpenHole,
		"cased":                 CompletionCased,
		"cased_or_liner":        CompletionCased,
		"liner":                 CompletionCased,
	}
	feasibilityLabels = map[string]Feasibility{
		"positive":      FeasibilityPositive,
		"negative":      FeasibilityNegative,
		"can_be_sorted": FeasibilityCanBeSorted,
	}
	impactLabels = map[string]Impact{
		"minimal":  ImpactMinimal,
		"positive": ImpactMinimal,
		"maximal":  ImpactMaximal,
		"negative": ImpactMaximal,
	}
)

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

func parseLabel[T ~string](kind, s string, labels map[string]T) (T, error) {
	if v, ok := labels[normalizeLabel(s)]; ok {
		return v, nil
	}
	return T(s), fmt.Errorf("unknown %s %q", kind, s)
}

func isKnown[T comparable](v T, labels map[string]T) bool {
	for _, known := range labels {
		if known == v {
			return true
		}
	}
	return false
}

// ParseConsolidation parses a consolidation label.
// On error the raw value is returned; it evaluates as not indicated.
func ParseConsolidation(s string) (Consolidation, error) {
	return parseLabel("consolidation", s, consolidationLabels)
}

// ParsePermeabilityBand parses a permeability band label such as "500 to 800"
func ParsePermeabilityBand(s string) (PermeabilityBand, error) {
	return parseLabel("permeability band", s, permeabilityBandLabels)
}

func ParseGrainSize(s string) (GrainSize, error) {
	return parseLabel("grain size", s, grainSizeLabels)
}

func ParseViscosityLevel(s string) (ViscosityLevel, error) {
	return parseLabel("fluid viscosity", s, viscosityLevelLabels)
}

// ParseRateCondition parses labels such as "Above critical rate"
func ParseRateCondition(s string) (RateCondition, error) {
	return parseLabel("production rate", s, rateLabels)
}

func ParseWaterCutLevel(s string) (WaterCutLevel, error) {
	return parseLabel("water cut band", s, waterCutLabels)
}

// ParseCompletionType accepts both "Open hole or Barefoot" and
// "Openhole or Barefoot" spellings
func ParseCompletionType(s string) (CompletionType, error) {
	return parseLabel("completion type", s, completionLabels)
}

func ParseFeasibility(s string) (Feasibility, error) {
	return parseLabel("economic feasibility", s, feasibilityLabels)
}

// ParseImpact parses an impact label. "positive" reads as minimal impact and
// "negative" as maximal.
func ParseImpact(s string) (Impact, error) {
	return parseLabel("environmental impact", s, impactLabels)
}

func (c Consolidation) Valid() bool { return isKnown(c, consolidationLabels) }
func (b PermeabilityBand) Valid() bool { return isKnown(b, permeabilityBandLabels) }
func (g GrainSize) Valid() bool { return isKnown(g, grainSizeLabels) }
func (v ViscosityLevel) Valid() bool { return isKnown(v, viscosityLevelLabels) }
func (r RateCondition) Valid() bool { return isKnown(r, rateLabels) }
func (w WaterCutLevel) Valid() bool { return isKnown(w, waterCutLabels) }
func (c CompletionType) Valid() bool { return isKnown(c, completionLabels) }
func (f Feasibility) Valid() bool { return isKnown(f, feasibilityLabels) }
func (i Impact) Valid() bool { return isKnown(i, impactLabels) }

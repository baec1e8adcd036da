package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/scid/sandcontrol"
)

func pct(v float64) *sandcontrol.WaterCutPercent {
	w := sandcontrol.WaterCutPercent(v)
	return &w
}

// parityInputs covers every sub-check boundary of the native evaluators
func parityInputs() []sandcontrol.Input {
	reservoirs := []sandcontrol.ReservoirObservation{
		nil,
		sandcontrol.ReservoirMeasurements{},
		sandcontrol.ReservoirMeasurements{CompressiveStrength: 1000},
		sandcontrol.ReservoirMeasurements{CompressiveStrength: 1000.5},
		sandcontrol.ReservoirMeasurements{Permeability: 500},
		sandcontrol.ReservoirMeasurements{Permeability: 8000},
		sandcontrol.ReservoirMeasurements{Permeability: 8000.01},
		sandcontrol.ReservoirMeasurements{Porosity: 30},
		sandcontrol.ReservoirMeasurements{Porosity: 31},
		&sandcontrol.ReservoirMeasurements{FluidViscosity: 1000},
		(*sandcontrol.ReservoirMeasurements)(nil),
		sandcontrol.ReservoirDescriptors{Consolidation: sandcontrol.Consolidated, PermeabilityBand: sandcontrol.PermeabilityOther, GrainSize: sandcontrol.GrainSmall, FluidViscosity: sandcontrol.ViscosityLow},
		sandcontrol.ReservoirDescriptors{Consolidation: sandcontrol.PoorlyConsolidated},
		sandcontrol.ReservoirDescriptors{PermeabilityBand: sandcontrol.Permeability500To800},
		&sandcontrol.ReservoirDescriptors{GrainSize: sandcontrol.GrainLarge},
		sandcontrol.ReservoirDescriptors{FluidViscosity: sandcontrol.ViscosityHigh},
		sandcontrol.ReservoirDescriptors{GrainSize: "huge"},
	}
	productions := []sandcontrol.ProductionObservation{
		{},
		{Rate: sandcontrol.RateAboveCritical},
		{Rate: sandcontrol.RateBelowCritical, WaterCut: sandcontrol.WaterCutPercent(40)},
		{Rate: sandcontrol.RateBelowCritical, WaterCut: sandcontrol.WaterCutPercent(40.5)},
		{Rate: sandcontrol.RateNone, WaterCut: pct(90)},
		{WaterCut: sandcontrol.WaterCutBand{Level: sandcontrol.WaterCutHigh}},
		{WaterCut: &sandcontrol.WaterCutBand{Level: sandcontrol.WaterCutLow}},
	}
	completions := []sandcontrol.CompletionType{sandcontrol.CompletionOpenHole, sandcontrol.CompletionCased, "Openhole or Barefoot"}
	feasibilities := []sandcontrol.Feasibility{sandcontrol.FeasibilityPositive, sandcontrol.FeasibilityNegative, sandcontrol.FeasibilityCanBeSorted, "unknown"}
	impacts := []sandcontrol.Impact{sandcontrol.ImpactMinimal, sandcontrol.ImpactMaximal, ""}

	var inputs []sandcontrol.Input
	for i, r := range reservoirs {
		for j, p := range productions {
			inputs = append(inputs, sandcontrol.Input{
				Reservoir:     r,
				Production:    p,
				Completion:    completions[(i+j)%len(completions)],
				Economic:      feasibilities[(i+j)%len(feasibilities)],
				Environmental: impacts[(i*j)%len(impacts)],
			})
		}
	}
	return inputs
}

func TestDefaultRulesMatchNativeEvaluators(t *testing.T) {
	engine, err := NewDefaultEngine()
	require.NoError(t, err)

	policies := []sandcontrol.Policy{
		{Variant: sandcontrol.VariantA},
		{Variant: sandcontrol.VariantB},
		{Variant: sandcontrol.VariantB, EnvironmentalFromImpact: true},
	}

	for _, p := range policies {
		for i, in := range parityInputs() {
			want := sandcontrol.Native{}.Verdicts(in, p)
			got := engine.Verdicts(in, p)
			assert.Equal(t, want, got, "input %d, policy %+v", i, p)

			assert.Equal(t, sandcontrol.Assess(in, p), sandcontrol.AssessWith(engine, in, p), "input %d", i)
		}
	}
}

func TestDefaultRulesAreValid(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, ValidateRules(rules))
	for _, r := range rules {
		assert.True(t, r.Active, r.ID)
	}
}

func TestDefaultRulesFreshCopies(t *testing.T) {
	a := DefaultRules()
	a[0].Expression = "false"
	b := DefaultRules()
	assert.NotEqual(t, "false", b[0].Expression)
}

func TestExplain(t *testing.T) {
	engine, err := NewDefaultEngine()
	require.NoError(t, err)

	results, err := engine.Explain(sandcontrol.Input{
		Reservoir:  sandcontrol.ReservoirMeasurements{Porosity: 35},
		Completion: sandcontrol.CompletionOpenHole,
	}, sandcontrol.DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, results, len(DefaultRules()))

	matched := map[string]bool{}
	for _, r := range results {
		assert.NoError(t, r.Error, r.RuleID)
		matched[r.RuleID] = r.Matched
	}
	assert.True(t, matched["reservoir-porosity"])
	assert.True(t, matched["completion-open-hole"])
	assert.False(t, matched["reservoir-strength"])
	assert.False(t, matched["economic-feasible"])
}

const customRules = `
rules:
  - id: reservoir-strength
    name: Weaker rock threshold
    factor: reservoir
    expression: reservoir.form == "numeric" && reservoir.compressive_strength > 500.0
  - id: production-rate
    factor: Production
    expression: production.rate == "above_critical"
  - id: completion-open-hole
    factor: completion
    expression: completion.type == "open_hole"
  - id: economic-feasible
    factor: economic
    expression: economic.feasibility == "positive"
  - id: environmental-impact
    factor: environmental
    expression: environmental.impact == "minimal"
  - id: environmental-disabled
    factor: environmental
    expression: "true"
    active: false
`

func TestParseRuleFile(t *testing.T) {
	rules, err := ParseRuleFile([]byte(customRules))
	require.NoError(t, err)
	require.Len(t, rules, 6)

	assert.Equal(t, sandcontrol.FactorProduction, rules[1].Factor)
	assert.True(t, rules[0].Active)
	assert.False(t, rules[5].Active)

	engine, err := NewEngineFromRules(rules)
	require.NoError(t, err)

	in := sandcontrol.Input{
		Reservoir: sandcontrol.ReservoirMeasurements{CompressiveStrength: 600},
		Economic:  sandcontrol.FeasibilityCanBeSorted,
	}
	v := engine.Verdicts(in, sandcontrol.DefaultPolicy())
	assert.True(t, v.Reservoir, "custom threshold applies")
	assert.False(t, v.Economic, "custom rule drops can_be_sorted")
	assert.False(t, v.Environmental, "inactive rule is ignored")
}

func TestParseRuleFileErrors(t *testing.T) {
	_, err := ParseRuleFile([]byte("rules: [oops"))
	assert.ErrorContains(t, err, "failed to parse rule file")

	_, err = ParseRuleFile([]byte("rules: []"))
	assert.ErrorContains(t, err, "cannot be empty")

	_, err = ParseRuleFile([]byte(`
rules:
  - id: only-economic
    factor: economic
    expression: "true"
`))
	assert.ErrorContains(t, err, "has no active rule")
}

func TestLoadRuleFileRoundTrip(t *testing.T) {
	data, err := MarshalRuleFile(DefaultRules())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadRuleFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(DefaultRules()))
	for i, r := range DefaultRules() {
		assert.Equal(t, r.ID, loaded[i].ID)
		assert.Equal(t, r.Expression, loaded[i].Expression)
		assert.Equal(t, r.Factor, loaded[i].Factor)
	}

	_, err = LoadRuleFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read rule file")
}

func TestNewEngineFromRulesCompileError(t *testing.T) {
	rules := DefaultRules()
	rules[0].Expression = "reservoir.porosity >"

	_, err := NewEngineFromRules(rules)
	assert.ErrorContains(t, err, "reservoir-strength")
}

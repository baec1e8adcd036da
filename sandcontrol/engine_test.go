package sandcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func favorableInput() Input {
	return Input{
		Reservoir: ReservoirMeasurements{CompressiveStrength: 1500, Permeability: 100, Porosity: 10, FluidViscosity: 50},
		Production: ProductionObservation{
			Rate:     RateAboveCritical,
			WaterCut: WaterCutPercent(20),
		},
		Completion:    CompletionOpenHole,
		Economic:      FeasibilityPositive,
		Environmental: ImpactMinimal,
	}
}

func TestNativeVerdicts(t *testing.T) {
	v := Native{}.Verdicts(favorableInput(), DefaultPolicy())
	assert.Equal(t, Verdicts{true, true, true, true, true}, v)

	assert.Equal(t, Verdicts{}, Native{}.Verdicts(Input{}, DefaultPolicy()))
}

func TestAssess(t *testing.T) {
	rec := Assess(favorableInput(), DefaultPolicy())
	assert.Equal(t, OutcomeInstall, rec.Outcome)
	assert.Equal(t, "Install Sand Control Facilities!", rec.Advice())
}

func TestAssessNegativeEconomicsAlwaysDeclines(t *testing.T) {
	in := favorableInput()
	in.Economic = FeasibilityNegative

	for _, p := range []Policy{{Variant: VariantA}, {Variant: VariantB}, {Variant: VariantB, EnvironmentalFromImpact: true}} {
		rec := Assess(in, p)
		assert.Equal(t, OutcomeDoNotInstall, rec.Outcome)
		assert.True(t, rec.Vetoed)
	}
}

func TestAssessVariantBReadsFeasibility(t *testing.T) {
	in := favorableInput()
	in.Economic = FeasibilityCanBeSorted

	// Sortable economics pass the economic factor but fail the environmental
	// factor under VariantB, which then vetoes.
	rec := Assess(in, Policy{Variant: VariantB})
	assert.False(t, rec.Verdicts.Environmental)
	assert.Equal(t, OutcomeDoNotInstall, rec.Outcome)
	assert.Equal(t, []Factor{FactorEnvironmental}, rec.VetoedBy)

	rec = Assess(in, Policy{Variant: VariantB, EnvironmentalFromImpact: true})
	assert.True(t, rec.Verdicts.Environmental)
	assert.Equal(t, OutcomeInstall, rec.Outcome)
}

func TestAssessIsIdempotent(t *testing.T) {
	in := favorableInput()
	in.Completion = CompletionCased
	p := Policy{Variant: VariantB}

	first := Assess(in, p)
	second := Assess(in, p)
	assert.Equal(t, first, second)
}

type stubEvaluator struct {
	verdicts Verdicts
	policy   Policy
}

func (s *stubEvaluator) Verdicts(_ Input, p Policy) Verdicts {
	s.policy = p
	return s.verdicts
}

func TestAssessWith(t *testing.T) {
	stub := &stubEvaluator{verdicts: Verdicts{Reservoir: true, Production: true, Economic: true}}

	rec := AssessWith(stub, Input{}, Policy{})
	assert.Equal(t, OutcomeInstall, rec.Outcome)
	assert.Equal(t, VariantA, stub.policy.Variant, "empty variant defaults to A")

	rec = AssessWith(nil, favorableInput(), DefaultPolicy())
	assert.Equal(t, OutcomeInstall, rec.Outcome)
}

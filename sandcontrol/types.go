package sandcontrol

// Consolidation describes how well the formation grains are cemented
type Consolidation string

const (
	Consolidated       Consolidation = "consolidated"
	PoorlyConsolidated Consolidation = "poorly_consolidated"
)

// PermeabilityBand is the categorical permeability reading
type PermeabilityBand string

const (
	Permeability500To800 PermeabilityBand = "500_to_800"
	PermeabilityOther    PermeabilityBand = "other"
)

// GrainSize is the categorical formation grain size
type GrainSize string

const (
	GrainLarge GrainSize = "large"
	GrainSmall GrainSize = "small"
	GrainNone  GrainSize = "none"
)

// ViscosityLevel is the categorical fluid viscosity reading
type ViscosityLevel string

const (
	ViscosityHigh ViscosityLevel = "high"
	ViscosityLow  ViscosityLevel = "low"
	ViscosityNone ViscosityLevel = "none"
)

// RateCondition is the production rate relative to the critical rate
type RateCondition string

const (
	RateAboveCritical RateCondition = "above_critical"
	RateBelowCritical RateCondition = "below_critical"
	RateNone          RateCondition = "none"
)

// WaterCutLevel is the qualitative water cut band
type WaterCutLevel string

const (
	WaterCutHigh WaterCutLevel = "high"
	WaterCutLow  WaterCutLevel = "low"
)

// CompletionType is the well completion across the producing interval
type CompletionType string

const (
	CompletionOpenHole CompletionType = "open_hole"
	CompletionCased    CompletionType = "cased"
)

// Feasibility is the economic feasibility of installing sand control
type Feasibility string

const (
	FeasibilityPositive    Feasibility = "positive"
	FeasibilityNegative    Feasibility = "negative"
	FeasibilityCanBeSorted Feasibility = "can_be_sorted"
)

// Impact is the environmental impact of the installation
type Impact string

const (
	ImpactMinimal Impact = "minimal"
	ImpactMaximal Impact = "maximal"
)

// ReservoirObservation is either ReservoirMeasurements or ReservoirDescriptors.
// A nil observation is never indicated.
type ReservoirObservation interface {
	reservoirIndicated() bool
}

// ReservoirMeasurements is the numeric form of a reservoir observation
type ReservoirMeasurements struct {
	CompressiveStrength float64 // psi
	Permeability        float64 // mD
	Porosity            float64 // percent
	FluidViscosity      float64 // cP
}

// ReservoirDescriptors is the categorical form of a reservoir observation
type ReservoirDescriptors struct {
	Consolidation    Consolidation
	PermeabilityBand PermeabilityBand
	GrainSize        GrainSize
	FluidViscosity   ViscosityLevel
}

// WaterCut is either WaterCutPercent or WaterCutBand
type WaterCut interface {
	waterCutIndicated() bool
}

// WaterCutPercent is the water share of produced fluid, in percent
type WaterCutPercent float64

// WaterCutBand is the qualitative water cut
type WaterCutBand struct {
	Level WaterCutLevel
}

// ProductionObservation groups the production behavior inputs
type ProductionObservation struct {
	Rate     RateCondition
	WaterCut WaterCut
}

// Input is everything the engine needs for one assessment
type Input struct {
	Reservoir     ReservoirObservation
	Production    ProductionObservation
	Completion    CompletionType
	Economic      Feasibility
	Environmental Impact
}

// Factor names one of the five decision factors
type Factor string

const (
	FactorReservoir     Factor = "reservoir"
	FactorProduction    Factor = "production"
	FactorCompletion    Factor = "completion"
	FactorEconomic      Factor = "economic"
	FactorEnvironmental Factor = "environmental"
)

// Factors lists every factor in vote order
var Factors = []Factor{
	FactorReservoir,
	FactorProduction,
	FactorCompletion,
	FactorEconomic,
	FactorEnvironmental,
}

// Valid reports whether f is one of the five factors
func (f Factor) Valid() bool {
	switch f {
	case FactorReservoir, FactorProduction, FactorCompletion, FactorEconomic, FactorEnvironmental:
		return true
	}
	return false
}

// Verdicts holds one "installation indicated" flag per factor
type Verdicts struct {
	Reservoir     bool `json:"reservoir" yaml:"reservoir"`
	Production    bool `json:"production" yaml:"production"`
	Completion    bool `json:"completion" yaml:"completion"`
	Economic      bool `json:"economic" yaml:"economic"`
	Environmental bool `json:"environmental" yaml:"environmental"`
}

// Votes returns the verdicts in Factors order
func (v Verdicts) Votes() []bool {
	return []bool{v.Reservoir, v.Production, v.Completion, v.Economic, v.Environmental}
}

// Get returns the verdict for a single factor. Unknown factors are false.
func (v Verdicts) Get(f Factor) bool {
	switch f {
	case FactorReservoir:
		return v.Reservoir
	case FactorProduction:
		return v.Production
	case FactorCompletion:
		return v.Completion
	case FactorEconomic:
		return v.Economic
	case FactorEnvironmental:
		return v.Environmental
	}
	return false
}

// Set assigns the verdict for a single factor. Unknown factors are ignored.
func (v *Verdicts) Set(f Factor, indicated bool) {
	switch f {
	case FactorReservoir:
		v.Reservoir = indicated
	case FactorProduction:
		v.Production = indicated
	case FactorCompletion:
		v.Completion = indicated
	case FactorEconomic:
		v.Economic = indicated
	case FactorEnvironmental:
		v.Environmental = indicated
	}
}

// Outcome is the final advisory
type Outcome string

const (
	OutcomeInstall       Outcome = "install"
	OutcomeDoNotInstall  Outcome = "do_not_install"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// Recommendation is the aggregated result of one assessment
type Recommendation struct {
	Outcome  Outcome  `json:"outcome" yaml:"outcome"`
	Verdicts Verdicts `json:"verdicts" yaml:"verdicts"`
	Variant  Variant  `json:"variant" yaml:"variant"`
	Vetoed   bool     `json:"vetoed" yaml:"vetoed"`
	VetoedBy []Factor `json:"vetoedBy,omitempty" yaml:"vetoed_by,omitempty"`
}

// Advice renders the outcome as the advisory shown to operators
func (r Recommendation) Advice() string {
	switch r.Outcome {
	case OutcomeInstall:
		return "Install Sand Control Facilities!"
	case OutcomeDoNotInstall:
		return "Do not Install Sand Control Facilities!"
	default:
		return "Check information entered!"
	}
}

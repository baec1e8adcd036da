package rules

import (
	"math"

	"github.com/liamcoop/scid/sandcontrol"
)

// Observation forms exposed to rules as reservoir.form and production.water_cut_form
const (
	FormNumeric     = "numeric"
	FormCategorical = "categorical"
	FormPercent     = "percent"
	FormBand        = "band"
)

// Facts flattens an input into the CEL activation. Every key is always
// present so rules never fail on a missing field; unused fields hold zero
// values and an empty form. NaN measurements read as zero, which CEL can
// order and which no threshold rule accepts.
func Facts(in sandcontrol.Input, p sandcontrol.Policy) map[string]any {
	return map[string]any{
		string(sandcontrol.FactorReservoir):  reservoirFacts(in.Reservoir),
		string(sandcontrol.FactorProduction): productionFacts(in.Production),
		string(sandcontrol.FactorCompletion): map[string]any{
			"type": string(in.Completion),
		},
		string(sandcontrol.FactorEconomic): map[string]any{
			"feasibility": string(in.Economic),
		},
		string(sandcontrol.FactorEnvironmental): map[string]any{
			"source":      string(p.EnvironmentalSource()),
			"impact":      string(in.Environmental),
			"feasibility": string(in.Economic),
		},
	}
}

func reservoirFacts(obs sandcontrol.ReservoirObservation) map[string]any {
	facts := map[string]any{
		"form":                 "",
		"compressive_strength": 0.0,
		"permeability":         0.0,
		"porosity":             0.0,
		"fluid_viscosity":      0.0,
		"consolidation":        "",
		"permeability_band":    "",
		"grain_size":           "",
		"viscosity_level":      "",
	}

	switch o := obs.(type) {
	case sandcontrol.ReservoirMeasurements:
		setMeasurements(facts, o)
	case *sandcontrol.ReservoirMeasurements:
		if o != nil {
			setMeasurements(facts, *o)
		}
	case sandcontrol.ReservoirDescriptors:
		setDescriptors(facts, o)
	case *sandcontrol.ReservoirDescriptors:
		if o != nil {
			setDescriptors(facts, *o)
		}
	}
	return facts
}

func setMeasurements(facts map[string]any, m sandcontrol.ReservoirMeasurements) {
	facts["form"] = FormNumeric
	facts["compressive_strength"] = ordered(m.CompressiveStrength)
	facts["permeability"] = ordered(m.Permeability)
	facts["porosity"] = ordered(m.Porosity)
	facts["fluid_viscosity"] = ordered(m.FluidViscosity)
}

func setDescriptors(facts map[string]any, d sandcontrol.ReservoirDescriptors) {
	facts["form"] = FormCategorical
	facts["consolidation"] = string(d.Consolidation)
	facts["permeability_band"] = string(d.PermeabilityBand)
	facts["grain_size"] = string(d.GrainSize)
	facts["viscosity_level"] = string(d.FluidViscosity)
}

func productionFacts(obs sandcontrol.ProductionObservation) map[string]any {
	facts := map[string]any{
		"rate":              string(obs.Rate),
		"water_cut_form":    "",
		"water_cut_percent": 0.0,
		"water_cut_band":    "",
	}

	switch w := obs.WaterCut.(type) {
	case sandcontrol.WaterCutPercent:
		facts["water_cut_form"] = FormPercent
		facts["water_cut_percent"] = ordered(float64(w))
	case *sandcontrol.WaterCutPercent:
		if w != nil {
			facts["water_cut_form"] = FormPercent
			facts["water_cut_percent"] = ordered(float64(*w))
		}
	case sandcontrol.WaterCutBand:
		facts["water_cut_form"] = FormBand
		facts["water_cut_band"] = string(w.Level)
	case *sandcontrol.WaterCutBand:
		if w != nil {
			facts["water_cut_form"] = FormBand
			facts["water_cut_band"] = string(w.Level)
		}
	}
	return facts
}

func ordered(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

package sandcontrol

// Reservoir thresholds. Any single one tripping indicates sand control.
const (
	MinCompressiveStrength = 1000.0 // psi, exclusive
	MinPermeability        = 500.0  // mD, inclusive
	MaxPermeability        = 8000.0 // mD, inclusive
	MinPorosity            = 30.0   // percent, exclusive
	MinFluidViscosity      = 1000.0 // cP, inclusive
)

// EvaluateReservoir reports whether the reservoir observation indicates sand control
func EvaluateReservoir(obs ReservoirObservation) bool {
	switch o := obs.(type) {
	case nil:
		return false
	case *ReservoirMeasurements:
		if o == nil {
			return false
		}
	case *ReservoirDescriptors:
		if o == nil {
			return false
		}
	}
	return obs.reservoirIndicated()
}

func (m ReservoirMeasurements) reservoirIndicated() bool {
	return m.CompressiveStrength > MinCompressiveStrength ||
		(m.Permeability >= MinPermeability && m.Permeability <= MaxPermeability) ||
		m.Porosity > MinPorosity ||
		m.FluidViscosity >= MinFluidViscosity
}

func (d ReservoirDescriptors) reservoirIndicated() bool {
	return d.Consolidation == PoorlyConsolidated ||
		d.PermeabilityBand == Permeability500To800 ||
		d.GrainSize == GrainLarge ||
		d.FluidViscosity == ViscosityHigh
}

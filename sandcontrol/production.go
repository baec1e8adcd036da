package sandcontrol

// MaxWaterCut is the water cut percentage above which production indicates sand control
const MaxWaterCut = 40.0

// EvaluateProduction reports whether production behavior indicates sand control
func EvaluateProduction(obs ProductionObservation) bool {
	return obs.Rate == RateAboveCritical || evaluateWaterCut(obs.WaterCut)
}

func evaluateWaterCut(wc WaterCut) bool {
	switch w := wc.(type) {
	case nil:
		return false
	case *WaterCutPercent:
		if w == nil {
			return false
		}
	case *WaterCutBand:
		if w == nil {
			return false
		}
	}
	return wc.waterCutIndicated()
}

func (p WaterCutPercent) waterCutIndicated() bool {
	return float64(p) > MaxWaterCut
}

func (b WaterCutBand) waterCutIndicated() bool {
	return b.Level == WaterCutHigh
}

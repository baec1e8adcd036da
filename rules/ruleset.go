package rules

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/liamcoop/scid/sandcontrol"
)

// celDouble formats v as a CEL double literal
func celDouble(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func celString(s string) string {
	return strconv.Quote(s)
}

// DefaultRules returns the built-in rule set. It matches the native
// evaluators in package sandcontrol for every input.
func DefaultRules() []*Rule {
	numeric := fmt.Sprintf("reservoir.form == %s", celString(FormNumeric))
	categorical := fmt.Sprintf("reservoir.form == %s", celString(FormCategorical))

	rules := []*Rule{
		{
			ID:         "reservoir-strength",
			Name:       "Compressive strength above threshold",
			Factor:     sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.compressive_strength > %s", numeric, celDouble(sandcontrol.MinCompressiveStrength)),
		},
		{
			ID:     "reservoir-permeability",
			Name:   "Permeability within sanding range",
			Factor: sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.permeability >= %s && reservoir.permeability <= %s",
				numeric, celDouble(sandcontrol.MinPermeability), celDouble(sandcontrol.MaxPermeability)),
		},
		{
			ID:         "reservoir-porosity",
			Name:       "Porosity above threshold",
			Factor:     sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.porosity > %s", numeric, celDouble(sandcontrol.MinPorosity)),
		},
		{
			ID:         "reservoir-viscosity",
			Name:       "Fluid viscosity at or above threshold",
			Factor:     sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.fluid_viscosity >= %s", numeric, celDouble(sandcontrol.MinFluidViscosity)),
		},
		{
			ID:         "reservoir-consolidation",
			Name:       "Poorly consolidated formation",
			Factor:     sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.consolidation == %s", categorical, celString(string(sandcontrol.PoorlyConsolidated))),
		},
		{
			ID:         "reservoir-permeability-band",
			Name:       "Permeability band 500 to 800",
			Factor:     sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.permeability_band == %s", categorical, celString(string(sandcontrol.Permeability500To800))),
		},
		{
			ID:         "reservoir-grain-size",
			Name:       "Large grains",
			Factor:     sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.grain_size == %s", categorical, celString(string(sandcontrol.GrainLarge))),
		},
		{
			ID:         "reservoir-viscosity-level",
			Name:       "High fluid viscosity",
			Factor:     sandcontrol.FactorReservoir,
			Expression: fmt.Sprintf("%s && reservoir.viscosity_level == %s", categorical, celString(string(sandcontrol.ViscosityHigh))),
		},
		{
			ID:         "production-rate",
			Name:       "Producing above critical rate",
			Factor:     sandcontrol.FactorProduction,
			Expression: fmt.Sprintf("production.rate == %s", celString(string(sandcontrol.RateAboveCritical))),
		},
		{
			ID:     "production-water-cut",
			Name:   "Water cut above threshold",
			Factor: sandcontrol.FactorProduction,
			Expression: fmt.Sprintf("production.water_cut_form == %s && production.water_cut_percent > %s",
				celString(FormPercent), celDouble(sandcontrol.MaxWaterCut)),
		},
		{
			ID:     "production-water-cut-band",
			Name:   "High water cut",
			Factor: sandcontrol.FactorProduction,
			Expression: fmt.Sprintf("production.water_cut_form == %s && production.water_cut_band == %s",
				celString(FormBand), celString(string(sandcontrol.WaterCutHigh))),
		},
		{
			ID:         "completion-open-hole",
			Name:       "Open-hole completion",
			Factor:     sandcontrol.FactorCompletion,
			Expression: fmt.Sprintf("completion.type == %s", celString(string(sandcontrol.CompletionOpenHole))),
		},
		{
			ID:     "economic-feasible",
			Name:   "Economically feasible",
			Factor: sandcontrol.FactorEconomic,
			Expression: fmt.Sprintf("economic.feasibility in [%s, %s]",
				celString(string(sandcontrol.FeasibilityPositive)), celString(string(sandcontrol.FeasibilityCanBeSorted))),
		},
		{
			ID:     "environmental-impact",
			Name:   "Minimal environmental impact",
			Factor: sandcontrol.FactorEnvironmental,
			Expression: fmt.Sprintf("environmental.source == %s && environmental.impact == %s",
				celString(string(sandcontrol.SourceImpact)), celString(string(sandcontrol.ImpactMinimal))),
		},
		{
			ID:     "environmental-feasibility",
			Name:   "Positive feasibility read as environmental signal",
			Factor: sandcontrol.FactorEnvironmental,
			Expression: fmt.Sprintf("environmental.source == %s && environmental.feasibility == %s",
				celString(string(sandcontrol.SourceFeasibility)), celString(string(sandcontrol.FeasibilityPositive))),
		},
	}

	for _, r := range rules {
		r.Active = true
	}
	return rules
}

// RuleFile is the YAML layout of a rule file
type RuleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule as written in a rule file. Active defaults to true.
type RuleSpec struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Factor     string `yaml:"factor"`
	Expression string `yaml:"expression"`
	Active     *bool  `yaml:"active,omitempty"`
}

// ParseRuleFile decodes and validates a YAML rule file
func ParseRuleFile(data []byte) ([]*Rule, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	rules := make([]*Rule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		active := true
		if spec.Active != nil {
			active = *spec.Active
		}
		rules = append(rules, &Rule{
			ID:         spec.ID,
			Name:       spec.Name,
			Factor:     sandcontrol.Factor(strings.ToLower(strings.TrimSpace(spec.Factor))),
			Expression: spec.Expression,
			Active:     active,
		})
	}

	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadRuleFile reads and validates a rule file
func LoadRuleFile(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRuleFile(data)
}

// MarshalRuleFile encodes rules in the rule file layout
func MarshalRuleFile(rules []*Rule) ([]byte, error) {
	file := RuleFile{Rules: make([]RuleSpec, 0, len(rules))}
	for _, r := range rules {
		active := r.Active
		file.Rules = append(file.Rules, RuleSpec{
			ID:         r.ID,
			Name:       r.Name,
			Factor:     string(r.Factor),
			Expression: r.Expression,
			Active:     &active,
		})
	}
	return yaml.Marshal(file)
}

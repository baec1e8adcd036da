package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/liamcoop/scid/rules"
	"github.com/liamcoop/scid/sandcontrol"
)

// API request and response models, shared by `scid recommend` and the
// HTTP adapter

// ReservoirRequest carries either the numeric or the categorical reservoir
// fields, never both
type ReservoirRequest struct {
	CompressiveStrength *float64 `json:"compressiveStrength,omitempty" yaml:"compressive_strength,omitempty"`
	Permeability        *float64 `json:"permeability,omitempty" yaml:"permeability,omitempty"`
	Porosity            *float64 `json:"porosity,omitempty" yaml:"porosity,omitempty"`
	FluidViscosity      *float64 `json:"fluidViscosity,omitempty" yaml:"fluid_viscosity,omitempty"`

	Consolidation       string `json:"consolidation,omitempty" yaml:"consolidation,omitempty"`
	PermeabilityBand    string `json:"permeabilityBand,omitempty" yaml:"permeability_band,omitempty"`
	GrainSize           string `json:"grainSize,omitempty" yaml:"grain_size,omitempty"`
	FluidViscosityLevel string `json:"fluidViscosityLevel,omitempty" yaml:"fluid_viscosity_level,omitempty"`
}

// ProductionRequest carries the production behavior. WaterCut and
// WaterCutBand are alternatives.
type ProductionRequest struct {
	Rate         string   `json:"rate,omitempty" yaml:"rate,omitempty"`
	WaterCut     *float64 `json:"waterCut,omitempty" yaml:"water_cut,omitempty"`
	WaterCutBand string   `json:"waterCutBand,omitempty" yaml:"water_cut_band,omitempty"`
}

// RecommendRequest is one set of field observations plus optional policy
// overrides
type RecommendRequest struct {
	Reservoir     ReservoirRequest  `json:"reservoir" yaml:"reservoir"`
	Production    ProductionRequest `json:"production" yaml:"production"`
	Completion    string            `json:"completion" yaml:"completion"`
	Economic      string            `json:"economic" yaml:"economic"`
	Environmental string            `json:"environmental" yaml:"environmental"`

	Variant                 string `json:"variant,omitempty" yaml:"variant,omitempty"`
	EnvironmentalFromImpact *bool  `json:"environmentalFromImpact,omitempty" yaml:"environmental_from_impact,omitempty"`
	Explain                 bool   `json:"explain,omitempty" yaml:"explain,omitempty"`
}

// LoadRecommendRequest reads an observation file
func LoadRecommendRequest(path string) (RecommendRequest, error) {
	var req RecommendRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read input: %w", err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to parse input: %w", err)
	}
	return req, nil
}

func (r ReservoirRequest) numeric() bool {
	return r.CompressiveStrength != nil || r.Permeability != nil || r.Porosity != nil || r.FluidViscosity != nil
}

func (r ReservoirRequest) categorical() bool {
	return r.Consolidation != "" || r.PermeabilityBand != "" || r.GrainSize != "" || r.FluidViscosityLevel != ""
}

// ToObservation converts the request into one of the two reservoir forms.
// Missing numeric fields read as zero, missing categorical fields as unset.
func (r ReservoirRequest) ToObservation() (sandcontrol.ReservoirObservation, error) {
	switch {
	case r.numeric() && r.categorical():
		return nil, errors.New("reservoir: numeric and categorical fields are mutually exclusive")
	case r.numeric():
		m := sandcontrol.ReservoirMeasurements{
			CompressiveStrength: deref(r.CompressiveStrength),
			Permeability:        deref(r.Permeability),
			Porosity:            deref(r.Porosity),
			FluidViscosity:      deref(r.FluidViscosity),
		}
		err := errors.Join(
			checkRange("reservoir.compressiveStrength", m.CompressiveStrength, 0, math.Inf(1)),
			checkRange("reservoir.permeability", m.Permeability, 0, math.Inf(1)),
			checkRange("reservoir.porosity", m.Porosity, 0, 100),
			checkRange("reservoir.fluidViscosity", m.FluidViscosity, 0, math.Inf(1)),
		)
		if err != nil {
			return nil, err
		}
		return m, nil
	case r.categorical():
		var d sandcontrol.ReservoirDescriptors
		var errs []error
		if r.Consolidation != "" {
			v, err := sandcontrol.ParseConsolidation(r.Consolidation)
			errs = append(errs, err)
			d.Consolidation = v
		}
		if r.PermeabilityBand != "" {
			v, err := sandcontrol.ParsePermeabilityBand(r.PermeabilityBand)
			errs = append(errs, err)
			d.PermeabilityBand = v
		}
		if r.GrainSize != "" {
			v, err := sandcontrol.ParseGrainSize(r.GrainSize)
			errs = append(errs, err)
			d.GrainSize = v
		}
		if r.FluidViscosityLevel != "" {
			v, err := sandcontrol.ParseViscosityLevel(r.FluidViscosityLevel)
			errs = append(errs, err)
			d.FluidViscosity = v
		}
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("reservoir: %w", err)
		}
		return d, nil
	default:
		return nil, errors.New("reservoir: no observation given")
	}
}

// ToObservation converts the production request. An empty rate is "none".
func (p ProductionRequest) ToObservation() (sandcontrol.ProductionObservation, error) {
	obs := sandcontrol.ProductionObservation{Rate: sandcontrol.RateNone}

	if p.Rate != "" {
		rate, err := sandcontrol.ParseRateCondition(p.Rate)
		if err != nil {
			return obs, fmt.Errorf("production: %w", err)
		}
		obs.Rate = rate
	}

	switch {
	case p.WaterCut != nil && p.WaterCutBand != "":
		return obs, errors.New("production: waterCut and waterCutBand are mutually exclusive")
	case p.WaterCut != nil:
		if err := checkRange("production.waterCut", *p.WaterCut, 0, 100); err != nil {
			return obs, err
		}
		obs.WaterCut = sandcontrol.WaterCutPercent(*p.WaterCut)
	case p.WaterCutBand != "":
		level, err := sandcontrol.ParseWaterCutLevel(p.WaterCutBand)
		if err != nil {
			return obs, fmt.Errorf("production: %w", err)
		}
		obs.WaterCut = sandcontrol.WaterCutBand{Level: level}
	}
	return obs, nil
}

// ToInput validates the request and builds the engine input for policy p.
// Environmental is optional when p reads the economic feasibility for the
// environmental factor. All field errors are reported together.
func (r RecommendRequest) ToInput(p sandcontrol.Policy) (sandcontrol.Input, error) {
	var in sandcontrol.Input
	var errs []error

	reservoir, err := r.Reservoir.ToObservation()
	errs = append(errs, err)
	in.Reservoir = reservoir

	production, err := r.Production.ToObservation()
	errs = append(errs, err)
	in.Production = production

	if r.Completion == "" {
		errs = append(errs, errors.New("completion is required"))
	} else if in.Completion, err = sandcontrol.ParseCompletionType(r.Completion); err != nil {
		errs = append(errs, fmt.Errorf("completion: %w", err))
	}

	if r.Economic == "" {
		errs = append(errs, errors.New("economic is required"))
	} else if in.Economic, err = sandcontrol.ParseFeasibility(r.Economic); err != nil {
		errs = append(errs, fmt.Errorf("economic: %w", err))
	}

	if r.Environmental == "" {
		if p.EnvironmentalSource() == sandcontrol.SourceImpact {
			errs = append(errs, errors.New("environmental is required"))
		}
	} else if in.Environmental, err = sandcontrol.ParseImpact(r.Environmental); err != nil {
		errs = append(errs, fmt.Errorf("environmental: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return sandcontrol.Input{}, err
	}
	return in, nil
}

// Policy applies the request's overrides to base
func (r RecommendRequest) Policy(base sandcontrol.Policy) (sandcontrol.Policy, error) {
	p := base
	if r.Variant != "" {
		v, err := sandcontrol.ParseVariant(r.Variant)
		if err != nil {
			return p, err
		}
		p.Variant = v
	}
	if r.EnvironmentalFromImpact != nil {
		p.EnvironmentalFromImpact = *r.EnvironmentalFromImpact
	}
	return p, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%s: %v out of range [%v, %v]", field, v, lo, hi)
	}
	return nil
}

// RecommendResponse is one assessment
type RecommendResponse struct {
	ID             string               `json:"id" yaml:"id"`
	Outcome        sandcontrol.Outcome  `json:"outcome" yaml:"outcome"`
	Advice         string               `json:"advice" yaml:"advice"`
	Verdicts       sandcontrol.Verdicts `json:"verdicts" yaml:"verdicts"`
	Variant        sandcontrol.Variant  `json:"variant" yaml:"variant"`
	Vetoed         bool                 `json:"vetoed" yaml:"vetoed"`
	VetoedBy       []sandcontrol.Factor `json:"vetoedBy,omitempty" yaml:"vetoed_by,omitempty"`
	Engine         string               `json:"engine" yaml:"engine"`
	Rules          []RuleResultResponse `json:"rules,omitempty" yaml:"rules,omitempty"`
	EvaluationTime string               `json:"evaluationTime" yaml:"evaluation_time"`
}

// RuleResultResponse is one rule evaluation in an explained assessment
type RuleResultResponse struct {
	RuleID  string             `json:"ruleId" yaml:"rule_id"`
	Factor  sandcontrol.Factor `json:"factor" yaml:"factor"`
	Matched bool               `json:"matched" yaml:"matched"`
	Error   string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func newRuleResultResponse(r *rules.EvaluationResult) RuleResultResponse {
	rr := RuleResultResponse{RuleID: r.RuleID, Factor: r.Factor, Matched: r.Matched}
	if r.Error != nil {
		rr.Error = r.Error.Error()
	}
	return rr
}

func newRuleResultResponses(results []*rules.EvaluationResult) []RuleResultResponse {
	out := make([]RuleResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, newRuleResultResponse(r))
	}
	return out
}

// CreateRuleRequest represents the request body for adding a rule. A
// missing ID is generated and Active defaults to true.
type CreateRuleRequest struct {
	ID         string             `json:"id,omitempty"`
	Name       string             `json:"name"`
	Factor     sandcontrol.Factor `json:"factor"`
	Expression string             `json:"expression"`
	Active     *bool              `json:"active,omitempty"`
}

// Rule builds the rule to add
func (c CreateRuleRequest) Rule() *rules.Rule {
	r := &rules.Rule{
		ID:         c.ID,
		Name:       c.Name,
		Factor:     c.Factor,
		Expression: c.Expression,
		Active:     true,
	}
	if r.ID == "" {
		r.ID = "rule-" + uuid.NewString()
	}
	if c.Active != nil {
		r.Active = *c.Active
	}
	return r
}

// UpdateRuleRequest represents the request body for updating a rule.
// Omitted fields keep their current values.
type UpdateRuleRequest struct {
	Name       string             `json:"name,omitempty"`
	Factor     sandcontrol.Factor `json:"factor,omitempty"`
	Expression string             `json:"expression,omitempty"`
	Active     *bool              `json:"active,omitempty"`
}

// Apply returns a copy of existing with the request's fields applied
func (u UpdateRuleRequest) Apply(existing *rules.Rule) *rules.Rule {
	r := *existing
	if u.Name != "" {
		r.Name = u.Name
	}
	if u.Factor != "" {
		r.Factor = u.Factor
	}
	if u.Expression != "" {
		r.Expression = u.Expression
	}
	if u.Active != nil {
		r.Active = *u.Active
	}
	return &r
}

// RuleResponse represents a rule in API responses
type RuleResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Factor     sandcontrol.Factor `json:"factor"`
	Expression string             `json:"expression"`
	Active     bool               `json:"active"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

func newRuleResponse(r *rules.Rule) RuleResponse {
	return RuleResponse{
		ID:         r.ID,
		Name:       r.Name,
		Factor:     r.Factor,
		Expression: r.Expression,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// RulesListResponse represents the response for listing rules
type RulesListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

func newRulesListResponse(rs []*rules.Rule) RulesListResponse {
	resp := RulesListResponse{Rules: make([]RuleResponse, 0, len(rs))}
	for _, r := range rs {
		resp.Rules = append(resp.Rules, newRuleResponse(r))
	}
	return resp
}

// FactorResponse is the verdict of one factor's rules
type FactorResponse struct {
	Factor    sandcontrol.Factor `json:"factor"`
	Indicated bool               `json:"indicated"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string           `json:"status"`
	Engine   string           `json:"engine"`
	Variant  string           `json:"variant"`
	Rules    int              `json:"rules"`
	Counters map[string]int64 `json:"counters"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

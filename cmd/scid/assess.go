package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/scid/internal/config"
	"github.com/liamcoop/scid/internal/logger"
	"github.com/liamcoop/scid/rules"
	"github.com/liamcoop/scid/sandcontrol"
)

// Engine names accepted by --engine
const (
	EngineNative = "native"
	EngineRules  = "rules"
)

// Assessor runs assessments for the CLI and the HTTP adapter. The rule
// engine can be rebuilt from its rule file and swapped in while requests
// are served.
type Assessor struct {
	name      string
	rulesPath string
	policy    sandcontrol.Policy

	mu        sync.RWMutex
	evaluator sandcontrol.Evaluator
	rules     *rules.Engine // used for explanations and rule listings
}

// NewAssessor builds the evaluator named by engineName. An empty name picks
// the rule engine when a rules path is configured and the built-in
// thresholds otherwise.
func NewAssessor(engineName, rulesPath string, policy sandcontrol.Policy) (*Assessor, error) {
	if engineName == "" {
		engineName = EngineNative
		if rulesPath != "" {
			engineName = EngineRules
		}
	}
	switch engineName {
	case EngineNative, EngineRules:
	default:
		return nil, fmt.Errorf("unknown engine %q (must be %s or %s)", engineName, EngineNative, EngineRules)
	}

	a := &Assessor{name: engineName, rulesPath: rulesPath, policy: policy}
	if _, err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

func loadEngine(rulesPath string) (*rules.Engine, int, error) {
	rs := rules.DefaultRules()
	if rulesPath != "" {
		var err error
		if rs, err = rules.LoadRuleFile(rulesPath); err != nil {
			return nil, 0, err
		}
	}

	en, err := rules.NewEngineFromRules(rs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create rule engine: %w", err)
	}
	return en, len(rs), nil
}

// Reload rebuilds the rule engine from the rule file (or the built-in set)
// and swaps it in atomically. On error the current engine stays in place.
func (a *Assessor) Reload() (int, error) {
	en, n, err := loadEngine(a.rulesPath)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.rules = en
	if a.name == EngineRules {
		a.evaluator = en
	} else {
		a.evaluator = sandcontrol.Native{}
	}

	logger.Info("rule engine loaded", "engine", a.name, "path", a.rulesPath, "rules", n)
	return n, nil
}

func (a *Assessor) current() (sandcontrol.Evaluator, *rules.Engine) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.evaluator, a.rules
}

// NewAssessorFromConfig uses the engine section of cfg
func NewAssessorFromConfig(cfg *config.Config, engineName string) (*Assessor, error) {
	return NewAssessor(engineName, cfg.Engine.RulesPath, cfg.Policy())
}

// Assess validates the request, evaluates it and renders the response
func (a *Assessor) Assess(req RecommendRequest) (*RecommendResponse, error) {
	policy, err := req.Policy(a.policy)
	if err != nil {
		return nil, err
	}
	in, err := req.ToInput(policy)
	if err != nil {
		return nil, err
	}

	evaluator, re := a.current()

	start := time.Now()
	rec := sandcontrol.AssessWith(evaluator, in, policy)
	elapsed := time.Since(start)

	logger.CountAssessment(rec.Vetoed)
	logger.Debug("assessment",
		"engine", a.name,
		"variant", rec.Variant,
		"outcome", rec.Outcome,
		"vetoedBy", rec.VetoedBy,
		"elapsed", elapsed,
	)

	resp := &RecommendResponse{
		ID:             uuid.NewString(),
		Outcome:        rec.Outcome,
		Advice:         rec.Advice(),
		Verdicts:       rec.Verdicts,
		Variant:        rec.Variant,
		Vetoed:         rec.Vetoed,
		VetoedBy:       rec.VetoedBy,
		Engine:         a.name,
		EvaluationTime: elapsed.String(),
	}

	if req.Explain {
		results, err := re.Explain(in, policy)
		if err != nil {
			return nil, fmt.Errorf("failed to explain assessment: %w", err)
		}
		resp.Rules = newRuleResultResponses(results)
	}
	return resp, nil
}

// Rule returns one rule of the underlying rule engine
func (a *Assessor) Rule(ruleID string) (*rules.Rule, error) {
	_, re := a.current()
	return re.GetRule(ruleID)
}

// AddRule compiles r into the running rule engine. Edits last until the
// next Reload.
func (a *Assessor) AddRule(r *rules.Rule) error {
	_, re := a.current()
	if err := re.AddRule(r); err != nil {
		return err
	}
	logger.Info("rule added", "rule", r.ID, "factor", r.Factor)
	return nil
}

// UpdateRule replaces a rule in the running rule engine
func (a *Assessor) UpdateRule(r *rules.Rule) error {
	_, re := a.current()
	if err := re.UpdateRule(r); err != nil {
		return err
	}
	logger.Info("rule updated", "rule", r.ID, "factor", r.Factor, "active", r.Active)
	return nil
}

// DeleteRule removes a rule from the running rule engine
func (a *Assessor) DeleteRule(ruleID string) error {
	_, re := a.current()
	if err := re.DeleteRule(ruleID); err != nil {
		return err
	}
	logger.Info("rule deleted", "rule", ruleID)
	return nil
}

// EvaluateRule evaluates a single rule against the request's observations
func (a *Assessor) EvaluateRule(ruleID string, req RecommendRequest) (*rules.EvaluationResult, error) {
	facts, err := a.facts(req)
	if err != nil {
		return nil, err
	}
	_, re := a.current()
	return re.Evaluate(ruleID, facts)
}

// EvaluateFactor reports whether any active rule of f matches the
// request's observations
func (a *Assessor) EvaluateFactor(f sandcontrol.Factor, req RecommendRequest) (bool, error) {
	facts, err := a.facts(req)
	if err != nil {
		return false, err
	}
	_, re := a.current()
	return re.EvaluateFactor(f, facts)
}

func (a *Assessor) facts(req RecommendRequest) (map[string]any, error) {
	policy, err := req.Policy(a.policy)
	if err != nil {
		return nil, err
	}
	in, err := req.ToInput(policy)
	if err != nil {
		return nil, err
	}
	return rules.Facts(in, policy), nil
}

// Rules returns the active rules of the underlying rule engine
func (a *Assessor) Rules() ([]*rules.Rule, error) {
	_, re := a.current()
	return re.ActiveRules()
}

// Name returns the engine name
func (a *Assessor) Name() string {
	return a.name
}

// Policy returns the base policy
func (a *Assessor) Policy() sandcontrol.Policy {
	return a.policy
}

package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/liamcoop/scid/internal/logger"
	"github.com/liamcoop/scid/sandcontrol"
)

// costLimit bounds the work a single rule may do
const costLimit = 1000000

// Engine compiles factor rules to CEL programs and evaluates them.
// Safe for concurrent use.
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache
	programs map[string]cel.Program // ruleID -> compiled program
	mu       sync.RWMutex
}

// NewEnv creates the CEL environment rules compile against.
// Each factor is a dynamically typed map variable of the same name.
func NewEnv() (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(sandcontrol.Factors))
	for _, f := range sandcontrol.Factors {
		opts = append(opts, cel.Variable(string(f), cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine creates an engine over store and compiles its active rules
func NewEngine(store RuleStore) (*Engine, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}
	return NewEngineWithEnv(env, store)
}

// NewEngineWithEnv creates an engine with a caller-supplied CEL environment
func NewEngineWithEnv(env *cel.Env, store RuleStore) (*Engine, error) {
	en := &Engine{
		env:      env,
		store:    store,
		cache:    NewInMemoryRulesCache(DefaultCacheConfig()),
		programs: make(map[string]cel.Program),
	}

	if err := en.CompileAllRules(); err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}

	return en, nil
}

// NewEngineFromRules validates rules and builds an engine over an in-memory store
func NewEngineFromRules(rules []*Rule) (*Engine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	store, err := NewInMemoryRuleStoreWith(rules)
	if err != nil {
		return nil, err
	}
	return NewEngine(store)
}

// NewDefaultEngine builds an engine over the built-in rule set
func NewDefaultEngine() (*Engine, error) {
	return NewEngineFromRules(DefaultRules())
}

// CompileRule compiles a single expression and caches the program
func (en *Engine) CompileRule(ruleID, expression string) error {
	prog, err := en.compile(expression)
	if err != nil {
		return err
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

func (en *Engine) compile(expression string) (cel.Program, error) {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := en.env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(costLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

// CompileAllRules compiles every active rule and refreshes the cache
func (en *Engine) CompileAllRules() error {
	rules, err := en.store.ListActive()
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := en.CompileRule(rule.ID, rule.Expression); err != nil {
			return fmt.Errorf("failed to compile rule %s: %w", rule.ID, err)
		}
	}

	en.cache.Set(rules)

	return nil
}

// AddRule validates and compiles r and adds it to the store. Nothing
// changes if any step fails.
func (en *Engine) AddRule(r *Rule) error {
	if _, err := en.store.Get(r.ID); err == nil {
		return fmt.Errorf("rule %s: %w", r.ID, ErrRuleExists)
	}
	if err := ValidateRule(r); err != nil {
		return err
	}

	if err := en.CompileRule(r.ID, r.Expression); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Add(r); err != nil {
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()

	return nil
}

// UpdateRule recompiles and replaces an existing rule
func (en *Engine) UpdateRule(r *Rule) error {
	if _, err := en.store.Get(r.ID); err != nil {
		return err
	}
	if err := ValidateRule(r); err != nil {
		return err
	}

	prog, err := en.compile(r.Expression)
	if err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.mu.Lock()
	en.programs[r.ID] = prog
	en.mu.Unlock()

	en.cache.Invalidate()

	return nil
}

// DeleteRule removes a rule and its compiled program
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()

	return nil
}

// GetRule returns a rule by ID, active or not
func (en *Engine) GetRule(ruleID string) (*Rule, error) {
	return en.store.Get(ruleID)
}

// ActiveRules returns the active rules ordered by ID
func (en *Engine) ActiveRules() ([]*Rule, error) {
	return en.store.ListActive()
}

// Evaluate evaluates a single rule against facts. Non-boolean results
// count as not matched; evaluation errors are returned and recorded.
func (en *Engine) Evaluate(ruleID string, facts map[string]any) (*EvaluationResult, error) {
	rule, err := en.store.Get(ruleID)
	if err != nil {
		return nil, err
	}

	en.mu.RLock()
	_, exists := en.programs[ruleID]
	en.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("rule %s is not compiled", ruleID)
	}

	result := en.eval(rule, facts)
	return result, result.Error
}

func (en *Engine) eval(rule *Rule, facts map[string]any) *EvaluationResult {
	result := &EvaluationResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Factor:   rule.Factor,
	}

	en.mu.RLock()
	prog, exists := en.programs[rule.ID]
	en.mu.RUnlock()

	if !exists {
		result.Error = fmt.Errorf("rule %s is not compiled", rule.ID)
		return result
	}

	out, details, err := prog.Eval(facts)
	if err != nil {
		result.Error = err
		return result
	}

	if matched, ok := out.Value().(bool); ok {
		result.Matched = matched
	}
	if details != nil {
		result.Trace = details.State()
	}

	logger.Trace("rule evaluated", "rule", rule.ID, "factor", rule.Factor, "matched", result.Matched)
	return result
}

// index returns the active rules grouped by factor, refilling the cache on a miss
func (en *Engine) index() (FactorIndex, error) {
	if idx := en.cache.Get(); idx != nil {
		return idx, nil
	}

	rules, err := en.store.ListActive()
	if err != nil {
		return nil, err
	}
	en.cache.Set(rules)
	return NewFactorIndex(rules), nil
}

// EvaluateAll evaluates every active rule. A failing rule is recorded in
// its result and does not stop the others.
func (en *Engine) EvaluateAll(facts map[string]any) ([]*EvaluationResult, error) {
	idx, err := en.index()
	if err != nil {
		return nil, err
	}

	var results []*EvaluationResult
	for _, f := range sandcontrol.Factors {
		for _, rule := range idx[f] {
			results = append(results, en.eval(rule, facts))
		}
	}
	return results, nil
}

// EvaluateFactor reports whether any active rule of factor f matches
func (en *Engine) EvaluateFactor(f sandcontrol.Factor, facts map[string]any) (bool, error) {
	idx, err := en.index()
	if err != nil {
		return false, err
	}

	for _, rule := range idx[f] {
		if en.eval(rule, facts).Matched {
			return true, nil
		}
	}
	return false, nil
}

// Explain evaluates every active rule for the input and policy
func (en *Engine) Explain(in sandcontrol.Input, p sandcontrol.Policy) ([]*EvaluationResult, error) {
	return en.EvaluateAll(Facts(in, p))
}

// Verdicts implements sandcontrol.Evaluator. Rule errors are logged and
// count as not matched, so every factor still gets a verdict.
func (en *Engine) Verdicts(in sandcontrol.Input, p sandcontrol.Policy) sandcontrol.Verdicts {
	var v sandcontrol.Verdicts

	results, err := en.Explain(in, p)
	if err != nil {
		logger.Error("rule evaluation failed", "error", err)
		return v
	}

	for _, r := range results {
		if r.Error != nil {
			logger.Warn("rule evaluation error", "rule", r.RuleID, "factor", r.Factor, "error", r.Error)
			continue
		}
		if r.Matched {
			v.Set(r.Factor, true)
		}
	}
	return v
}

package rules

import (
	"time"

	"github.com/liamcoop/scid/sandcontrol"
)

// Rule is one CEL sub-check contributing to a factor verdict.
// A factor is indicated when any of its active rules matches.
type Rule struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Factor     sandcontrol.Factor `json:"factor" yaml:"factor"`
	Expression string             `json:"expression" yaml:"expression"`
	Active     bool               `json:"active" yaml:"active"`
	CreatedAt  time.Time          `json:"createdAt" yaml:"-"`
	UpdatedAt  time.Time          `json:"updatedAt" yaml:"-"`
}

// EvaluationResult contains the outcome of evaluating a rule
type EvaluationResult struct {
	RuleID   string             `json:"ruleId"`
	RuleName string             `json:"ruleName"`
	Factor   sandcontrol.Factor `json:"factor"`
	Matched  bool               `json:"matched"`
	Error    error              `json:"-"`
	Trace    any                `json:"-"` // CEL evaluation state, set when evaluation succeeds
}

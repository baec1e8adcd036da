package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/liamcoop/scid/sandcontrol"
)

const (
	maxRules      = 500
	maxIDLength   = 100
	maxExprLength = 4096
)

var validRuleID = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// ValidateRules checks a rule set before it is compiled.
// Returns an error describing the first problem found, nil if the set is valid.
func ValidateRules(rules []*Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("rule set cannot be empty")
	}
	if len(rules) > maxRules {
		return fmt.Errorf("rule set contains %d rules, maximum allowed is %d", len(rules), maxRules)
	}

	seen := make(map[string]bool, len(rules))
	covered := make(map[sandcontrol.Factor]bool, len(sandcontrol.Factors))

	for i, r := range rules {
		if r == nil {
			return fmt.Errorf("rule %d is empty", i)
		}
		if err := ValidateRule(r); err != nil {
			return err
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true

		if r.Active {
			covered[r.Factor] = true
		}
	}

	for _, f := range sandcontrol.Factors {
		if !covered[f] {
			return fmt.Errorf("factor %q has no active rule", f)
		}
	}

	return nil
}

// ValidateRule checks the id, factor and expression size of a single rule.
// It does not compile the expression.
func ValidateRule(r *Rule) error {
	if err := validateRuleID(r.ID); err != nil {
		return fmt.Errorf("invalid rule id %q: %w", r.ID, err)
	}
	if !r.Factor.Valid() {
		return fmt.Errorf("rule %q has unknown factor %q", r.ID, r.Factor)
	}
	if strings.TrimSpace(r.Expression) == "" {
		return fmt.Errorf("rule %q has an empty expression", r.ID)
	}
	if len(r.Expression) > maxExprLength {
		return fmt.Errorf("rule %q expression length %d exceeds maximum of %d", r.ID, len(r.Expression), maxExprLength)
	}
	return nil
}

// validateRuleID requires 1-100 characters, starting with a letter or
// underscore, followed by letters, digits, underscores or hyphens
func validateRuleID(id string) error {
	if len(id) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(id), maxIDLength)
	}
	if !validRuleID.MatchString(id) {
		return fmt.Errorf("must match pattern %s", validRuleID.String())
	}
	return nil
}

package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/liamcoop/scid/sandcontrol"
)

func validSet() []*Rule {
	var rules []*Rule
	for _, f := range sandcontrol.Factors {
		rules = append(rules, &Rule{ID: string(f) + "-rule", Factor: f, Expression: `true`, Active: true})
	}
	return rules
}

func TestValidateRules(t *testing.T) {
	if err := ValidateRules(validSet()); err != nil {
		t.Fatalf("ValidateRules() on valid set failed: %v", err)
	}

	testCases := []struct {
		name    string
		modify  func([]*Rule) []*Rule
		wantErr string
	}{
		{
			name:    "empty set",
			modify:  func([]*Rule) []*Rule { return nil },
			wantErr: "cannot be empty",
		},
		{
			name:    "nil rule",
			modify:  func(r []*Rule) []*Rule { return append(r, nil) },
			wantErr: "is empty",
		},
		{
			name: "empty id",
			modify: func(r []*Rule) []*Rule {
				r[0].ID = ""
				return r
			},
			wantErr: "identifier cannot be empty",
		},
		{
			name: "id with spaces",
			modify: func(r []*Rule) []*Rule {
				r[0].ID = "has space"
				return r
			},
			wantErr: "must match pattern",
		},
		{
			name: "id starting with digit",
			modify: func(r []*Rule) []*Rule {
				r[0].ID = "1rule"
				return r
			},
			wantErr: "must match pattern",
		},
		{
			name: "id too long",
			modify: func(r []*Rule) []*Rule {
				r[0].ID = "r" + strings.Repeat("x", 100)
				return r
			},
			wantErr: "exceeds maximum",
		},
		{
			name: "duplicate id",
			modify: func(r []*Rule) []*Rule {
				r[1].ID = r[0].ID
				return r
			},
			wantErr: "duplicate rule id",
		},
		{
			name: "unknown factor",
			modify: func(r []*Rule) []*Rule {
				return append(r, &Rule{ID: "pressure", Factor: "pressure", Expression: `true`})
			},
			wantErr: "unknown factor",
		},
		{
			name: "blank expression",
			modify: func(r []*Rule) []*Rule {
				r[2].Expression = "   "
				return r
			},
			wantErr: "empty expression",
		},
		{
			name: "factor without active rule",
			modify: func(r []*Rule) []*Rule {
				r[4].Active = false
				return r
			},
			wantErr: `factor "environmental" has no active rule`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRules(tc.modify(validSet()))
			if err == nil {
				t.Fatalf("ValidateRules() should fail")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("ValidateRules() error = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidateRulesTooMany(t *testing.T) {
	rules := validSet()
	for len(rules) <= maxRules {
		rules = append(rules, &Rule{ID: fmt.Sprintf("extra-%d", len(rules)), Factor: sandcontrol.FactorEconomic, Expression: `true`})
	}

	err := ValidateRules(rules)
	if err == nil || !strings.Contains(err.Error(), "maximum allowed") {
		t.Errorf("ValidateRules() error = %v, want maximum allowed", err)
	}
}

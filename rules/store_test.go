package rules

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/liamcoop/scid/sandcontrol"
)

func TestRuleStoreInterface(t *testing.T) {
	var _ RuleStore = (*InMemoryRuleStore)(nil)
}

func TestInMemoryRuleStoreAddGet(t *testing.T) {
	store := NewInMemoryRuleStore()

	rule := &Rule{
		ID:         "test-1",
		Name:       "Test Rule",
		Factor:     sandcontrol.FactorCompletion,
		Expression: `completion.type == "open_hole"`,
		Active:     true,
	}

	if err := store.Add(rule); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	retrieved, err := store.Get("test-1")
	if err != nil {
		t.Fatalf("Get() failed after Add(): %v", err)
	}
	if retrieved.Name != rule.Name || retrieved.Factor != rule.Factor {
		t.Errorf("Retrieved rule = %+v, want %+v", retrieved, rule)
	}

	if err := store.Add(&Rule{ID: "test-1"}); !errors.Is(err, ErrRuleExists) {
		t.Errorf("duplicate Add() error = %v, want ErrRuleExists", err)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Get() error = %v, want ErrRuleNotFound", err)
	}
}

func TestInMemoryRuleStoreTimestamps(t *testing.T) {
	store := NewInMemoryRuleStore()

	rule := &Rule{ID: "ts", Factor: sandcontrol.FactorEconomic, Expression: `true`, Active: true}
	store.Add(rule)

	if rule.CreatedAt.IsZero() || rule.UpdatedAt.IsZero() {
		t.Fatal("Add() should set timestamps")
	}
	created := rule.CreatedAt

	time.Sleep(5 * time.Millisecond)

	updated := &Rule{ID: "ts", Factor: sandcontrol.FactorEconomic, Expression: `false`, Active: true}
	if err := store.Update(updated); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Errorf("Update() should preserve CreatedAt, got %v want %v", updated.CreatedAt, created)
	}
	if !updated.UpdatedAt.After(created) {
		t.Error("Update() should advance UpdatedAt")
	}
}

func TestInMemoryRuleStoreListActiveSorted(t *testing.T) {
	store := NewInMemoryRuleStore()
	for _, id := range []string{"c", "a", "d", "b"} {
		store.Add(&Rule{ID: id, Factor: sandcontrol.FactorEconomic, Expression: `true`, Active: id != "d"})
	}

	active, err := store.ListActive()
	if err != nil {
		t.Fatalf("ListActive() failed: %v", err)
	}

	var ids []string
	for _, r := range active {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[a b c]" {
		t.Errorf("ListActive() ids = %v, want [a b c]", ids)
	}
}

func TestInMemoryRuleStoreDelete(t *testing.T) {
	store := NewInMemoryRuleStore()
	store.Add(&Rule{ID: "gone", Factor: sandcontrol.FactorEconomic, Expression: `true`, Active: true})

	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get("gone"); err == nil {
		t.Error("Get() should fail after Delete()")
	}
	if err := store.Delete("gone"); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("Delete() error = %v, want ErrRuleNotFound", err)
	}
}

func TestNewInMemoryRuleStoreWithDuplicates(t *testing.T) {
	_, err := NewInMemoryRuleStoreWith([]*Rule{{ID: "x"}, {ID: "x"}})
	if !errors.Is(err, ErrRuleExists) {
		t.Errorf("NewInMemoryRuleStoreWith() error = %v, want ErrRuleExists", err)
	}
}

func TestInMemoryRuleStoreConcurrentReadWrite(t *testing.T) {
	store := NewInMemoryRuleStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Add(&Rule{ID: fmt.Sprintf("rule-%d", i), Factor: sandcontrol.FactorEconomic, Expression: `true`, Active: true})
		}(i)
		go func() {
			defer wg.Done()
			store.ListActive()
		}()
	}
	wg.Wait()

	active, _ := store.ListActive()
	if len(active) != 20 {
		t.Errorf("ListActive() returned %d rules, want 20", len(active))
	}
}

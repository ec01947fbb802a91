package rules

import (
	"errors"
	"testing"

	"sensorwatch/internal/domain"
	"sensorwatch/internal/storage"
)

func newSeededStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	backend := storage.NewMemoryStore()
	store, err := NewStore(backend, nil, true)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, backend
}

func TestNewStoreSeedsDefaultsOnce(t *testing.T) {
	t.Parallel()

	store, backend := newSeededStore(t)
	defaults := DefaultRules()
	if got := len(store.List()); got != len(defaults) {
		t.Fatalf("seeded %d rules, want %d", got, len(defaults))
	}
	persisted, found, err := backend.LoadRules()
	if err != nil || !found || len(persisted) != len(defaults) {
		t.Fatalf("expected seeded rules persisted, found=%v err=%v count=%d", found, err, len(persisted))
	}

	// A second store over the same backend must not reseed.
	if err := store.Delete(persisted[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	reopened, err := NewStore(backend, nil, true)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if got := len(reopened.List()); got != len(defaults)-1 {
		t.Fatalf("reopened store has %d rules, want %d", got, len(defaults)-1)
	}
}

func TestNewStoreWithoutSeeding(t *testing.T) {
	t.Parallel()

	store, err := NewStore(storage.NewMemoryStore(), nil, false)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := len(store.List()); got != 0 {
		t.Fatalf("expected empty store, got %d rules", got)
	}
}

func TestAddAssignsIDAndDefaults(t *testing.T) {
	t.Parallel()

	store, _ := newSeededStore(t)
	added, err := store.Add(domain.Rule{
		Name:        "Dry air",
		Field:       domain.FieldHumidity,
		Operator:    domain.OpLessThan,
		NumberValue: 20,
		Enabled:     true,
		Message:     "Humidity below 20%",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.ID == "" {
		t.Fatalf("expected generated id")
	}
	if added.Priority != domain.PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", added.Priority)
	}
	stored, ok := store.Get(added.ID)
	if !ok || stored.Name != "Dry air" {
		t.Fatalf("expected stored rule, ok=%v rule=%+v", ok, stored)
	}
}

func TestAddRejectsInvalidDrafts(t *testing.T) {
	t.Parallel()

	store, _ := newSeededStore(t)
	if _, err := store.Add(domain.Rule{Name: "  ", Field: domain.FieldTemperature}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if _, err := store.Add(domain.Rule{Name: "x", Field: "pressure"}); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestUpdateAppliesPatch(t *testing.T) {
	t.Parallel()

	store, _ := newSeededStore(t)
	target := store.List()[0]

	name := "Renamed"
	value := 33.5
	enabled := false
	err := store.Update(target.ID, domain.RulePatch{
		Name:        &name,
		NumberValue: &value,
		Enabled:     &enabled,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, ok := store.Get(target.ID)
	if !ok {
		t.Fatalf("rule disappeared after update")
	}
	if updated.Name != "Renamed" || updated.NumberValue != 33.5 || updated.Enabled {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Operator != target.Operator {
		t.Fatalf("untouched field changed: %q -> %q", target.Operator, updated.Operator)
	}
}

func TestUpdateUnknownRule(t *testing.T) {
	t.Parallel()

	store, _ := newSeededStore(t)
	name := "x"
	if err := store.Update("missing", domain.RulePatch{Name: &name}); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestToggleFlipsEnabled(t *testing.T) {
	t.Parallel()

	store, _ := newSeededStore(t)
	target := store.List()[0]

	if err := store.Toggle(target.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	flipped, _ := store.Get(target.ID)
	if flipped.Enabled == target.Enabled {
		t.Fatalf("toggle left enabled=%v", flipped.Enabled)
	}

	if err := store.Toggle("missing"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store, _ := newSeededStore(t)
	target := store.List()[0]
	before := len(store.List())

	if err := store.Delete(target.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(target.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if got := len(store.List()); got != before-1 {
		t.Fatalf("expected %d rules after delete, got %d", before-1, got)
	}
}

func TestReloadDiscardsUnpersistedState(t *testing.T) {
	t.Parallel()

	backend := storage.NewMemoryStore()
	store, err := NewStore(backend, nil, true)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	seeded := len(store.List())

	// Overwrite the backend behind the store's back, then reload.
	if err := backend.SaveRules(DefaultRules()[:2]); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := len(store.List()); got != 2 {
		t.Fatalf("expected 2 rules after reload, got %d (seeded %d)", got, seeded)
	}
}

func TestDefaultRulesCoverSpanishThresholds(t *testing.T) {
	t.Parallel()

	byID := map[string]domain.Rule{}
	for _, rule := range DefaultRules() {
		if !rule.Enabled {
			t.Fatalf("default rule %q must start enabled", rule.ID)
		}
		if !domain.SupportedOperator(rule.Field, rule.Operator) {
			t.Fatalf("default rule %q has unsupported pair %s/%s", rule.ID, rule.Field, rule.Operator)
		}
		byID[rule.ID] = rule
	}

	critical, ok := byID["default-temp-critical"]
	if !ok || critical.NumberValue != 35 || critical.Priority != domain.PriorityCritical {
		t.Fatalf("unexpected critical temperature rule: %+v", critical)
	}
	low, ok := byID["default-temp-low"]
	if !ok || low.Operator != domain.OpLessThan || low.NumberValue != 10 {
		t.Fatalf("unexpected low temperature rule: %+v", low)
	}
	status, ok := byID["default-status-critical"]
	if !ok || status.Field != domain.FieldStatus || status.StringValue != string(domain.StatusCritical) {
		t.Fatalf("unexpected status rule: %+v", status)
	}
}

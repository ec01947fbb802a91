package domain

import "testing"

func TestSupportedOperatorMatrix(t *testing.T) {
	t.Parallel()

	legal := []struct {
		field RuleField
		op    RuleOperator
	}{
		{FieldTemperature, OpGreaterThan},
		{FieldTemperature, OpLessThan},
		{FieldHumidity, OpEquals},
		{FieldHumidity, OpNotEquals},
		{FieldStatus, OpContains},
		{FieldStatus, OpEquals},
		{FieldActuator, OpNotContains},
	}
	for _, pair := range legal {
		if !SupportedOperator(pair.field, pair.op) {
			t.Fatalf("expected %s/%s to be legal", pair.field, pair.op)
		}
	}

	illegal := []struct {
		field RuleField
		op    RuleOperator
	}{
		{FieldTemperature, OpContains},
		{FieldHumidity, OpNotContains},
		{FieldStatus, OpGreaterThan},
		{FieldActuator, OpLessThan},
		{"pressure", OpEquals},
	}
	for _, pair := range illegal {
		if SupportedOperator(pair.field, pair.op) {
			t.Fatalf("expected %s/%s to be illegal", pair.field, pair.op)
		}
	}
}

func TestNumericField(t *testing.T) {
	t.Parallel()

	if !NumericField(FieldTemperature) || !NumericField(FieldHumidity) {
		t.Fatalf("temperature and humidity are numeric")
	}
	if NumericField(FieldStatus) || NumericField(FieldActuator) {
		t.Fatalf("status and actuator are string fields")
	}
}

func TestKnownField(t *testing.T) {
	t.Parallel()

	for _, field := range []RuleField{FieldTemperature, FieldHumidity, FieldStatus, FieldActuator} {
		if !KnownField(field) {
			t.Fatalf("expected %s to be known", field)
		}
	}
	if KnownField("voltage") {
		t.Fatalf("unexpected known field")
	}
}

func TestRulePatchApply(t *testing.T) {
	t.Parallel()

	original := Rule{
		ID:          "r1",
		Name:        "Temperatura Alta",
		Field:       FieldTemperature,
		Operator:    OpGreaterThan,
		NumberValue: 30,
		Enabled:     true,
		Priority:    PriorityMedium,
		Message:     "too hot",
	}

	name := "Renamed"
	priority := PriorityCritical
	patched := RulePatch{Name: &name, Priority: &priority}.Apply(original)

	if patched.ID != "r1" {
		t.Fatalf("id must never change, got %q", patched.ID)
	}
	if patched.Name != "Renamed" || patched.Priority != PriorityCritical {
		t.Fatalf("patch not applied: %+v", patched)
	}
	if patched.NumberValue != 30 || patched.Operator != OpGreaterThan || !patched.Enabled {
		t.Fatalf("untouched fields changed: %+v", patched)
	}

	// Empty patch is the identity.
	if got := (RulePatch{}).Apply(original); got != original {
		t.Fatalf("empty patch changed rule: %+v", got)
	}
}

func TestPrioritiesOrder(t *testing.T) {
	t.Parallel()

	got := Priorities()
	want := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	if len(got) != len(want) {
		t.Fatalf("priorities = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("priorities = %v, want %v", got, want)
		}
	}
}

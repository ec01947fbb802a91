package engine

import (
	"testing"
	"time"

	"sensorwatch/internal/clock"
	"sensorwatch/internal/domain"
)

type fakeLogView struct {
	emissions map[string]time.Time
}

func newFakeLogView() *fakeLogView {
	return &fakeLogView{emissions: make(map[string]time.Time)}
}

func (v *fakeLogView) LastEmitted(ruleID, readingID string) (time.Time, bool) {
	at, ok := v.emissions[ruleID+"|"+readingID]
	return at, ok
}

func (v *fakeLogView) record(notification domain.Notification) {
	v.emissions[notification.RuleID+"|"+notification.Reading.ID] = notification.Timestamp
}

func testRule() domain.Rule {
	return domain.Rule{
		ID:          "rule-1",
		Name:        "Temperatura Alta",
		Field:       domain.FieldTemperature,
		Operator:    domain.OpGreaterThan,
		NumberValue: 30,
		Enabled:     true,
		Priority:    domain.PriorityMedium,
		Message:     "temperatura alta",
	}
}

func TestConsiderDedupWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	view := newFakeLogView()
	factory := NewFactory(5*time.Minute, clock.Func(func() time.Time { return now }), view)

	rule := testRule()
	reading := domain.Reading{ID: "reading-1", Temperature: 35}

	first, outcome := factory.Consider(rule, reading)
	if outcome != OutcomeEmitted {
		t.Fatalf("expected first consider to emit, got %v", outcome)
	}
	view.record(first)

	now = now.Add(4*time.Minute + 59*time.Second)
	if _, outcome := factory.Consider(rule, reading); outcome != OutcomeSuppressed {
		t.Fatalf("expected suppression inside window, got %v", outcome)
	}

	// Exactly window-elapsed permits a new notification.
	now = first.Timestamp.Add(5 * time.Minute)
	second, outcome := factory.Consider(rule, reading)
	if outcome != OutcomeEmitted {
		t.Fatalf("expected emission at the exclusive window boundary, got %v", outcome)
	}
	if second.ID == first.ID {
		t.Fatalf("expected distinct notification ids across emissions")
	}
}

func TestConsiderNoMatch(t *testing.T) {
	t.Parallel()

	factory := NewFactory(5*time.Minute, clock.RealClock{}, newFakeLogView())
	if _, outcome := factory.Consider(testRule(), domain.Reading{ID: "r", Temperature: 20}); outcome != OutcomeNoMatch {
		t.Fatalf("expected no-match outcome, got %v", outcome)
	}
}

func TestConsiderDistinctRulesSameReading(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	view := newFakeLogView()
	factory := NewFactory(5*time.Minute, clock.Func(func() time.Time { return now }), view)

	reading := domain.Reading{ID: "reading-1", Temperature: 41}
	ruleA := testRule()
	ruleB := testRule()
	ruleB.ID = "rule-2"
	ruleB.NumberValue = 40

	first, outcome := factory.Consider(ruleA, reading)
	if outcome != OutcomeEmitted {
		t.Fatalf("expected first rule to emit")
	}
	view.record(first)

	// Dedup is per rule/reading pair, not per reading.
	if _, outcome := factory.Consider(ruleB, reading); outcome != OutcomeEmitted {
		t.Fatalf("expected second rule to emit for the same reading, got %v", outcome)
	}
}

func TestConsiderSnapshotsRuleFields(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	factory := NewFactory(5*time.Minute, clock.Func(func() time.Time { return now }), newFakeLogView())

	rule := testRule()
	reading := domain.Reading{ID: "reading-1", Temperature: 35, Humidity: 50, Status: domain.StatusNormal}
	notification, outcome := factory.Consider(rule, reading)
	if outcome != OutcomeEmitted {
		t.Fatalf("expected emission")
	}

	if notification.RuleID != rule.ID || notification.RuleName != rule.Name {
		t.Fatalf("expected rule identity snapshot, got %+v", notification)
	}
	if notification.Message != rule.Message || notification.Priority != rule.Priority {
		t.Fatalf("expected message/priority snapshot, got %+v", notification)
	}
	if notification.Reading != reading {
		t.Fatalf("expected reading copy, got %+v", notification.Reading)
	}
	if !notification.Timestamp.Equal(now) || notification.Read {
		t.Fatalf("expected unread notification stamped at creation time")
	}
}

func TestBuildNotificationIDDeterministic(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := BuildNotificationID("rule-1", "reading-1", at)
	if second := BuildNotificationID("rule-1", "reading-1", at); second != first {
		t.Fatalf("expected deterministic id, got %q vs %q", first, second)
	}
	if other := BuildNotificationID("rule-1", "reading-1", at.Add(time.Nanosecond)); other == first {
		t.Fatalf("expected creation time to disambiguate ids")
	}
}

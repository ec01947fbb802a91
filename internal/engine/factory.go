package engine

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"sensorwatch/internal/clock"
	"sensorwatch/internal/domain"
)

// LogView provides read access to emitted notifications for dedup checks.
// Params: rule/reading pair lookup.
// Returns: most recent emission time for the pair.
type LogView interface {
	LastEmitted(ruleID, readingID string) (time.Time, bool)
}

// Factory decides whether a triggered rule emits a new notification.
// Params: dedup window, clock, and read-only log view.
// Returns: side-effect-free notification construction with dedup suppression.
type Factory struct {
	window time.Duration
	clock  clock.Clock
	log    LogView
}

// NewFactory creates notification factory.
// Params: sliding dedup window, clock, and log view for prior emissions.
// Returns: initialized factory.
func NewFactory(window time.Duration, clk clock.Clock, log LogView) *Factory {
	return &Factory{window: window, clock: clk, log: log}
}

// Outcome classifies one Consider decision.
// Params: no-match/suppressed/emitted constants.
// Returns: decision kind for metrics and control flow.
type Outcome int

const (
	// OutcomeNoMatch means the rule condition did not match the reading.
	OutcomeNoMatch Outcome = iota
	// OutcomeSuppressed means the condition matched but the dedup window
	// blocked a repeat emission.
	OutcomeSuppressed
	// OutcomeEmitted means a new notification was constructed.
	OutcomeEmitted
)

// Consider evaluates rule against reading and applies the dedup window.
// Params: rule and reading; caller must skip disabled rules before calling.
// Returns: new notification snapshot with OutcomeEmitted, or zero value with
// OutcomeNoMatch/OutcomeSuppressed. The window boundary is exclusive on the
// old side: exactly window-elapsed emits again.
func (f *Factory) Consider(rule domain.Rule, reading domain.Reading) (domain.Notification, Outcome) {
	if !Evaluate(rule, reading) {
		return domain.Notification{}, OutcomeNoMatch
	}

	now := f.clock.Now()
	if last, ok := f.log.LastEmitted(rule.ID, reading.ID); ok && now.Sub(last) < f.window {
		return domain.Notification{}, OutcomeSuppressed
	}

	return domain.Notification{
		ID:        BuildNotificationID(rule.ID, reading.ID, now),
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Message:   rule.Message,
		Priority:  rule.Priority,
		Timestamp: now,
		Reading:   reading,
		Read:      false,
	}, OutcomeEmitted
}

// BuildNotificationID creates deterministic id for one emitted notification.
// Params: firing rule id, triggering reading id, and creation time.
// Returns: stable SHA1-based id unique even under rapid repeated firing.
func BuildNotificationID(ruleID, readingID string, createdAt time.Time) string {
	raw := fmt.Sprintf("%s|%s|%d", ruleID, readingID, createdAt.UnixNano())
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

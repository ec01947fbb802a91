package domain

import "time"

// Notification is one emitted alert record.
// Params: deterministic id, rule snapshot fields, and triggering reading copy.
// Returns: persisted log entry; rule edits never change historical entries.
type Notification struct {
	ID        string    `json:"id"`
	RuleID    string    `json:"rule_id"`
	RuleName  string    `json:"rule_name"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
	Reading   Reading   `json:"reading"`
	Read      bool      `json:"read"`
}

// NotificationStats aggregates notification log counters.
// Params: totals plus per-priority breakdown.
// Returns: stats snapshot for dashboard badges.
type NotificationStats struct {
	Total      int              `json:"total"`
	Unread     int              `json:"unread"`
	ByPriority map[Priority]int `json:"by_priority"`
}

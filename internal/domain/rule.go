package domain

// RuleField selects which reading attribute a rule compares.
// Params: tagged field constants with exhaustive dispatch in the evaluator.
// Returns: typed field selector replacing free-form attribute tags.
type RuleField string

const (
	// FieldTemperature compares against Reading.Temperature.
	FieldTemperature RuleField = "temperature"
	// FieldHumidity compares against Reading.Humidity.
	FieldHumidity RuleField = "humidity"
	// FieldStatus compares against Reading.Status.
	FieldStatus RuleField = "status"
	// FieldActuator compares against Reading.ActuatorState.
	FieldActuator RuleField = "actuator"
)

// RuleOperator is comparison operator applied between reading value and threshold.
// Params: numeric and string operator constants.
// Returns: operator value validated per field type.
type RuleOperator string

const (
	// OpGreaterThan matches when numeric value exceeds threshold.
	OpGreaterThan RuleOperator = "greater_than"
	// OpLessThan matches when numeric value is below threshold.
	OpLessThan RuleOperator = "less_than"
	// OpEquals matches on exact equality (numeric or normalized string).
	OpEquals RuleOperator = "equals"
	// OpNotEquals matches on inequality (numeric or normalized string).
	OpNotEquals RuleOperator = "not_equals"
	// OpContains matches on case-insensitive substring (string fields only).
	OpContains RuleOperator = "contains"
	// OpNotContains matches on absent case-insensitive substring (string fields only).
	OpNotContains RuleOperator = "not_contains"
)

// Priority is ordinal rule severity used for aggregation and display only.
// Params: low/medium/high/critical constants.
// Returns: severity copied into emitted notifications.
type Priority string

const (
	// PriorityLow is informational severity.
	PriorityLow Priority = "low"
	// PriorityMedium is default operational severity.
	PriorityMedium Priority = "medium"
	// PriorityHigh is elevated severity.
	PriorityHigh Priority = "high"
	// PriorityCritical is highest severity requiring sustained visibility.
	PriorityCritical Priority = "critical"
)

// Priorities lists known priorities in ascending severity order.
// Params: none.
// Returns: fresh priority slice for stats/display iteration.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

var supportedOperators = map[RuleField]map[RuleOperator]struct{}{
	FieldTemperature: {
		OpGreaterThan: {},
		OpLessThan:    {},
		OpEquals:      {},
		OpNotEquals:   {},
	},
	FieldHumidity: {
		OpGreaterThan: {},
		OpLessThan:    {},
		OpEquals:      {},
		OpNotEquals:   {},
	},
	FieldStatus: {
		OpContains:    {},
		OpNotContains: {},
		OpEquals:      {},
		OpNotEquals:   {},
	},
	FieldActuator: {
		OpContains:    {},
		OpNotContains: {},
		OpEquals:      {},
		OpNotEquals:   {},
	},
}

// NumericField reports whether field carries a numeric reading value.
// Params: field selector.
// Returns: true for temperature/humidity.
func NumericField(field RuleField) bool {
	return field == FieldTemperature || field == FieldHumidity
}

// KnownField reports whether field is one of the supported selectors.
// Params: field selector.
// Returns: true when field has an operator set.
func KnownField(field RuleField) bool {
	_, ok := supportedOperators[field]
	return ok
}

// SupportedOperator reports whether operator is legal for field's type.
// Params: field selector and candidate operator.
// Returns: true only for legal combinations; illegal ones fail closed downstream.
func SupportedOperator(field RuleField, op RuleOperator) bool {
	ops, ok := supportedOperators[field]
	if !ok {
		return false
	}
	_, ok = ops[op]
	return ok
}

// Rule is one user-authored monitoring condition.
// Params: stable id, comparison selector, threshold, and notification metadata.
// Returns: persisted rule record evaluated against readings.
type Rule struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Field       RuleField    `json:"field"`
	Operator    RuleOperator `json:"operator"`
	NumberValue float64      `json:"number_value,omitempty"`
	StringValue string       `json:"string_value,omitempty"`
	Enabled     bool         `json:"enabled"`
	Priority    Priority     `json:"priority"`
	Message     string       `json:"message"`
}

// RulePatch carries optional field updates for one existing rule.
// Params: nil pointers mean "leave unchanged".
// Returns: partial update applied by the rule store.
type RulePatch struct {
	Name        *string
	Field       *RuleField
	Operator    *RuleOperator
	NumberValue *float64
	StringValue *string
	Enabled     *bool
	Priority    *Priority
	Message     *string
}

// Apply merges non-nil patch fields into rule copy.
// Params: source rule value.
// Returns: patched rule; id is never overwritten.
func (p RulePatch) Apply(rule Rule) Rule {
	if p.Name != nil {
		rule.Name = *p.Name
	}
	if p.Field != nil {
		rule.Field = *p.Field
	}
	if p.Operator != nil {
		rule.Operator = *p.Operator
	}
	if p.NumberValue != nil {
		rule.NumberValue = *p.NumberValue
	}
	if p.StringValue != nil {
		rule.StringValue = *p.StringValue
	}
	if p.Enabled != nil {
		rule.Enabled = *p.Enabled
	}
	if p.Priority != nil {
		rule.Priority = *p.Priority
	}
	if p.Message != nil {
		rule.Message = *p.Message
	}
	return rule
}

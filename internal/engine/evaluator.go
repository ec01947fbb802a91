package engine

import (
	"strings"

	"sensorwatch/internal/domain"
)

// Evaluate reports whether rule condition matches one reading.
// Params: rule and reading; rule.Enabled is the caller's responsibility,
// Evaluate itself is unconditional.
// Returns: true on match; illegal field/operator combinations fail closed.
func Evaluate(rule domain.Rule, reading domain.Reading) bool {
	if !domain.SupportedOperator(rule.Field, rule.Operator) {
		return false
	}

	switch rule.Field {
	case domain.FieldTemperature:
		return evalNumeric(rule.Operator, reading.Temperature, rule.NumberValue)
	case domain.FieldHumidity:
		return evalNumeric(rule.Operator, reading.Humidity, rule.NumberValue)
	case domain.FieldStatus:
		return evalString(rule.Operator, string(reading.Status), rule.StringValue)
	case domain.FieldActuator:
		return evalString(rule.Operator, reading.ActuatorState, rule.StringValue)
	default:
		return false
	}
}

// evalNumeric applies numeric operator to actual/threshold pair.
// Params: operator, actual reading value, and rule threshold.
// Returns: comparison result; equality is exact, no epsilon tolerance.
func evalNumeric(op domain.RuleOperator, actual, threshold float64) bool {
	switch op {
	case domain.OpGreaterThan:
		return actual > threshold
	case domain.OpLessThan:
		return actual < threshold
	case domain.OpEquals:
		return actual == threshold
	case domain.OpNotEquals:
		return actual != threshold
	default:
		return false
	}
}

// evalString applies string operator after case-insensitive normalization.
// Params: operator, actual reading value, and rule threshold.
// Returns: comparison result over lower-cased operands.
func evalString(op domain.RuleOperator, actual, threshold string) bool {
	actualLower := strings.ToLower(actual)
	thresholdLower := strings.ToLower(threshold)

	switch op {
	case domain.OpContains:
		return strings.Contains(actualLower, thresholdLower)
	case domain.OpNotContains:
		return !strings.Contains(actualLower, thresholdLower)
	case domain.OpEquals:
		return actualLower == thresholdLower
	case domain.OpNotEquals:
		return actualLower != thresholdLower
	default:
		return false
	}
}

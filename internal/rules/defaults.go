package rules

import "sensorwatch/internal/domain"

// DefaultRules returns the seed rule set installed on first run.
// Params: none.
// Returns: fresh copies of the shipped monitoring rules; thresholds and
// messages match the dashboard's original out-of-the-box set.
func DefaultRules() []domain.Rule {
	return []domain.Rule{
		{
			ID:          "default-temp-high",
			Name:        "Temperatura Alta",
			Field:       domain.FieldTemperature,
			Operator:    domain.OpGreaterThan,
			NumberValue: 30,
			Enabled:     true,
			Priority:    domain.PriorityMedium,
			Message:     "¡Temperatura alta detectada! La temperatura ha superado los 30°C.",
		},
		{
			ID:          "default-temp-critical",
			Name:        "Temperatura Crítica",
			Field:       domain.FieldTemperature,
			Operator:    domain.OpGreaterThan,
			NumberValue: 35,
			Enabled:     true,
			Priority:    domain.PriorityCritical,
			Message:     "¡Temperatura crítica! La temperatura ha superado los 35°C. Verificar sistema de refrigeración.",
		},
		{
			ID:          "default-humidity-high",
			Name:        "Humedad Alta",
			Field:       domain.FieldHumidity,
			Operator:    domain.OpGreaterThan,
			NumberValue: 80,
			Enabled:     true,
			Priority:    domain.PriorityHigh,
			Message:     "¡Humedad alta detectada! La humedad ha superado el 80%.",
		},
		{
			ID:          "default-status-critical",
			Name:        "Estado Crítico",
			Field:       domain.FieldStatus,
			Operator:    domain.OpEquals,
			StringValue: string(domain.StatusCritical),
			Enabled:     true,
			Priority:    domain.PriorityCritical,
			Message:     "¡Estado crítico detectado! El sensor está en estado crítico.",
		},
		{
			ID:          "default-temp-extreme",
			Name:        "Temperatura Extrema",
			Field:       domain.FieldTemperature,
			Operator:    domain.OpGreaterThan,
			NumberValue: 40,
			Enabled:     true,
			Priority:    domain.PriorityCritical,
			Message:     "¡TEMPERATURA EXTREMA! La temperatura ha superado los 40°C. Acción inmediata requerida.",
		},
		{
			ID:          "default-humidity-extreme",
			Name:        "Humedad Extrema",
			Field:       domain.FieldHumidity,
			Operator:    domain.OpGreaterThan,
			NumberValue: 90,
			Enabled:     true,
			Priority:    domain.PriorityCritical,
			Message:     "¡HUMEDAD EXTREMA! La humedad ha superado el 90%. Riesgo de condensación.",
		},
		{
			ID:          "default-temp-low",
			Name:        "Temperatura Baja",
			Field:       domain.FieldTemperature,
			Operator:    domain.OpLessThan,
			NumberValue: 10,
			Enabled:     true,
			Priority:    domain.PriorityMedium,
			Message:     "¡Temperatura baja detectada! La temperatura ha bajado de 10°C.",
		},
	}
}

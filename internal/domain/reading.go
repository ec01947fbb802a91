package domain

import "time"

// ReadingStatus is categorical sensor condition reported by the feed.
// Params: normalized status constants.
// Returns: status value used by string-typed rule conditions.
type ReadingStatus string

const (
	// StatusNormal indicates reading inside nominal range.
	StatusNormal ReadingStatus = "normal"
	// StatusCold indicates below-range temperature condition.
	StatusCold ReadingStatus = "cold"
	// StatusHot indicates above-range temperature condition.
	StatusHot ReadingStatus = "hot"
	// StatusCritical indicates out-of-bounds condition requiring action.
	StatusCritical ReadingStatus = "critical"
	// StatusLow indicates below-range humidity condition.
	StatusLow ReadingStatus = "low"
	// StatusHigh indicates above-range humidity condition.
	StatusHigh ReadingStatus = "high"
)

// ActuatorNone is sentinel actuator value meaning no actuator is active.
const ActuatorNone = "none"

// Reading is one immutable sensor sample from the remote feed.
// Params: upstream identity, capture timestamp, and measured attributes.
// Returns: evaluation input consumed by rule engine.
type Reading struct {
	ID            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	Temperature   float64       `json:"temperature"`
	Humidity      float64       `json:"humidity"`
	Status        ReadingStatus `json:"status"`
	ActuatorState string        `json:"actuator_state"`
}

// SensorStats aggregates one reading set for dashboard summaries.
// Params: totals, averages, and categorical distributions.
// Returns: derived statistics snapshot.
type SensorStats struct {
	TotalReadings        int            `json:"total_readings"`
	AvgTemperature       float64        `json:"avg_temperature"`
	AvgHumidity          float64        `json:"avg_humidity"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	ActuatorDistribution map[string]int `json:"actuator_distribution"`
}

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"sensorwatch/internal/config"
	"sensorwatch/internal/domain"
)

const maxResponseBytes = 8 << 20

// statusByEstado maps the upstream Spanish status vocabulary onto the
// normalized reading status enum.
var statusByEstado = map[string]domain.ReadingStatus{
	"normal":   domain.StatusNormal,
	"frio":     domain.StatusCold,
	"caliente": domain.StatusHot,
	"critico":  domain.StatusCritical,
	"bajo":     domain.StatusLow,
	"alto":     domain.StatusHigh,
}

// apiReading mirrors one row of the remote sensor API wire schema.
// Params: upstream field names as served by the feed.
// Returns: decode target mapped into domain.Reading.
type apiReading struct {
	ID          string  `json:"_id"`
	Fecha       string  `json:"fecha"`
	Temperatura float64 `json:"temperatura"`
	Humedad     float64 `json:"humedad"`
	Estado      string  `json:"estado"`
	Actuador    string  `json:"actuador"`
}

// Client fetches sensor readings from the remote HTTP API.
// Params: base URL, request timeout, and logger.
// Returns: inbound data feed for the polling driver.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates sensor feed client.
// Params: api config section and logger.
// Returns: initialized client.
func NewClient(cfg config.APIConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		logger:  logger,
	}
}

// Readings fetches all sensor rows sorted newest-first.
// Params: request context.
// Returns: decoded readings or transport/decode error.
func (c *Client) Readings(ctx context.Context) ([]domain.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sensors", nil)
	if err != nil {
		return nil, fmt.Errorf("build sensors request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sensors: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sensors: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read sensors response: %w", err)
	}

	var rows []apiReading
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode sensors response: %w", err)
	}

	readings := make([]domain.Reading, 0, len(rows))
	for _, row := range rows {
		reading, err := row.toReading()
		if err != nil {
			c.logger.Warn("skipping malformed sensor row", "id", row.ID, "error", err.Error())
			continue
		}
		readings = append(readings, reading)
	}
	sortNewestFirst(readings)
	return readings, nil
}

// Latest fetches the most recent reading.
// Params: request context.
// Returns: newest reading, existence flag, and fetch error.
func (c *Client) Latest(ctx context.Context) (domain.Reading, bool, error) {
	readings, err := c.Readings(ctx)
	if err != nil {
		return domain.Reading{}, false, err
	}
	if len(readings) == 0 {
		return domain.Reading{}, false, nil
	}
	return readings[0], true, nil
}

// toReading maps one wire row into a domain reading.
// Params: none.
// Returns: domain reading or timestamp parse error.
func (r apiReading) toReading() (domain.Reading, error) {
	if r.ID == "" {
		return domain.Reading{}, fmt.Errorf("missing _id")
	}
	at, err := parseFecha(r.Fecha)
	if err != nil {
		return domain.Reading{}, err
	}

	estado := strings.ToLower(strings.TrimSpace(r.Estado))
	status, ok := statusByEstado[estado]
	if !ok {
		status = domain.ReadingStatus(estado)
	}

	actuator := strings.TrimSpace(r.Actuador)
	if actuator == "" {
		actuator = domain.ActuatorNone
	}

	return domain.Reading{
		ID:            r.ID,
		Timestamp:     at,
		Temperature:   r.Temperatura,
		Humidity:      r.Humedad,
		Status:        status,
		ActuatorState: actuator,
	}, nil
}

// parseFecha parses upstream capture timestamps.
// Params: raw fecha string.
// Returns: parsed time or error after trying known layouts.
func parseFecha(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable fecha %q", raw)
}

// sortNewestFirst orders readings by timestamp descending.
// Params: mutable reading slice.
// Returns: slice sorted in place, stable under equal timestamps.
func sortNewestFirst(readings []domain.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})
}

// LatestN returns up to count newest readings from an already-sorted set.
// Params: newest-first readings and result cap.
// Returns: prefix slice copy.
func LatestN(readings []domain.Reading, count int) []domain.Reading {
	if count <= 0 || count > len(readings) {
		count = len(readings)
	}
	return append([]domain.Reading(nil), readings[:count]...)
}

// InRange filters readings to the inclusive [start, end] capture window.
// Params: readings and window bounds.
// Returns: matching readings in input order.
func InRange(readings []domain.Reading, start, end time.Time) []domain.Reading {
	out := make([]domain.Reading, 0, len(readings))
	for _, reading := range readings {
		if reading.Timestamp.Before(start) || reading.Timestamp.After(end) {
			continue
		}
		out = append(out, reading)
	}
	return out
}

// CalculateStats aggregates one reading set for dashboard summaries.
// Params: reading slice.
// Returns: totals, one-decimal averages, and categorical distributions.
func CalculateStats(readings []domain.Reading) domain.SensorStats {
	stats := domain.SensorStats{
		StatusDistribution:   make(map[string]int),
		ActuatorDistribution: make(map[string]int),
	}
	if len(readings) == 0 {
		return stats
	}

	var tempSum, humiditySum float64
	for _, reading := range readings {
		tempSum += reading.Temperature
		humiditySum += reading.Humidity
		stats.StatusDistribution[string(reading.Status)]++
		stats.ActuatorDistribution[reading.ActuatorState]++
	}
	total := float64(len(readings))
	stats.TotalReadings = len(readings)
	stats.AvgTemperature = math.Round(tempSum/total*10) / 10
	stats.AvgHumidity = math.Round(humiditySum/total*10) / 10
	return stats
}

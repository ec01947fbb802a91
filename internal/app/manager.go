package app

import (
	"context"
	"log/slog"

	"sensorwatch/internal/domain"
	"sensorwatch/internal/engine"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/notiflog"
	"sensorwatch/internal/notify"
	"sensorwatch/internal/rules"
)

// Manager coordinates rule evaluation, log persistence, and delivery.
// Params: rule store, notification factory, notification log, dispatcher, logger.
// Returns: evaluation batch sink for the polling driver.
type Manager struct {
	logger     *slog.Logger
	rules      *rules.Store
	factory    *engine.Factory
	log        *notiflog.Log
	dispatcher *notify.Dispatcher
}

// NewManager creates manager from constructed dependencies.
// Params: rule store, factory, notification log, dispatcher, and logger.
// Returns: initialized manager.
func NewManager(ruleStore *rules.Store, factory *engine.Factory, log *notiflog.Log, dispatcher *notify.Dispatcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:     logger,
		rules:      ruleStore,
		factory:    factory,
		log:        log,
		dispatcher: dispatcher,
	}
}

// EvaluateBatch evaluates all enabled rules against each reading.
// Params: context and reading batch; disabled rules are skipped here, the
// evaluator itself stays unconditional.
// Returns: first persistence error; delivery failures never propagate.
func (m *Manager) EvaluateBatch(ctx context.Context, readings []domain.Reading) error {
	ruleList := m.rules.List()
	for _, reading := range readings {
		for _, rule := range ruleList {
			if !rule.Enabled {
				continue
			}
			metrics.RuleEvaluationsTotal.Inc()

			notification, outcome := m.factory.Consider(rule, reading)
			switch outcome {
			case engine.OutcomeNoMatch:
				continue
			case engine.OutcomeSuppressed:
				metrics.NotificationsSuppressedTotal.Inc()
				m.logger.Debug("duplicate notification suppressed",
					"rule", rule.Name, "reading", reading.ID)
				continue
			}

			if err := m.log.Append(notification); err != nil {
				return err
			}
			m.logger.Info("notification emitted",
				"rule", rule.Name, "priority", string(rule.Priority), "reading", reading.ID)
			m.dispatcher.Deliver(ctx, notification)
		}
	}
	return nil
}

// EvaluateReading evaluates all enabled rules against one reading.
// Params: context and single reading.
// Returns: first persistence error.
func (m *Manager) EvaluateReading(ctx context.Context, reading domain.Reading) error {
	return m.EvaluateBatch(ctx, []domain.Reading{reading})
}

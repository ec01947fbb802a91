package storage

import "sensorwatch/internal/domain"

// Store provides persistence for dashboard state blobs.
// Params: rule list, notification log, and operator settings round-trips.
// Returns: backend persistence behavior; found=false means no usable state.
type Store interface {
	LoadRules() ([]domain.Rule, bool, error)
	SaveRules(rules []domain.Rule) error
	LoadNotifications() ([]domain.Notification, bool, error)
	SaveNotifications(notifications []domain.Notification) error
	LoadSettings() (domain.Settings, bool, error)
	SaveSettings(settings domain.Settings) error
	Close() error
}

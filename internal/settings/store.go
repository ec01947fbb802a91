package settings

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sensorwatch/internal/domain"
	"sensorwatch/internal/storage"
)

// Listener receives settings snapshots after every update.
// Params: new settings value.
// Returns: subscriber for runtime reconfiguration (poll interval changes).
type Listener interface {
	OnSettingsChanged(settings domain.Settings)
}

// Store owns the persisted operator settings blob.
// Params: storage backend, logger, and initial defaults.
// Returns: single writer for the settings blob with change fan-out.
type Store struct {
	mu        sync.RWMutex
	store     storage.Store
	logger    *slog.Logger
	settings  domain.Settings
	listeners []Listener
}

// NewStore creates settings store and loads persisted settings.
// Params: storage backend, logger, and defaults used when no blob exists.
// Returns: initialized store or load error.
func NewStore(backend storage.Store, logger *slog.Logger, defaults domain.Settings) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	settings, found, err := backend.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !found {
		settings = defaults
	}
	if settings.RefreshIntervalSeconds <= 0 {
		settings.RefreshIntervalSeconds = defaults.RefreshIntervalSeconds
	}
	return &Store{store: backend, logger: logger, settings: settings}, nil
}

// Get returns current settings snapshot.
// Params: none.
// Returns: settings copy.
func (s *Store) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// RefreshInterval returns the polling interval as a duration.
// Params: none.
// Returns: interval derived from RefreshIntervalSeconds.
func (s *Store) RefreshInterval() time.Duration {
	return time.Duration(s.Get().RefreshIntervalSeconds) * time.Second
}

// Update replaces settings, persists, and notifies listeners.
// Params: new settings value; non-positive interval is rejected.
// Returns: validation or persistence error.
func (s *Store) Update(settings domain.Settings) error {
	if settings.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("refresh interval %d must be positive", settings.RefreshIntervalSeconds)
	}

	s.mu.Lock()
	s.settings = settings
	if err := s.store.SaveSettings(settings); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist settings: %w", err)
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener.OnSettingsChanged(settings)
	}
	return nil
}

// AddListener registers one settings change subscriber.
// Params: listener implementation.
// Returns: none.
func (s *Store) AddListener(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// RemoveListener deregisters one previously added subscriber.
// Params: listener identity to remove.
// Returns: none; unknown listeners are ignored.
func (s *Store) RemoveListener(listener Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.listeners[:0]
	for _, existing := range s.listeners {
		if existing == listener {
			continue
		}
		kept = append(kept, existing)
	}
	s.listeners = kept
}

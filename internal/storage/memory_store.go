package storage

import (
	"sync"

	"sensorwatch/internal/domain"
)

// MemoryStore keeps state blobs in process memory for tests and dry runs.
// Params: in-memory copies of each blob with found markers.
// Returns: store implementation without filesystem dependencies.
type MemoryStore struct {
	mu               sync.Mutex
	rules            []domain.Rule
	hasRules         bool
	notifications    []domain.Notification
	hasNotifications bool
	settings         domain.Settings
	hasSettings      bool

	// SaveErr forces the next save to fail; used to test persistence failures.
	SaveErr error
}

// NewMemoryStore creates empty in-memory state store.
// Params: none.
// Returns: initialized store with no persisted blobs.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadRules returns stored rule copy.
// Params: none.
// Returns: rules, found flag, nil.
func (s *MemoryStore) LoadRules() ([]domain.Rule, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Rule(nil), s.rules...), s.hasRules, nil
}

// SaveRules stores rule copy.
// Params: rule slice.
// Returns: forced SaveErr or nil.
func (s *MemoryStore) SaveRules(rules []domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.rules = append([]domain.Rule(nil), rules...)
	s.hasRules = true
	return nil
}

// LoadNotifications returns stored notification copy.
// Params: none.
// Returns: notifications, found flag, nil.
func (s *MemoryStore) LoadNotifications() ([]domain.Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...), s.hasNotifications, nil
}

// SaveNotifications stores notification copy.
// Params: notification slice.
// Returns: forced SaveErr or nil.
func (s *MemoryStore) SaveNotifications(notifications []domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.notifications = append([]domain.Notification(nil), notifications...)
	s.hasNotifications = true
	return nil
}

// LoadSettings returns stored settings.
// Params: none.
// Returns: settings, found flag, nil.
func (s *MemoryStore) LoadSettings() (domain.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, s.hasSettings, nil
}

// SaveSettings stores settings snapshot.
// Params: settings value.
// Returns: forced SaveErr or nil.
func (s *MemoryStore) SaveSettings(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.settings = settings
	s.hasSettings = true
	return nil
}

// Close releases memory store resources.
// Params: none.
// Returns: nil.
func (s *MemoryStore) Close() error {
	return nil
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"sensorwatch/internal/domain"
)

const (
	rulesFile         = "rules.json"
	notificationsFile = "notifications.json"
	settingsFile      = "settings.json"
)

// FileStore keeps state blobs as JSON files in one directory.
// Params: state directory and logger for corrupt-blob warnings.
// Returns: store implementation backed by local files.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

// NewFileStore creates file store and ensures the state directory exists.
// Params: state directory path and logger.
// Returns: initialized store or directory creation error.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %q: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// LoadRules reads persisted rule list.
// Params: none.
// Returns: rules, found flag, and read error; corrupt blob yields found=false.
func (s *FileStore) LoadRules() ([]domain.Rule, bool, error) {
	var rules []domain.Rule
	found, err := s.load(rulesFile, &rules)
	return rules, found, err
}

// SaveRules writes full rule list atomically.
// Params: rule slice to persist.
// Returns: write error.
func (s *FileStore) SaveRules(rules []domain.Rule) error {
	return s.save(rulesFile, rules)
}

// LoadNotifications reads persisted notification log.
// Params: none.
// Returns: notifications, found flag, and read error; corrupt blob yields found=false.
func (s *FileStore) LoadNotifications() ([]domain.Notification, bool, error) {
	var notifications []domain.Notification
	found, err := s.load(notificationsFile, &notifications)
	return notifications, found, err
}

// SaveNotifications writes full notification log atomically.
// Params: notification slice to persist.
// Returns: write error.
func (s *FileStore) SaveNotifications(notifications []domain.Notification) error {
	return s.save(notificationsFile, notifications)
}

// LoadSettings reads persisted operator settings.
// Params: none.
// Returns: settings, found flag, and read error; corrupt blob yields found=false.
func (s *FileStore) LoadSettings() (domain.Settings, bool, error) {
	var settings domain.Settings
	found, err := s.load(settingsFile, &settings)
	return settings, found, err
}

// SaveSettings writes operator settings atomically.
// Params: settings snapshot to persist.
// Returns: write error.
func (s *FileStore) SaveSettings(settings domain.Settings) error {
	return s.save(settingsFile, settings)
}

// Close releases file store resources.
// Params: none.
// Returns: nil.
func (s *FileStore) Close() error {
	return nil
}

// load reads one JSON blob into out.
// Params: file name under state dir and decode target.
// Returns: found flag and read error; decode failures log and report found=false.
func (s *FileStore) load(name string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read state blob %q: %w", name, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		s.logger.Warn("state blob is corrupt, falling back to empty state",
			"file", name, "error", err.Error())
		return false, nil
	}
	return true, nil
}

// save writes one JSON blob via temp file and rename.
// Params: file name under state dir and value to encode.
// Returns: encode or write error.
func (s *FileStore) save(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state blob %q: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write state blob %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state blob %q: %w", name, err)
	}
	return nil
}

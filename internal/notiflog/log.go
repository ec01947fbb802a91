package notiflog

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"sensorwatch/internal/domain"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/storage"
)

// Listener receives emitted notifications synchronously on append.
// Params: notification snapshot.
// Returns: fan-out subscriber for UI/ops refresh.
type Listener interface {
	OnNotification(notification domain.Notification)
}

// Log owns the persisted, ordered notification list.
// Params: storage backend, logger, and optional entry cap.
// Returns: single writer for the notification blob with listener fan-out.
type Log struct {
	mu         sync.RWMutex
	store      storage.Store
	logger     *slog.Logger
	maxEntries int
	entries    []domain.Notification
	listeners  []Listener
}

// NewLog creates notification log and loads persisted entries.
// Params: storage backend, logger, and max entry cap (0 disables the cap).
// Returns: initialized log or load error; corrupt state starts empty.
func NewLog(store storage.Store, logger *slog.Logger, maxEntries int) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, found, err := store.LoadNotifications()
	if err != nil {
		return nil, fmt.Errorf("load notification log: %w", err)
	}
	if !found {
		entries = nil
	}
	return &Log{
		store:      store,
		logger:     logger,
		maxEntries: maxEntries,
		entries:    entries,
	}, nil
}

// Append adds one notification, persists, and fans out to listeners.
// Params: notification snapshot from the factory.
// Returns: persistence error; fan-out happens only after a successful persist.
func (l *Log) Append(notification domain.Notification) error {
	l.mu.Lock()
	l.entries = append(l.entries, notification)
	l.enforceCapLocked()
	if err := l.persistLocked(); err != nil {
		l.mu.Unlock()
		return err
	}
	listeners := append([]Listener(nil), l.listeners...)
	l.mu.Unlock()

	// Fan-out outside the lock so a subscriber cannot reenter the log
	// during its own mutation.
	for _, listener := range listeners {
		l.notifyOne(listener, notification)
	}
	metrics.NotificationsEmittedTotal.WithLabelValues(string(notification.Priority)).Inc()
	return nil
}

// notifyOne invokes one listener with panic isolation.
// Params: listener and notification snapshot.
// Returns: none; panics are recovered and logged.
func (l *Log) notifyOne(listener Listener, notification domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ListenerPanicsTotal.Inc()
			l.logger.Error("notification listener panicked", "panic", fmt.Sprint(r))
		}
	}()
	listener.OnNotification(notification)
}

// List returns notifications sorted by timestamp descending.
// Params: none.
// Returns: detached copy, stable by insertion order under equal timestamps.
func (l *Log) List() []domain.Notification {
	l.mu.RLock()
	out := append([]domain.Notification(nil), l.entries...)
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// MarkRead marks one notification as read and persists.
// Params: notification id.
// Returns: persistence error; missing id is a no-op.
func (l *Log) MarkRead(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := false
	for i := range l.entries {
		if l.entries[i].ID == id && !l.entries[i].Read {
			l.entries[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return l.persistLocked()
}

// MarkAllRead marks every notification as read and persists.
// Params: none.
// Returns: persistence error.
func (l *Log) MarkAllRead() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := false
	for i := range l.entries {
		if !l.entries[i].Read {
			l.entries[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return l.persistLocked()
}

// Delete removes one notification and persists.
// Params: notification id.
// Returns: persistence error; missing id is a no-op.
func (l *Log) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	removed := false
	for _, entry := range l.entries {
		if entry.ID == id {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	l.entries = kept
	if !removed {
		return nil
	}
	return l.persistLocked()
}

// ClearAll removes every notification and persists.
// Params: none.
// Returns: persistence error.
func (l *Log) ClearAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	return l.persistLocked()
}

// UnreadCount returns number of unread notifications.
// Params: none.
// Returns: unread counter.
func (l *Log) UnreadCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, entry := range l.entries {
		if !entry.Read {
			count++
		}
	}
	return count
}

// Stats returns aggregate counters over the log.
// Params: none.
// Returns: total, unread, and per-priority counts.
func (l *Log) Stats() domain.NotificationStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := domain.NotificationStats{
		Total:      len(l.entries),
		ByPriority: make(map[domain.Priority]int, 4),
	}
	for _, priority := range domain.Priorities() {
		stats.ByPriority[priority] = 0
	}
	for _, entry := range l.entries {
		if !entry.Read {
			stats.Unread++
		}
		stats.ByPriority[entry.Priority]++
	}
	return stats
}

// LastEmitted returns most recent emission time for one rule/reading pair.
// Params: rule id and reading id.
// Returns: latest creation time and existence flag; used by dedup checks.
func (l *Log) LastEmitted(ruleID, readingID string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var last time.Time
	found := false
	for _, entry := range l.entries {
		if entry.RuleID != ruleID || entry.Reading.ID != readingID {
			continue
		}
		if !found || entry.Timestamp.After(last) {
			last = entry.Timestamp
			found = true
		}
	}
	return last, found
}

// AddListener registers one fan-out subscriber.
// Params: listener implementation; must be a comparable value (typically a
// struct pointer) so RemoveListener can match it by identity.
// Returns: none.
func (l *Log) AddListener(listener Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, listener)
}

// RemoveListener deregisters one previously added subscriber.
// Params: listener identity to remove.
// Returns: none; unknown listeners are ignored.
func (l *Log) RemoveListener(listener Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.listeners[:0]
	for _, existing := range l.listeners {
		if existing == listener {
			continue
		}
		kept = append(kept, existing)
	}
	l.listeners = kept
}

// enforceCapLocked drops oldest entries above the configured cap.
// Params: none; caller holds the write lock.
// Returns: none; cap 0 keeps the log unbounded.
func (l *Log) enforceCapLocked() {
	if l.maxEntries <= 0 || len(l.entries) <= l.maxEntries {
		return
	}
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Timestamp.Before(l.entries[j].Timestamp)
	})
	l.entries = append([]domain.Notification(nil), l.entries[len(l.entries)-l.maxEntries:]...)
}

// persistLocked writes full entry list synchronously.
// Params: none; caller holds the write lock.
// Returns: storage error.
func (l *Log) persistLocked() error {
	if err := l.store.SaveNotifications(l.entries); err != nil {
		return fmt.Errorf("persist notification log: %w", err)
	}
	return nil
}

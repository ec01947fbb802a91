package settings

import (
	"testing"
	"time"

	"sensorwatch/internal/domain"
	"sensorwatch/internal/storage"
)

type recordingListener struct {
	changes []domain.Settings
}

func (l *recordingListener) OnSettingsChanged(settings domain.Settings) {
	l.changes = append(l.changes, settings)
}

func TestNewStoreUsesDefaultsWhenEmpty(t *testing.T) {
	t.Parallel()

	defaults := domain.Settings{AutoRefresh: true, RefreshIntervalSeconds: 30, MaxRecords: 1000}
	store, err := NewStore(storage.NewMemoryStore(), nil, defaults)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := store.Get(); got != defaults {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got := store.RefreshInterval(); got != 30*time.Second {
		t.Fatalf("refresh interval = %v, want 30s", got)
	}
}

func TestNewStorePrefersPersistedSettings(t *testing.T) {
	t.Parallel()

	backend := storage.NewMemoryStore()
	persisted := domain.Settings{AutoRefresh: false, RefreshIntervalSeconds: 120, MaxRecords: 50}
	if err := backend.SaveSettings(persisted); err != nil {
		t.Fatalf("save: %v", err)
	}

	store, err := NewStore(backend, nil, domain.DefaultSettings())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := store.Get(); got != persisted {
		t.Fatalf("expected persisted settings, got %+v", got)
	}
}

func TestNewStoreRepairsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	backend := storage.NewMemoryStore()
	if err := backend.SaveSettings(domain.Settings{AutoRefresh: true, RefreshIntervalSeconds: 0}); err != nil {
		t.Fatalf("save: %v", err)
	}

	store, err := NewStore(backend, nil, domain.DefaultSettings())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if got := store.Get().RefreshIntervalSeconds; got != domain.DefaultSettings().RefreshIntervalSeconds {
		t.Fatalf("expected repaired interval, got %d", got)
	}
}

func TestUpdatePersistsAndNotifies(t *testing.T) {
	t.Parallel()

	backend := storage.NewMemoryStore()
	store, err := NewStore(backend, nil, domain.DefaultSettings())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	listener := &recordingListener{}
	store.AddListener(listener)

	next := domain.Settings{AutoRefresh: false, RefreshIntervalSeconds: 60, MaxRecords: 200}
	if err := store.Update(next); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := store.Get(); got != next {
		t.Fatalf("settings not applied: %+v", got)
	}
	persisted, found, err := backend.LoadSettings()
	if err != nil || !found || persisted != next {
		t.Fatalf("settings not persisted: found=%v err=%v %+v", found, err, persisted)
	}
	if len(listener.changes) != 1 || listener.changes[0] != next {
		t.Fatalf("listener not notified: %+v", listener.changes)
	}
}

func TestUpdateRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	store, err := NewStore(storage.NewMemoryStore(), nil, domain.DefaultSettings())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	before := store.Get()

	if err := store.Update(domain.Settings{AutoRefresh: true, RefreshIntervalSeconds: 0}); err == nil {
		t.Fatalf("expected validation error")
	}
	if got := store.Get(); got != before {
		t.Fatalf("rejected update must not change settings: %+v", got)
	}
}

func TestRemoveListenerStopsNotifications(t *testing.T) {
	t.Parallel()

	store, err := NewStore(storage.NewMemoryStore(), nil, domain.DefaultSettings())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	listener := &recordingListener{}
	store.AddListener(listener)
	store.RemoveListener(listener)

	if err := store.Update(domain.Settings{AutoRefresh: true, RefreshIntervalSeconds: 45}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(listener.changes) != 0 {
		t.Fatalf("expected no notifications after removal")
	}
}

package notify

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"sensorwatch/internal/config"
	"sensorwatch/internal/domain"
	"sensorwatch/internal/permanent"

	"github.com/gen2brain/beeep"
)

// notifyFn abstracts the OS notification call for tests.
type notifyFn func(title, message, icon string) error

// DesktopSender shows OS desktop notifications for emitted alerts.
// Params: app identity, configured consent, and platform notify hooks.
// Returns: desktop delivery channel with a permission gate.
type DesktopSender struct {
	mu         sync.Mutex
	appName    string
	iconPath   string
	permission PermissionStatus
	notify     notifyFn
	alert      notifyFn
}

// NewDesktopSender creates desktop notification sender.
// Params: desktop channel config.
// Returns: initialized sender; permission starts from configured consent.
func NewDesktopSender(cfg config.DesktopNotifier) *DesktopSender {
	return &DesktopSender{
		appName:    cfg.AppName,
		iconPath:   cfg.IconPath,
		permission: PermissionStatus(cfg.Permission),
		notify:     beeep.Notify,
		alert:      beeep.Alert,
	}
}

// Channel returns sender channel name.
// Params: none.
// Returns: static channel key.
func (s *DesktopSender) Channel() string {
	return config.NotifyChannelDesktop
}

// Capability returns the sender's permission gate.
// Params: none.
// Returns: self; DesktopSender implements Capability directly.
func (s *DesktopSender) Capability() Capability {
	return s
}

// Supported reports whether the platform has a desktop notification surface.
// Params: none.
// Returns: true on desktop operating systems.
func (s *DesktopSender) Supported() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "windows", "freebsd", "openbsd", "netbsd":
		return true
	default:
		return false
	}
}

// PermissionStatus reports current consent state.
// Params: none.
// Returns: unsupported on headless platforms, else stored consent.
func (s *DesktopSender) PermissionStatus() PermissionStatus {
	if !s.Supported() {
		return PermissionUnsupported
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}

// RequestPermission asks for delivery consent.
// Params: context (desktop platforms resolve without user interaction).
// Returns: true when permission is granted; denied consent stays denied.
func (s *DesktopSender) RequestPermission(context.Context) (bool, error) {
	if !s.Supported() {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permission == PermissionDenied {
		return false, nil
	}
	s.permission = PermissionGranted
	return true, nil
}

// Send shows one desktop notification.
// Params: context (unused; the platform call is synchronous) and payload.
// Returns: platform error; critical priority uses the sustained alert surface.
func (s *DesktopSender) Send(_ context.Context, notification domain.Notification) error {
	if !s.Supported() {
		return permanent.Mark(fmt.Errorf("desktop notifications unsupported on %s", runtime.GOOS))
	}

	title := notification.RuleName
	if title == "" {
		title = s.appName
	}
	show := s.notify
	if notification.Priority == domain.PriorityCritical {
		// Alert requests sustained visibility (sound, no auto-dismiss)
		// where the platform supports it.
		show = s.alert
	}
	if err := show(title, notification.Message, s.iconPath); err != nil {
		return fmt.Errorf("desktop notify: %w", err)
	}
	return nil
}

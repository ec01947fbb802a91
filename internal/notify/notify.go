package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"sensorwatch/internal/config"
	"sensorwatch/internal/domain"
	"sensorwatch/internal/metrics"
	"sensorwatch/internal/permanent"
)

// PermissionStatus describes delivery capability consent state.
// Params: granted/denied/default/unsupported constants.
// Returns: capability state consumed by the dispatcher gate.
type PermissionStatus string

const (
	// PermissionGranted allows delivery.
	PermissionGranted PermissionStatus = "granted"
	// PermissionDenied blocks delivery by operator choice.
	PermissionDenied PermissionStatus = "denied"
	// PermissionDefault means consent was never decided; delivery is withheld.
	PermissionDefault PermissionStatus = "default"
	// PermissionUnsupported means the platform capability is unavailable.
	PermissionUnsupported PermissionStatus = "unsupported"
)

// Capability exposes platform support and consent state for one channel.
// Params: support probe, permission state, and permission request.
// Returns: delivery gate queried before every send.
type Capability interface {
	Supported() bool
	PermissionStatus() PermissionStatus
	RequestPermission(ctx context.Context) (bool, error)
}

// ChannelSender sends one outbound notification to one channel.
// Params: context and notification payload.
// Returns: transport error when send fails.
type ChannelSender interface {
	Channel() string
	Capability() Capability
	Send(ctx context.Context, notification domain.Notification) error
}

// Dispatcher delivers notifications best-effort with per-channel retries.
// Params: sender list and retry policies.
// Returns: fire-and-forget delivery layer; failures never reach the pipeline.
type Dispatcher struct {
	senders  map[string]ChannelSender
	channels []string
	retries  map[string]config.NotifyRetry
	logger   *slog.Logger
}

// NewDispatcher builds notification dispatcher from enabled channels.
// Params: notify config and logger.
// Returns: configured dispatcher with available senders.
func NewDispatcher(cfg config.NotifyConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	senders := make(map[string]ChannelSender)
	retries := make(map[string]config.NotifyRetry)
	if cfg.Desktop.Enabled {
		senders[config.NotifyChannelDesktop] = NewDesktopSender(cfg.Desktop)
		retries[config.NotifyChannelDesktop] = cfg.Desktop.Retry
	}
	if cfg.Telegram.Enabled {
		senders[config.NotifyChannelTelegram] = NewTelegramSender(cfg.Telegram)
		retries[config.NotifyChannelTelegram] = cfg.Telegram.Retry
	}
	if cfg.NATS.Enabled {
		senders[config.NotifyChannelNATS] = NewNATSSender(cfg.NATS)
		retries[config.NotifyChannelNATS] = cfg.NATS.Retry
	}

	channels := make([]string, 0, len(senders))
	for channel := range senders {
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	return &Dispatcher{
		senders:  senders,
		channels: channels,
		retries:  retries,
		logger:   logger,
	}
}

// Channels returns configured channel list.
// Params: none.
// Returns: deterministic sender keys.
func (d *Dispatcher) Channels() []string {
	return d.channels
}

// Sender returns one configured channel sender.
// Params: channel key.
// Returns: sender and existence flag.
func (d *Dispatcher) Sender(channel string) (ChannelSender, bool) {
	sender, ok := d.senders[channel]
	return sender, ok
}

// Deliver sends one notification to every channel whose permission is granted.
// Params: context and notification payload.
// Returns: none; all failures are logged and swallowed, never propagated.
func (d *Dispatcher) Deliver(ctx context.Context, notification domain.Notification) {
	for _, channel := range d.channels {
		sender := d.senders[channel]
		if status := sender.Capability().PermissionStatus(); status != PermissionGranted {
			metrics.DeliveryTotal.WithLabelValues(channel, "skipped").Inc()
			d.logger.Debug("delivery skipped", "channel", channel, "permission", string(status))
			continue
		}
		if err := d.sendWithRetry(ctx, sender, notification, d.retries[channel]); err != nil {
			metrics.DeliveryTotal.WithLabelValues(channel, "failed").Inc()
			d.logger.Warn("delivery failed",
				"channel", channel, "notification", notification.ID, "error", err.Error())
			continue
		}
		metrics.DeliveryTotal.WithLabelValues(channel, "sent").Inc()
	}
}

// sendWithRetry sends one notification with channel-specific retry policy.
// Params: sender, payload, and retry policy for the sender channel.
// Returns: final error after retries; permanent errors stop retrying early.
func (d *Dispatcher) sendWithRetry(ctx context.Context, sender ChannelSender, notification domain.Notification, retry config.NotifyRetry) error {
	if !retry.Enabled {
		return sender.Send(ctx, notification)
	}

	backoff := time.Duration(retry.InitialMS) * time.Millisecond
	maxBackoff := time.Duration(retry.MaxMS) * time.Millisecond
	attempt := 0
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		attempt++
		err := sender.Send(ctx, notification)
		if err == nil {
			if retry.LogEachAttempt && attempt > 1 {
				d.logger.Info("delivery recovered after retries", "channel", sender.Channel(), "attempt", attempt)
			}
			return nil
		}
		if retry.LogEachAttempt {
			d.logger.Warn("delivery attempt failed", "channel", sender.Channel(), "attempt", attempt, "error", err.Error())
		}
		if permanent.Is(err) {
			return err
		}
		if retry.MaxAttempts > 0 && attempt >= retry.MaxAttempts {
			return fmt.Errorf("channel %s failed after %d attempts: %w", sender.Channel(), attempt, err)
		}

		if timer == nil {
			timer = time.NewTimer(backoff)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(backoff)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if strings.EqualFold(retry.Backoff, "exponential") {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// Close releases sender resources.
// Params: none.
// Returns: first close error.
func (d *Dispatcher) Close() error {
	var firstErr error
	for _, channel := range d.channels {
		if closer, ok := d.senders[channel].(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// staticCapability is capability with fixed support and config-driven consent.
// Params: supported flag and permission state.
// Returns: capability for channels without a platform permission model.
type staticCapability struct {
	supported  bool
	permission PermissionStatus
}

// Supported reports platform capability.
// Params: none.
// Returns: fixed support flag.
func (c staticCapability) Supported() bool {
	return c.supported
}

// PermissionStatus reports consent state.
// Params: none.
// Returns: unsupported when capability is missing, else configured state.
func (c staticCapability) PermissionStatus() PermissionStatus {
	if !c.supported {
		return PermissionUnsupported
	}
	return c.permission
}

// RequestPermission resolves consent for channels without interactive prompts.
// Params: context (unused).
// Returns: true when permission ends up granted.
func (c staticCapability) RequestPermission(context.Context) (bool, error) {
	return c.PermissionStatus() == PermissionGranted, nil
}

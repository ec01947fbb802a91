package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sensorwatch/internal/domain"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultAPITimeoutSec      = 10
	defaultPollIntervalSec    = 30
	defaultPollLatestCount    = 10
	defaultDedupWindowSec     = 300
	defaultStorageDir         = "./data"
	defaultHTTPListen         = ":8080"
	defaultHealthPath         = "/healthz"
	defaultReadyPath          = "/readyz"
	defaultMetricsPath        = "/metrics"
	defaultNATSSubject        = "sensorwatch.notifications"
	defaultRetryInitialMS     = 200
	defaultRetryMaxMS         = 5000
	defaultRetryMaxAttempts   = 3
	defaultDesktopPermission  = "default"
	defaultLogMaxEntries      = 0

	// NotifyChannelDesktop identifies OS desktop notification transport.
	NotifyChannelDesktop = "desktop"
	// NotifyChannelTelegram identifies Telegram transport.
	NotifyChannelTelegram = "telegram"
	// NotifyChannelNATS identifies NATS publish transport.
	NotifyChannelNATS = "nats"
)

// Config holds service runtime settings.
// Params: TOML sections from file or merged directory snapshot.
// Returns: validated runtime configuration.
type Config struct {
	Service ServiceConfig `toml:"service"`
	Log     LogConfig     `toml:"log"`
	API     APIConfig     `toml:"api"`
	Poll    PollConfig    `toml:"poll"`
	Dedup   DedupConfig   `toml:"dedup"`
	Storage StorageConfig `toml:"storage"`
	HTTP    HTTPConfig    `toml:"http"`
	Notify  NotifyConfig  `toml:"notify"`
}

// ServiceConfig contains process-level settings.
// Params: service name and first-run rule seeding toggle.
// Returns: service behavior defaults.
type ServiceConfig struct {
	Name             string `toml:"name"`
	SeedDefaultRules bool   `toml:"seed_default_rules"`
}

// LogConfig groups console and file log sinks.
// Params: per-sink enable/level/format settings.
// Returns: logging setup input.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogSinkConfig `toml:"file"`
}

// LogSinkConfig configures one log output sink.
// Params: enable flag, minimum level, format, and optional file path.
// Returns: sink behavior for logging setup.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// APIConfig configures the remote sensor feed client.
// Params: base URL and request timeout.
// Returns: fetch client options.
type APIConfig struct {
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// PollConfig configures the polling driver.
// Params: initial interval and per-batch reading cap.
// Returns: poll loop defaults; persisted settings override the interval at runtime.
type PollConfig struct {
	RefreshIntervalSec int `toml:"refresh_interval_sec"`
	LatestCount        int `toml:"latest_count"`
}

// DedupConfig configures notification deduplication.
// Params: sliding window width in seconds.
// Returns: dedup policy for the notification factory.
type DedupConfig struct {
	WindowSec int `toml:"window_sec"`
}

// StorageConfig configures local state persistence.
// Params: state directory holding JSON blobs.
// Returns: file store location and optional log cap.
type StorageConfig struct {
	Dir           string `toml:"dir"`
	LogMaxEntries int    `toml:"log_max_entries"`
}

// HTTPConfig configures the operational HTTP listener.
// Params: enable flag, listen address, and endpoint paths.
// Returns: health/ready/metrics endpoint settings.
type HTTPConfig struct {
	Enabled     bool   `toml:"enabled"`
	Listen      string `toml:"listen"`
	HealthPath  string `toml:"health_path"`
	ReadyPath   string `toml:"ready_path"`
	MetricsPath string `toml:"metrics_path"`
}

// NotifyConfig groups outbound delivery channel settings.
// Params: per-channel configuration blocks.
// Returns: dispatcher construction input.
type NotifyConfig struct {
	Desktop  DesktopNotifier  `toml:"desktop"`
	Telegram TelegramNotifier `toml:"telegram"`
	NATS     NATSNotifier     `toml:"nats"`
}

// DesktopNotifier configures OS desktop notification delivery.
// Params: enable flag, operator-granted permission, and app identity.
// Returns: desktop channel settings.
type DesktopNotifier struct {
	Enabled    bool        `toml:"enabled"`
	Permission string      `toml:"permission"`
	AppName    string      `toml:"app_name"`
	IconPath   string      `toml:"icon_path"`
	Retry      NotifyRetry `toml:"retry"`
}

// TelegramNotifier configures Telegram bot delivery.
// Params: bot credentials and destination chat.
// Returns: telegram channel settings.
type TelegramNotifier struct {
	Enabled  bool        `toml:"enabled"`
	BotToken string      `toml:"bot_token"`
	ChatID   string      `toml:"chat_id"`
	APIBase  string      `toml:"api_base"`
	Retry    NotifyRetry `toml:"retry"`
}

// NATSNotifier configures NATS subject publishing of emitted notifications.
// Params: server URLs and destination subject.
// Returns: nats channel settings.
type NATSNotifier struct {
	Enabled bool        `toml:"enabled"`
	URL     []string    `toml:"url"`
	Subject string      `toml:"subject"`
	Retry   NotifyRetry `toml:"retry"`
}

// NotifyRetry defines retry/backoff policy for one delivery channel.
// Params: backoff mode and attempt limits.
// Returns: retry policy consumed by the dispatcher.
type NotifyRetry struct {
	Enabled        bool   `toml:"enabled"`
	Backoff        string `toml:"backoff"`
	InitialMS      int    `toml:"initial_ms"`
	MaxMS          int    `toml:"max_ms"`
	MaxAttempts    int    `toml:"max_attempts"`
	LogEachAttempt bool   `toml:"log_each_attempt"`
}

// ConfigSource describes file or directory config source.
// Params: exactly one of file path or directory path.
// Returns: normalized load source.
type ConfigSource struct {
	File string
	Dir  string
}

// FromCLI builds normalized source configuration from input paths.
// Params: --config-file and --config-dir flag values.
// Returns: config source or flag validation error.
func FromCLI(filePath, dirPath string) (ConfigSource, error) {
	filePath = strings.TrimSpace(filePath)
	dirPath = strings.TrimSpace(dirPath)

	if filePath == "" && dirPath == "" {
		return ConfigSource{}, errors.New("either --config-file or --config-dir must be provided")
	}
	if filePath != "" && dirPath != "" {
		return ConfigSource{}, errors.New("config source must be either file or dir")
	}

	if filePath != "" {
		return ConfigSource{File: filePath}, nil
	}
	return ConfigSource{Dir: dirPath}, nil
}

// LoadSnapshot loads and validates configuration from one source.
// Params: config source selected by FromCLI.
// Returns: validated config or load/validation error.
func LoadSnapshot(src ConfigSource) (Config, error) {
	var body []byte
	var err error
	if src.File != "" {
		body, err = os.ReadFile(src.File)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", src.File, err)
		}
	} else {
		body, err = readDir(src.Dir)
		if err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := toml.Unmarshal(body, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readDir concatenates sorted *.toml fragments from one directory.
// Params: directory path.
// Returns: merged TOML body or read error.
func readDir(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read config dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("config dir %q has no *.toml files", dir)
	}
	sort.Strings(names)

	var merged []byte
	for _, name := range names {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read config fragment %q: %w", name, err)
		}
		merged = append(merged, body...)
		merged = append(merged, '\n')
	}
	return merged, nil
}

// ApplyDefaults fills omitted config fields with safe defaults.
// Params: mutable config pointer.
// Returns: config normalized in place.
func ApplyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Service.Name) == "" {
		cfg.Service.Name = "sensorwatch"
	}

	if cfg.Log.Console.Level == "" {
		cfg.Log.Console.Level = "info"
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = "line"
	}
	if cfg.Log.File.Level == "" {
		cfg.Log.File.Level = "info"
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = "json"
	}
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}

	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = defaultAPITimeoutSec
	}
	if cfg.Poll.RefreshIntervalSec <= 0 {
		cfg.Poll.RefreshIntervalSec = defaultPollIntervalSec
	}
	if cfg.Poll.LatestCount <= 0 {
		cfg.Poll.LatestCount = defaultPollLatestCount
	}
	if cfg.Dedup.WindowSec <= 0 {
		cfg.Dedup.WindowSec = defaultDedupWindowSec
	}
	if strings.TrimSpace(cfg.Storage.Dir) == "" {
		cfg.Storage.Dir = defaultStorageDir
	}
	if cfg.Storage.LogMaxEntries < 0 {
		cfg.Storage.LogMaxEntries = defaultLogMaxEntries
	}

	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = defaultHTTPListen
	}
	if cfg.HTTP.HealthPath == "" {
		cfg.HTTP.HealthPath = defaultHealthPath
	}
	if cfg.HTTP.ReadyPath == "" {
		cfg.HTTP.ReadyPath = defaultReadyPath
	}
	if cfg.HTTP.MetricsPath == "" {
		cfg.HTTP.MetricsPath = defaultMetricsPath
	}

	if cfg.Notify.Desktop.Permission == "" {
		cfg.Notify.Desktop.Permission = defaultDesktopPermission
	}
	if cfg.Notify.Desktop.AppName == "" {
		cfg.Notify.Desktop.AppName = cfg.Service.Name
	}
	if cfg.Notify.NATS.Subject == "" {
		cfg.Notify.NATS.Subject = defaultNATSSubject
	}
	fillNotifyRetryDefaults(&cfg.Notify.Desktop.Retry)
	fillNotifyRetryDefaults(&cfg.Notify.Telegram.Retry)
	fillNotifyRetryDefaults(&cfg.Notify.NATS.Retry)
}

// fillNotifyRetryDefaults normalizes one channel retry policy.
// Params: mutable retry pointer.
// Returns: retry policy normalized in place.
func fillNotifyRetryDefaults(retry *NotifyRetry) {
	if retry.Backoff == "" {
		retry.Backoff = "exponential"
	}
	if retry.InitialMS <= 0 {
		retry.InitialMS = defaultRetryInitialMS
	}
	if retry.MaxMS <= 0 {
		retry.MaxMS = defaultRetryMaxMS
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultRetryMaxAttempts
	}
}

// Validate checks configuration invariants after defaults are applied.
// Params: normalized config snapshot.
// Returns: first validation error.
func Validate(cfg Config) error {
	if err := validateSink("console", cfg.Log.Console, false); err != nil {
		return err
	}
	if err := validateSink("file", cfg.Log.File, true); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if !strings.HasPrefix(cfg.API.BaseURL, "http://") && !strings.HasPrefix(cfg.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url %q must be an http(s) URL", cfg.API.BaseURL)
	}

	switch cfg.Notify.Desktop.Permission {
	case "granted", "denied", "default":
	default:
		return fmt.Errorf("notify.desktop.permission %q must be granted, denied, or default", cfg.Notify.Desktop.Permission)
	}

	if cfg.Notify.Telegram.Enabled {
		if strings.TrimSpace(cfg.Notify.Telegram.BotToken) == "" {
			return errors.New("notify.telegram.bot_token is required when telegram is enabled")
		}
		if strings.TrimSpace(cfg.Notify.Telegram.ChatID) == "" {
			return errors.New("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	if cfg.Notify.NATS.Enabled && len(cfg.Notify.NATS.URL) == 0 {
		return errors.New("notify.nats.url is required when nats is enabled")
	}

	for _, check := range []struct {
		name  string
		retry NotifyRetry
	}{
		{NotifyChannelDesktop, cfg.Notify.Desktop.Retry},
		{NotifyChannelTelegram, cfg.Notify.Telegram.Retry},
		{NotifyChannelNATS, cfg.Notify.NATS.Retry},
	} {
		if check.retry.Backoff != "fixed" && check.retry.Backoff != "exponential" {
			return fmt.Errorf("notify.%s.retry.backoff %q must be fixed or exponential", check.name, check.retry.Backoff)
		}
	}
	return nil
}

// validateSink checks one log sink configuration.
// Params: sink name, sink settings, and file-path requirement flag.
// Returns: validation error.
func validateSink(name string, sink LogSinkConfig, needsPath bool) error {
	if !sink.Enabled {
		return nil
	}
	switch sink.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.%s.level %q is not supported", name, sink.Level)
	}
	switch sink.Format {
	case "line", "json":
	default:
		return fmt.Errorf("log.%s.format %q is not supported", name, sink.Format)
	}
	if needsPath && strings.TrimSpace(sink.Path) == "" {
		return fmt.Errorf("log.%s.path is required", name)
	}
	return nil
}

// APITimeout returns request timeout for the sensor feed client.
// Params: config snapshot.
// Returns: timeout duration.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// DedupWindow returns sliding dedup window for the notification factory.
// Params: config snapshot.
// Returns: window duration.
func (c Config) DedupWindow() time.Duration {
	return time.Duration(c.Dedup.WindowSec) * time.Second
}

// PollInterval returns initial polling interval.
// Params: config snapshot.
// Returns: interval duration; persisted settings override at runtime.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.RefreshIntervalSec) * time.Second
}

// DefaultConfig returns config populated entirely from defaults plus base URL.
// Params: sensor API base URL.
// Returns: normalized config snapshot for embedding callers.
func DefaultConfig(baseURL string) Config {
	cfg := Config{API: APIConfig{BaseURL: baseURL}}
	ApplyDefaults(&cfg)
	return cfg
}

// DefaultSettingsFromConfig derives initial operator settings from config.
// Params: normalized config snapshot.
// Returns: settings used when no persisted settings blob exists.
func DefaultSettingsFromConfig(cfg Config) domain.Settings {
	settings := domain.DefaultSettings()
	settings.RefreshIntervalSeconds = cfg.Poll.RefreshIntervalSec
	return settings
}

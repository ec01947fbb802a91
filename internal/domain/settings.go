package domain

// Settings holds persisted operator preferences read by the polling driver.
// Params: auto-refresh toggle, poll interval, and fetch cap.
// Returns: settings snapshot persisted as one JSON blob.
type Settings struct {
	AutoRefresh            bool `json:"auto_refresh"`
	RefreshIntervalSeconds int  `json:"refresh_interval_seconds"`
	MaxRecords             int  `json:"max_records"`
}

// DefaultSettings returns out-of-the-box settings values.
// Params: none.
// Returns: enabled auto-refresh at 30s with 1000-record fetch cap.
func DefaultSettings() Settings {
	return Settings{
		AutoRefresh:            true,
		RefreshIntervalSeconds: 30,
		MaxRecords:             1000,
	}
}

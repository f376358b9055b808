package config

import "time"

// Store drivers selectable through Settings.StoreDriver.
const (
	StoreDriverFirestore = "firestore"
	StoreDriverSQLite    = "sqlite"
)

// Accounting modes selectable through Settings.AccountingMode.
const (
	AccountingModeMinutes    = "minutes"
	AccountingModeRecordings = "recordings"
)

// DefaultSettings returns the production baseline configuration.
func DefaultSettings() Settings {
	return Settings{
		ProjectID:          "minutescript-prod",
		Bucket:             "minutescript",
		RecordingsFolder:   "recordings",
		Subscription:       "transcription-requests",
		StoreDriver:        StoreDriverFirestore,
		SQLitePath:         "minutescript.db",
		AccountingMode:     AccountingModeMinutes,
		FFmpegPath:         "ffmpeg",
		WaitTimeoutSeconds: 3600,
		MaxInFlight:        1,
	}
}

// WaitTimeout converts the configured recognition wait bound to a duration.
func (s Settings) WaitTimeout() time.Duration {
	return time.Duration(s.WaitTimeoutSeconds) * time.Second
}

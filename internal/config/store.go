package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Settings contains runtime configuration for the executor process.
type Settings struct {
	ProjectID          string `json:"projectId"`
	Bucket             string `json:"bucket"`
	RecordingsFolder   string `json:"recordingsFolder"`
	Subscription       string `json:"subscription"`
	CredentialsFile    string `json:"credentialsFile,omitempty"`
	StoreDriver        string `json:"storeDriver"`
	SQLitePath         string `json:"sqlitePath,omitempty"`
	AccountingMode     string `json:"accountingMode"`
	FFmpegPath         string `json:"ffmpegPath"`
	WaitTimeoutSeconds int    `json:"waitTimeoutSeconds"`
	MaxInFlight        int    `json:"maxInFlight"`
}

// Store defines persistence operations for executor settings.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads settings from disk or returns defaults when missing.
// Zero-valued fields fall back to their defaults so partial config
// files stay valid.
func (s *JSONStore) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}

		return Settings{}, err
	}

	cfg := DefaultSettings()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

// Save writes settings as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

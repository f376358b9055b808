package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/minutescript/MinScript-Backend/internal/config"
)

// TestLoadSettingsEnvOverride verifies the config path env var wins.
func TestLoadSettingsEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"bucket":"override-bucket"}`), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv(configPathEnv, path)

	settings, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if settings.Bucket != "override-bucket" {
		t.Fatalf("bucket = %q, want override-bucket", settings.Bucket)
	}
	if settings.ProjectID != config.DefaultSettings().ProjectID {
		t.Fatalf("project = %q, want default retained", settings.ProjectID)
	}
}

// TestLoadSettingsMissingFileUsesDefaults verifies the missing-file path.
func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.json"))

	settings, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if settings != config.DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", settings)
	}
}

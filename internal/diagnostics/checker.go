// Package diagnostics runs startup checks before the executor begins
// pulling jobs, so misconfiguration fails the process instead of every
// job it would have consumed.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/minutescript/MinScript-Backend/internal/config"
	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// Checker validates external tools, credentials, and required settings.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	tempDir    func() string
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		tempDir:    os.TempDir,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings config.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool(settings.FFmpegPath),
		c.checkTempDir(),
		c.checkStoreDriver(settings),
		c.checkCredentials(settings.CredentialsFile),
		c.checkSetting("bucket", "Recording bucket", settings.Bucket),
		c.checkSetting("recordings_folder", "Recordings folder", settings.RecordingsFolder),
		c.checkSetting("subscription", "Job subscription", settings.Subscription),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies the configured ffmpeg binary is resolvable.
func (c *Checker) checkTool(ffmpegPath string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_ffmpeg",
		Name: "ffmpeg",
	}

	if strings.TrimSpace(ffmpegPath) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "No ffmpeg path configured."
		item.Hint = "Set ffmpegPath in settings; unsupported audio cannot be transcoded without it."
		return item
	}

	path, err := c.lookPath(ffmpegPath)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot resolve ffmpeg: %s", ffmpegPath)
		item.Hint = "Install ffmpeg and ensure the configured path or PATH entry is correct."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkTempDir validates the transcode workspace is writable.
func (c *Checker) checkTempDir() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "temp_dir",
		Name: "Temp workspace",
	}

	dir := c.tempDir()
	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Temp directory is not writable: %s", dir)
		item.Hint = "Transcoding stages audio through the temp directory; fix its permissions or TMPDIR."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// checkStoreDriver validates the document store selection and its
// driver-specific settings.
func (c *Checker) checkStoreDriver(settings config.Settings) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "store_driver",
		Name: "Document store",
	}

	switch settings.StoreDriver {
	case config.StoreDriverFirestore:
		if strings.TrimSpace(settings.ProjectID) == "" {
			item.Status = domain.DiagnosticStatusFail
			item.Message = "Firestore driver selected without a project ID."
			item.Hint = "Set projectId in settings."
			return item
		}
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Firestore in project %s", settings.ProjectID)
	case config.StoreDriverSQLite:
		if strings.TrimSpace(settings.SQLitePath) == "" {
			item.Status = domain.DiagnosticStatusFail
			item.Message = "SQLite driver selected without a database path."
			item.Hint = "Set sqlitePath in settings."
			return item
		}
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("SQLite at %s", settings.SQLitePath)
	default:
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unknown store driver: %s", settings.StoreDriver)
		item.Hint = "Set storeDriver to firestore or sqlite."
	}

	return item
}

// checkCredentials validates the credentials file when one is configured.
// Absent means application-default credentials, which is fine.
func (c *Checker) checkCredentials(credentialsFile string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "credentials",
		Name: "Service credentials",
	}

	if strings.TrimSpace(credentialsFile) == "" {
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Using application-default credentials."
		return item
	}

	if _, err := c.stat(credentialsFile); err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Credentials file does not exist: %s", credentialsFile)
		} else {
			item.Message = fmt.Sprintf("Cannot access credentials file: %s", credentialsFile)
		}
		item.Hint = "Point credentialsFile at a readable service account key or remove it to use default credentials."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Credentials file found: %s", credentialsFile)
	return item
}

// checkSetting validates one required non-empty settings value.
func (c *Checker) checkSetting(id, name, value string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   id,
		Name: name,
	}

	if strings.TrimSpace(value) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("%s is not configured.", name)
		item.Hint = "Fill in the missing settings value before starting the executor."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = value
	return item
}

// NewCheckerForTests creates a checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	tempDir func() string,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		createTemp: createTemp,
		remove:     remove,
		tempDir:    tempDir,
	}
}

// Package normalize decides when input audio needs transcoding and
// migrates a recording to a recognizer-supported format when it does.
package normalize

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"lukechampine.com/blake3"

	"github.com/minutescript/MinScript-Backend/internal/blob"
	"github.com/minutescript/MinScript-Backend/internal/docstore"
	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// Transcode targets: single-channel 48 kHz Ogg/Opus, the cheapest format
// the recognizer accepts without an explicit encoding hint.
const (
	TargetSampleRateHertz = 48000
	TargetContentType     = "audio/opus"
	targetExtension       = ".ogg"
)

// unsupportedContentType is the one container the recognizer cannot read
// directly. The transcoded output is always directly supported, so one
// migration pass suffices.
const unsupportedContentType = "audio/mp4"

// NeedsTranscoding reports whether the stored content type requires a
// conversion pass before recognition.
func NeedsTranscoding(mimeType string) bool {
	return mimeType == unsupportedContentType
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Normalizer downloads unsupported audio, transcodes it with ffmpeg, and
// migrates blob and metadata document to the new filename key.
type Normalizer struct {
	blobs      blob.Store
	docs       docstore.Store
	runner     commandRunner
	ffmpegPath string
	bucket     string
	folder     string
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error
}

// New constructs the production normalizer.
func New(blobs blob.Store, docs docstore.Store, ffmpegPath, bucket, folder string) *Normalizer {
	return &Normalizer{
		blobs:      blobs,
		docs:       docs,
		runner:     &execRunner{},
		ffmpegPath: ffmpegPath,
		bucket:     bucket,
		folder:     folder,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
	}
}

// Transcode converts one recording to the target format and relocates
// blob and metadata under the new filename. The migration is
// copy-then-delete: a crash in between leaves both keys present, which a
// rerun resolves because the new key's content type is already supported.
// Any I/O failure propagates and fails the job.
func (n *Normalizer) Transcode(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
	oldKey := n.recordingKey(userID, fileName)
	newFileName := strings.SplitN(fileName, ".", 2)[0] + targetExtension
	newKey := n.recordingKey(userID, newFileName)

	tempDir, err := n.mkdirTemp("", "minscript-transcode-*")
	if err != nil {
		return domain.AudioMigration{}, fmt.Errorf("create temp workspace: %w", err)
	}
	defer n.removeAll(tempDir)

	srcPath := filepath.Join(tempDir, fileName)
	if err := n.blobs.Download(ctx, oldKey, srcPath); err != nil {
		return domain.AudioMigration{}, fmt.Errorf("download source audio: %w", err)
	}

	outPath := filepath.Join(tempDir, newFileName)
	args := buildFFmpegArgs(srcPath, outPath)
	result, err := n.runner.Run(ctx, n.ffmpegPath, args...)
	if err != nil {
		return domain.AudioMigration{}, fmt.Errorf("transcode %s (exit=%d): %w: %s",
			fileName, result.ExitCode, err, strings.TrimSpace(result.Stderr))
	}
	if _, err := os.Stat(outPath); err != nil {
		return domain.AudioMigration{}, fmt.Errorf("transcode %s: ffmpeg produced no output: %w", fileName, err)
	}

	hash, err := contentHash(outPath)
	if err != nil {
		return domain.AudioMigration{}, fmt.Errorf("hash transcoded audio: %w", err)
	}

	if err := n.blobs.Upload(ctx, newKey, outPath, TargetContentType); err != nil {
		return domain.AudioMigration{}, fmt.Errorf("upload transcoded audio: %w", err)
	}

	// copy-then-delete document migration
	rec, err := n.docs.GetRecording(ctx, userID, fileName)
	if err != nil {
		return domain.AudioMigration{}, fmt.Errorf("read recording metadata: %w", err)
	}
	if err := n.docs.PutRecording(ctx, userID, newFileName, rec); err != nil {
		return domain.AudioMigration{}, fmt.Errorf("copy recording metadata: %w", err)
	}
	if err := n.docs.DeleteRecording(ctx, userID, fileName); err != nil {
		return domain.AudioMigration{}, fmt.Errorf("delete old recording metadata: %w", err)
	}

	if err := n.blobs.Delete(ctx, oldKey); err != nil {
		return domain.AudioMigration{}, fmt.Errorf("delete old audio: %w", err)
	}

	migration := domain.AudioMigration{
		URI:             "gs://" + n.bucket + "/" + newKey,
		FileName:        newFileName,
		Format:          TargetContentType,
		SampleRateHertz: TargetSampleRateHertz,
		ContentHash:     hash,
	}
	if err := n.docs.UpdateMigratedAudio(ctx, userID, newFileName, migration); err != nil {
		return domain.AudioMigration{}, fmt.Errorf("update migrated metadata: %w", err)
	}

	return migration, nil
}

// recordingKey builds the blob key for one user's recording.
func (n *Normalizer) recordingKey(userID, fileName string) string {
	return n.folder + "/" + userID + "/" + fileName
}

// buildFFmpegArgs builds conversion args for mono 48k Ogg/Opus output.
func buildFFmpegArgs(srcPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", srcPath,
		"-c:a", "libopus",
		"-ar", strconv.Itoa(TargetSampleRateHertz),
		"-ac", "1",
		outPath,
	}
}

// contentHash returns the hex BLAKE3 digest of a file's contents.
func contentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewForTests constructs a normalizer with injectable dependencies.
func NewForTests(
	blobs blob.Store,
	docs docstore.Store,
	runner commandRunner,
	ffmpegPath, bucket, folder string,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
) *Normalizer {
	return &Normalizer{
		blobs:      blobs,
		docs:       docs,
		runner:     runner,
		ffmpegPath: ffmpegPath,
		bucket:     bucket,
		folder:     folder,
		mkdirTemp:  mkdirTemp,
		removeAll:  removeAll,
	}
}

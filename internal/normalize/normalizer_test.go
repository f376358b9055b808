package normalize

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/minutescript/MinScript-Backend/internal/blob"
	"github.com/minutescript/MinScript-Backend/internal/docstore"
	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// fakeRunner simulates ffmpeg execution.
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (commandResult, error)
}

// Run delegates to injected behavior.
func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	if f.run == nil {
		return commandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

// TestNeedsTranscoding verifies the mime-type dispatch.
func TestNeedsTranscoding(t *testing.T) {
	if !NeedsTranscoding("audio/mp4") {
		t.Fatal("audio/mp4 should need transcoding")
	}
	for _, mime := range []string{"audio/wave", "audio/opus", "audio/flac", ""} {
		if NeedsTranscoding(mime) {
			t.Fatalf("%q should not need transcoding", mime)
		}
	}
}

// TestTranscodeMigratesBlobAndDocument checks the full happy path: new
// blob and document exist under the .ogg key, old key is gone everywhere,
// and the new document carries updated format fields.
func TestTranscodeMigratesBlobAndDocument(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemStore()
	docs := docstore.NewMemStore()
	blobs.Seed("recordings/u1/meeting.mp4", "audio/mp4", []byte("mp4-bytes"))
	if err := docs.PutRecording(ctx, "u1", "meeting.mp4", domain.Recording{
		URI:              "gs://minutescript/recordings/u1/meeting.mp4",
		FileName:         "meeting.mp4",
		Format:           "audio/mp4",
		LengthSeconds:    300,
		TranscriptStatus: "queued",
	}); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	var ffmpegArgs []string
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			if name != "ffmpeg-custom" {
				t.Fatalf("command name = %q, want ffmpeg-custom", name)
			}
			ffmpegArgs = append([]string{}, args...)
			outPath := args[len(args)-1]
			if err := os.WriteFile(outPath, []byte("ogg-bytes"), 0o644); err != nil {
				t.Fatalf("write fake output: %v", err)
			}
			return commandResult{ExitCode: 0}, nil
		},
	}

	n := NewForTests(blobs, docs, runner, "ffmpeg-custom", "minutescript", "recordings", os.MkdirTemp, os.RemoveAll)
	migration, err := n.Transcode(ctx, "u1", "meeting.mp4")
	if err != nil {
		t.Fatalf("Transcode() error = %v", err)
	}

	if migration.FileName != "meeting.ogg" {
		t.Fatalf("new file name = %q, want meeting.ogg", migration.FileName)
	}
	if migration.URI != "gs://minutescript/recordings/u1/meeting.ogg" {
		t.Fatalf("new uri = %q", migration.URI)
	}
	if migration.SampleRateHertz != TargetSampleRateHertz {
		t.Fatalf("sample rate = %d, want %d", migration.SampleRateHertz, TargetSampleRateHertz)
	}
	if migration.ContentHash == "" {
		t.Fatal("expected content hash")
	}

	if _, _, ok := blobs.Object("recordings/u1/meeting.mp4"); ok {
		t.Fatal("old blob should be deleted")
	}
	contentType, data, ok := blobs.Object("recordings/u1/meeting.ogg")
	if !ok {
		t.Fatal("new blob missing")
	}
	if contentType != TargetContentType || string(data) != "ogg-bytes" {
		t.Fatalf("new blob = %q %q", contentType, data)
	}

	if _, err := docs.GetRecording(ctx, "u1", "meeting.mp4"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("old document error = %v, want ErrNotFound", err)
	}
	rec, err := docs.GetRecording(ctx, "u1", "meeting.ogg")
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if rec.Format != TargetContentType || rec.SampleRateHertz != TargetSampleRateHertz {
		t.Fatalf("migrated document = %+v", rec)
	}
	if rec.LengthSeconds != 300 || rec.TranscriptStatus != "queued" {
		t.Fatalf("copied fields lost: %+v", rec)
	}

	for _, want := range []string{"-c:a", "libopus", "-ar", "48000", "-ac", "1"} {
		if !hasArg(ffmpegArgs, want) {
			t.Fatalf("missing ffmpeg arg %q in %v", want, ffmpegArgs)
		}
	}
}

// TestTranscodeFFmpegFailurePropagates checks that conversion errors
// abort the migration before any blob or document write.
func TestTranscodeFFmpegFailurePropagates(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemStore()
	docs := docstore.NewMemStore()
	blobs.Seed("recordings/u1/clip.mp4", "audio/mp4", []byte("mp4"))
	if err := docs.PutRecording(ctx, "u1", "clip.mp4", domain.Recording{FileName: "clip.mp4"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
			return commandResult{Stderr: "unknown codec", ExitCode: 1}, errors.New("exit status 1")
		},
	}

	var cleaned string
	n := NewForTests(blobs, docs, runner, "ffmpeg", "minutescript", "recordings", os.MkdirTemp,
		func(path string) error {
			cleaned = path
			return os.RemoveAll(path)
		})

	_, err := n.Transcode(ctx, "u1", "clip.mp4")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unknown codec") {
		t.Fatalf("error should carry ffmpeg stderr, got %v", err)
	}
	if cleaned == "" {
		t.Fatal("expected temp workspace cleanup")
	}

	if _, _, ok := blobs.Object("recordings/u1/clip.mp4"); !ok {
		t.Fatal("source blob must remain after failed transcode")
	}
	if _, err := docs.GetRecording(ctx, "u1", "clip.mp4"); err != nil {
		t.Fatalf("source document must remain, got %v", err)
	}
	if _, err := docs.GetRecording(ctx, "u1", "clip.ogg"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("no new document expected, got %v", err)
	}
}

// TestTranscodeMissingSourceBlob checks download failures propagate.
func TestTranscodeMissingSourceBlob(t *testing.T) {
	n := NewForTests(blob.NewMemStore(), docstore.NewMemStore(), &fakeRunner{},
		"ffmpeg", "minutescript", "recordings", os.MkdirTemp, os.RemoveAll)

	_, err := n.Transcode(context.Background(), "u1", "ghost.mp4")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("error = %v, want blob.ErrNotFound", err)
	}
}

// hasArg reports whether args include the target value.
func hasArg(args []string, value string) bool {
	for _, arg := range args {
		if arg == value {
			return true
		}
	}
	return false
}

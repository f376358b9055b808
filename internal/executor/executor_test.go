package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/minutescript/MinScript-Backend/internal/blob"
	"github.com/minutescript/MinScript-Backend/internal/config"
	"github.com/minutescript/MinScript-Backend/internal/docstore"
	"github.com/minutescript/MinScript-Backend/internal/domain"
	"github.com/minutescript/MinScript-Backend/internal/ledger"
	"github.com/minutescript/MinScript-Backend/internal/recognize"
)

// fakeRecognizer records the request and returns a canned response.
type fakeRecognizer struct {
	resp   recognize.Response
	err    error
	calls  int
	gotCfg recognize.Config
	gotURI string
}

func (f *fakeRecognizer) LongRunningRecognize(ctx context.Context, cfg recognize.Config, audioURI string) (recognize.Response, error) {
	f.calls++
	f.gotCfg = cfg
	f.gotURI = audioURI
	if f.err != nil {
		return recognize.Response{}, f.err
	}
	return f.resp, nil
}

// fakeNormalizer delegates to a function so tests can emulate the
// blob and document migration.
type fakeNormalizer struct {
	calls int
	fn    func(ctx context.Context, userID, fileName string) (domain.AudioMigration, error)
}

func (f *fakeNormalizer) Transcode(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
	f.calls++
	return f.fn(ctx, userID, fileName)
}

// intPtr is a test helper for optional int fields.
func intPtr(v int) *int { return &v }

// newFixture wires an executor over memory stores with one seeded
// recording and ledger.
func newFixture(t *testing.T, fileName, contentType string, rec *fakeRecognizer, norm *fakeNormalizer) (*Executor, *blob.MemStore, *docstore.MemStore) {
	t.Helper()

	blobs := blob.NewMemStore()
	blobs.Seed("recordings/u1/"+fileName, contentType, []byte("audio-bytes"))

	docs := docstore.NewMemStore()
	ctx := context.Background()
	if err := docs.PutRecording(ctx, "u1", fileName, domain.Recording{
		URI:              "gs://minutescript/recordings/u1/" + fileName,
		FileName:         fileName,
		Format:           contentType,
		LengthSeconds:    125,
		TranscriptStatus: string(domain.TranscriptStatusQueued),
	}); err != nil {
		t.Fatalf("seed recording: %v", err)
	}
	if err := docs.PutLedger(ctx, "u1", domain.Ledger{UsedMinutes: 10}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	usage := ledger.NewUpdater(docs, config.AccountingModeMinutes)
	exec := New(blobs, docs, rec, norm, usage, "recordings", time.Minute)
	return exec, blobs, docs
}

// diarizedResponse builds a two-segment response whose last segment
// carries the cumulative word list.
func diarizedResponse() recognize.Response {
	return recognize.Response{
		Raw: "results { alternatives { transcript: \"hello there\" } }",
		Results: []recognize.Result{
			{Alternatives: []recognize.Alternative{{Transcript: "hello there"}}},
			{Alternatives: []recognize.Alternative{{
				Transcript: "general kenobi",
				Words: []recognize.WordInfo{
					{Word: "hello", StartTime: recognize.Offset{Seconds: 1}, EndTime: recognize.Offset{Seconds: 2}, SpeakerTag: 1},
					{Word: "there", StartTime: recognize.Offset{Seconds: 2}, EndTime: recognize.Offset{Seconds: 3}, SpeakerTag: 1},
					{Word: "general", StartTime: recognize.Offset{Seconds: 4}, EndTime: recognize.Offset{Seconds: 5}, SpeakerTag: 2},
					{Word: "kenobi", StartTime: recognize.Offset{Seconds: 5}, EndTime: recognize.Offset{Seconds: 6}, SpeakerTag: 2},
				},
			}}},
		},
	}
}

// TestExecuteSupportedAudio verifies the straight-through pipeline on
// directly supported audio.
func TestExecuteSupportedAudio(t *testing.T) {
	rec := &fakeRecognizer{resp: diarizedResponse()}
	norm := &fakeNormalizer{fn: func(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
		t.Fatal("normalizer must not run for supported audio")
		return domain.AudioMigration{}, nil
	}}
	exec, blobs, docs := newFixture(t, "a.wav", "audio/wave", rec, norm)

	req := domain.JobRequest{
		URI:             "gs://minutescript/recordings/u1/a.wav",
		UserID:          "u1",
		FileName:        "a.wav",
		MainLanguage:    "en-US",
		Diarize:         true,
		SpeakerCountMin: intPtr(2),
		SpeakerCountMax: intPtr(4),
	}
	if err := exec.Execute(context.Background(), req); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if norm.calls != 0 {
		t.Fatalf("normalizer calls = %d, want 0", norm.calls)
	}
	if rec.gotURI != req.URI {
		t.Fatalf("recognized uri = %s", rec.gotURI)
	}
	if rec.gotCfg.Encoding != recognize.EncodingLinearPCM || rec.gotCfg.Model != recognize.ModelVideo {
		t.Fatalf("config = %+v", rec.gotCfg)
	}

	stored, err := docs.GetRecording(context.Background(), "u1", "a.wav")
	if err != nil {
		t.Fatalf("read recording: %v", err)
	}
	if stored.TranscriptStatus != string(domain.TranscriptStatusSuccess) {
		t.Fatalf("status = %q, want success", stored.TranscriptStatus)
	}
	if stored.Transcript != "hello there \ngeneral kenobi \n" {
		t.Fatalf("transcript = %q", stored.Transcript)
	}
	if len(stored.WordTimeline) != 4 || stored.WordTimeline[2].SpeakerTag != 2 {
		t.Fatalf("timeline = %+v", stored.WordTimeline)
	}

	contentType, data, ok := blobs.Object("recordings/u1/a.wav_transcript.txt")
	if !ok {
		t.Fatal("raw response archive missing")
	}
	if contentType != "text/plain" || string(data) != rec.resp.Raw {
		t.Fatalf("archive = %s %q", contentType, data)
	}

	led, _ := docs.GetLedger(context.Background(), "u1")
	if led.UsedMinutes != 12 {
		t.Fatalf("used minutes = %d, want 12", led.UsedMinutes)
	}
}

// TestExecuteRecognizerFailure verifies a failed recognition marks the
// recording errored with the cause and writes nothing else.
func TestExecuteRecognizerFailure(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("deadline exceeded")}
	norm := &fakeNormalizer{fn: func(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
		return domain.AudioMigration{}, nil
	}}
	exec, blobs, docs := newFixture(t, "a.wav", "audio/wave", rec, norm)

	req := domain.JobRequest{
		URI:          "gs://minutescript/recordings/u1/a.wav",
		UserID:       "u1",
		FileName:     "a.wav",
		MainLanguage: "en-US",
	}
	err := exec.Execute(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	var jobErr *JobError
	if !errors.As(err, &jobErr) || jobErr.Stage != StageRecognize {
		t.Fatalf("error = %v, want recognize stage", err)
	}

	stored, _ := docs.GetRecording(context.Background(), "u1", "a.wav")
	if !strings.HasPrefix(stored.TranscriptStatus, "error: ") {
		t.Fatalf("status = %q, want error prefix", stored.TranscriptStatus)
	}
	if !strings.Contains(stored.TranscriptStatus, "deadline exceeded") {
		t.Fatalf("status = %q, want cause included", stored.TranscriptStatus)
	}
	if stored.Transcript != "" {
		t.Fatalf("transcript = %q, want empty", stored.Transcript)
	}
	if _, _, ok := blobs.Object("recordings/u1/a.wav_transcript.txt"); ok {
		t.Fatal("archive must not exist after failure")
	}

	led, _ := docs.GetLedger(context.Background(), "u1")
	if led.UsedMinutes != 10 {
		t.Fatalf("used minutes = %d, want untouched 10", led.UsedMinutes)
	}
}

// TestExecuteTranscodesUnsupportedAudio verifies the single re-entry
// after an unsupported container is migrated.
func TestExecuteTranscodesUnsupportedAudio(t *testing.T) {
	rec := &fakeRecognizer{resp: recognize.Response{
		Raw:     "results {}",
		Results: []recognize.Result{{Alternatives: []recognize.Alternative{{Transcript: "converted"}}}},
	}}

	var norm fakeNormalizer
	exec, blobs, docs := newFixture(t, "a.mp4", "audio/mp4", rec, &norm)
	norm.fn = func(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
		ctxb := context.Background()
		source, err := docs.GetRecording(ctxb, userID, fileName)
		if err != nil {
			return domain.AudioMigration{}, err
		}
		if err := docs.PutRecording(ctxb, userID, "a.ogg", source); err != nil {
			return domain.AudioMigration{}, err
		}
		if err := docs.DeleteRecording(ctxb, userID, fileName); err != nil {
			return domain.AudioMigration{}, err
		}
		blobs.Seed("recordings/u1/a.ogg", "audio/opus", []byte("opus-bytes"))
		return domain.AudioMigration{
			URI:             "gs://minutescript/recordings/u1/a.ogg",
			FileName:        "a.ogg",
			Format:          "audio/opus",
			SampleRateHertz: 48000,
		}, nil
	}

	req := domain.JobRequest{
		URI:          "gs://minutescript/recordings/u1/a.mp4",
		UserID:       "u1",
		FileName:     "a.mp4",
		MainLanguage: "en-US",
	}
	if err := exec.Execute(context.Background(), req); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if norm.calls != 1 {
		t.Fatalf("normalizer calls = %d, want 1", norm.calls)
	}
	if rec.gotURI != "gs://minutescript/recordings/u1/a.ogg" {
		t.Fatalf("recognized uri = %s, want migrated key", rec.gotURI)
	}
	if rec.gotCfg.Encoding != recognize.EncodingOggOpus || rec.gotCfg.SampleRateHertz != 48000 {
		t.Fatalf("config = %+v", rec.gotCfg)
	}

	stored, err := docs.GetRecording(context.Background(), "u1", "a.ogg")
	if err != nil {
		t.Fatalf("read migrated recording: %v", err)
	}
	if stored.TranscriptStatus != string(domain.TranscriptStatusSuccess) {
		t.Fatalf("status = %q, want success", stored.TranscriptStatus)
	}
	if stored.Transcript != "converted \n" {
		t.Fatalf("transcript = %q", stored.Transcript)
	}
}

// TestExecuteRejectsRepeatedTranscode verifies a migration that leaves
// the audio unsupported fails instead of looping.
func TestExecuteRejectsRepeatedTranscode(t *testing.T) {
	rec := &fakeRecognizer{}

	var norm fakeNormalizer
	exec, blobs, docs := newFixture(t, "a.mp4", "audio/mp4", rec, &norm)
	norm.fn = func(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
		ctxb := context.Background()
		source, _ := docs.GetRecording(ctxb, userID, fileName)
		docs.PutRecording(ctxb, userID, "a.ogg", source)
		docs.DeleteRecording(ctxb, userID, fileName)
		// still unsupported: the migration misbehaved
		blobs.Seed("recordings/u1/a.ogg", "audio/mp4", []byte("bad"))
		return domain.AudioMigration{
			URI:      "gs://minutescript/recordings/u1/a.ogg",
			FileName: "a.ogg",
			Format:   "audio/mp4",
		}, nil
	}

	req := domain.JobRequest{
		URI:          "gs://minutescript/recordings/u1/a.mp4",
		UserID:       "u1",
		FileName:     "a.mp4",
		MainLanguage: "en-US",
	}
	err := exec.Execute(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	var jobErr *JobError
	if !errors.As(err, &jobErr) || jobErr.Stage != StageNormalize {
		t.Fatalf("error = %v, want normalize stage", err)
	}
	if norm.calls != 1 {
		t.Fatalf("normalizer calls = %d, want 1", norm.calls)
	}
	if rec.calls != 0 {
		t.Fatalf("recognizer calls = %d, want 0", rec.calls)
	}

	stored, _ := docs.GetRecording(context.Background(), "u1", "a.ogg")
	if !strings.HasPrefix(stored.TranscriptStatus, "error: ") {
		t.Fatalf("status = %q, want error prefix", stored.TranscriptStatus)
	}
}

// TestExecuteInvalidDiarizationRequest verifies input validation fails
// the job before recognition starts.
func TestExecuteInvalidDiarizationRequest(t *testing.T) {
	rec := &fakeRecognizer{}
	norm := &fakeNormalizer{fn: func(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
		return domain.AudioMigration{}, nil
	}}
	exec, _, docs := newFixture(t, "a.wav", "audio/wave", rec, norm)

	req := domain.JobRequest{
		URI:          "gs://minutescript/recordings/u1/a.wav",
		UserID:       "u1",
		FileName:     "a.wav",
		MainLanguage: "en-US",
		Diarize:      true,
		// no speaker bounds and no auto-detect
	}
	err := exec.Execute(context.Background(), req)
	if !errors.Is(err, recognize.ErrSpeakerBounds) {
		t.Fatalf("error = %v, want ErrSpeakerBounds", err)
	}
	if rec.calls != 0 {
		t.Fatalf("recognizer calls = %d, want 0", rec.calls)
	}

	stored, _ := docs.GetRecording(context.Background(), "u1", "a.wav")
	if !strings.HasPrefix(stored.TranscriptStatus, "error: ") {
		t.Fatalf("status = %q, want error prefix", stored.TranscriptStatus)
	}
}

// TestExecuteMissingAudio verifies a job whose blob disappeared errors out.
func TestExecuteMissingAudio(t *testing.T) {
	rec := &fakeRecognizer{}
	norm := &fakeNormalizer{fn: func(ctx context.Context, userID, fileName string) (domain.AudioMigration, error) {
		return domain.AudioMigration{}, nil
	}}
	exec, _, docs := newFixture(t, "a.wav", "audio/wave", rec, norm)

	req := domain.JobRequest{
		URI:          "gs://minutescript/recordings/u1/gone.wav",
		UserID:       "u1",
		FileName:     "gone.wav",
		MainLanguage: "en-US",
	}
	// seed the document so the processing mark can land
	if err := docs.PutRecording(context.Background(), "u1", "gone.wav", domain.Recording{
		TranscriptStatus: string(domain.TranscriptStatusQueued),
	}); err != nil {
		t.Fatalf("seed recording: %v", err)
	}

	err := exec.Execute(context.Background(), req)
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("error = %v, want blob.ErrNotFound", err)
	}

	stored, _ := docs.GetRecording(context.Background(), "u1", "gone.wav")
	if !strings.HasPrefix(stored.TranscriptStatus, "error: ") {
		t.Fatalf("status = %q, want error prefix", stored.TranscriptStatus)
	}
}

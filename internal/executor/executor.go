// Package executor orchestrates one transcription job end to end:
// normalization, recognition, response archiving, parsing, persistence,
// and usage accounting.
package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minutescript/MinScript-Backend/internal/blob"
	"github.com/minutescript/MinScript-Backend/internal/docstore"
	"github.com/minutescript/MinScript-Backend/internal/domain"
	"github.com/minutescript/MinScript-Backend/internal/ledger"
	"github.com/minutescript/MinScript-Backend/internal/normalize"
	"github.com/minutescript/MinScript-Backend/internal/recognize"
	"github.com/minutescript/MinScript-Backend/internal/status"
)

// Pipeline stages, used to locate where a job failed.
const (
	StageInspect   = "inspect"
	StageNormalize = "normalize"
	StageConfigure = "configure"
	StageRecognize = "recognize"
	StageArchive   = "archive"
	StagePersist   = "persist"
)

// archiveSuffix is appended to the recording key to form the raw
// response archive object.
const archiveSuffix = "_transcript.txt"

// JobError wraps a pipeline failure with the stage it occurred in. Its
// message is what lands in the persisted error status.
type JobError struct {
	Stage string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Normalizer converts one recording to a supported format, returning
// where the migrated audio ended up.
type Normalizer interface {
	Transcode(ctx context.Context, userID, fileName string) (domain.AudioMigration, error)
}

// Executor runs dequeued transcription jobs. One Execute call owns its
// recording key exclusively; the queue's at-most-once delivery prevents
// concurrent jobs for the same key.
type Executor struct {
	blobs       blob.Store
	docs        docstore.Store
	recognizer  recognize.Client
	normalizer  Normalizer
	usage       *ledger.Updater
	folder      string
	waitTimeout time.Duration
}

// New constructs an executor. waitTimeout bounds the recognition
// operation wait; zero falls back to one hour.
func New(
	blobs blob.Store,
	docs docstore.Store,
	recognizer recognize.Client,
	normalizer Normalizer,
	usage *ledger.Updater,
	folder string,
	waitTimeout time.Duration,
) *Executor {
	if waitTimeout <= 0 {
		waitTimeout = time.Hour
	}
	return &Executor{
		blobs:       blobs,
		docs:        docs,
		recognizer:  recognizer,
		normalizer:  normalizer,
		usage:       usage,
		folder:      folder,
		waitTimeout: waitTimeout,
	}
}

// Execute runs one job to a terminal state. Any pipeline failure is
// recorded as an error status on the recording before it propagates; a
// failure to record the status itself is logged and swallowed so the
// original cause is what the caller sees.
func (e *Executor) Execute(ctx context.Context, req domain.JobRequest) error {
	job, err := e.run(ctx, req)
	if err != nil {
		if job != nil {
			if markErr := job.MarkError(ctx, err.Error()); markErr != nil {
				log.Printf("user=%s file=%s: recording error status failed: %v",
					req.UserID, req.FileName, markErr)
			}
		}
		return err
	}
	return nil
}

// run drives the pipeline, re-entering once when the audio needed
// transcoding. It returns the status tracker for the key that was being
// processed when an error occurred, so Execute can mark it failed.
func (e *Executor) run(ctx context.Context, req domain.JobRequest) (*status.Job, error) {
	for attempt := 0; ; attempt++ {
		job := status.NewJob(e.docs, req.UserID, req.FileName)
		if err := job.MarkProcessing(ctx); err != nil {
			return job, &JobError{Stage: StagePersist, Err: err}
		}

		key := e.recordingKey(req.UserID, req.FileName)
		info, err := e.blobs.Attrs(ctx, key)
		if err != nil {
			return job, &JobError{Stage: StageInspect, Err: fmt.Errorf("read audio attributes: %w", err)}
		}

		if normalize.NeedsTranscoding(info.ContentType) {
			// The transcode target is always directly supported, so a
			// second unsupported pass means the migration misbehaved.
			if attempt > 0 {
				return job, &JobError{Stage: StageNormalize,
					Err: fmt.Errorf("audio still unsupported (%s) after transcoding", info.ContentType)}
			}

			log.Printf("user=%s file=%s: transcoding %s audio", req.UserID, req.FileName, info.ContentType)
			migration, err := e.normalizer.Transcode(ctx, req.UserID, req.FileName)
			if err != nil {
				return job, &JobError{Stage: StageNormalize, Err: err}
			}

			req.URI = migration.URI
			req.FileName = migration.FileName
			rate := migration.SampleRateHertz
			req.SampleRateHertz = &rate
			continue
		}

		cfg, err := recognize.BuildConfig(req, info.ContentType)
		if err != nil {
			return job, &JobError{Stage: StageConfigure, Err: err}
		}

		log.Printf("user=%s file=%s: recognizing lang=%s model=%s encoding=%q",
			req.UserID, req.FileName, cfg.LanguageCode, cfg.Model, cfg.Encoding)

		recognizeCtx, cancel := context.WithTimeout(ctx, e.waitTimeout)
		resp, err := e.recognizer.LongRunningRecognize(recognizeCtx, cfg, req.URI)
		cancel()
		if err != nil {
			return job, &JobError{Stage: StageRecognize, Err: err}
		}

		if err := e.blobs.UploadBytes(ctx, key+archiveSuffix, []byte(resp.Raw), "text/plain"); err != nil {
			return job, &JobError{Stage: StageArchive, Err: fmt.Errorf("archive raw response: %w", err)}
		}

		parsed := recognize.Parse(resp, req.Diarize)
		if err := e.docs.UpdateTranscriptResult(ctx, req.UserID, req.FileName, parsed.Transcript, parsed.Timeline); err != nil {
			return job, &JobError{Stage: StagePersist, Err: fmt.Errorf("persist transcript: %w", err)}
		}

		if err := job.MarkSuccess(ctx); err != nil {
			return job, &JobError{Stage: StagePersist, Err: err}
		}

		e.recordUsage(ctx, req)
		return job, nil
	}
}

// recordUsage charges the recording's duration to the user. Accounting
// failures do not fail an already-successful job; they are logged for
// manual reconciliation.
func (e *Executor) recordUsage(ctx context.Context, req domain.JobRequest) {
	rec, err := e.docs.GetRecording(ctx, req.UserID, req.FileName)
	if err != nil {
		log.Printf("user=%s file=%s: usage accounting skipped, read recording: %v",
			req.UserID, req.FileName, err)
		return
	}
	if err := e.usage.Record(ctx, req.UserID, rec.LengthSeconds); err != nil {
		log.Printf("user=%s file=%s: usage accounting failed: %v", req.UserID, req.FileName, err)
	}
}

// recordingKey builds the blob key for one user's recording.
func (e *Executor) recordingKey(userID, fileName string) string {
	return e.folder + "/" + userID + "/" + fileName
}

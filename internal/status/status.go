// Package status tracks one job's transcript lifecycle and persists each
// transition on the recording document.
package status

import (
	"context"
	"fmt"
	"sync"

	"github.com/minutescript/MinScript-Backend/internal/docstore"
	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// ErrInvalidTransition is returned for illegal lifecycle edges, e.g.
// marking a terminal job as processing again.
var ErrInvalidTransition = fmt.Errorf("invalid status transition")

// Job tracks the lifecycle of one recording's transcription. The persisted
// document starts in the implicit queued state; every transition is a
// single synchronous field write. Concurrent processing of the same
// recording key is prevented upstream by at-most-once delivery, not here.
type Job struct {
	mu       sync.Mutex
	docs     docstore.Store
	userID   string
	fileName string
	current  domain.TranscriptStatus
}

// NewJob creates a tracker for one recording key in the queued state.
func NewJob(docs docstore.Store, userID, fileName string) *Job {
	return &Job{
		docs:     docs,
		userID:   userID,
		fileName: fileName,
		current:  domain.TranscriptStatusQueued,
	}
}

// Current returns the tracker's view of the job status.
func (j *Job) Current() domain.TranscriptStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current
}

// MarkProcessing transitions the job to processing.
func (j *Job) MarkProcessing(ctx context.Context) error {
	return j.transition(ctx, domain.TranscriptStatusProcessing, string(domain.TranscriptStatusProcessing))
}

// MarkSuccess transitions the job to its terminal success state. Called
// only after transcript and timeline are durably written.
func (j *Job) MarkSuccess(ctx context.Context) error {
	return j.transition(ctx, domain.TranscriptStatusSuccess, string(domain.TranscriptStatusSuccess))
}

// MarkError transitions the job to its terminal error state, persisting
// the upstream cause alongside the status.
func (j *Job) MarkError(ctx context.Context, cause string) error {
	return j.transition(ctx, domain.TranscriptStatusError,
		fmt.Sprintf("%s: %s", domain.TranscriptStatusError, cause))
}

// transition validates the edge, persists the new value, and only then
// updates the in-memory state, so a failed write leaves the tracker
// where it was.
func (j *Job) transition(ctx context.Context, to domain.TranscriptStatus, persisted string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !isValidTransition(j.current, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.current, to)
	}

	if err := j.docs.UpdateTranscriptStatus(ctx, j.userID, j.fileName, persisted); err != nil {
		return fmt.Errorf("persist status %s: %w", to, err)
	}

	j.current = to
	return nil
}

// isValidTransition enforces the allowed lifecycle edges. Errors may be
// reached straight from queued: input validation can fail a job before
// it ever starts processing.
func isValidTransition(from, to domain.TranscriptStatus) bool {
	switch from {
	case domain.TranscriptStatusQueued:
		return to == domain.TranscriptStatusProcessing || to == domain.TranscriptStatusError
	case domain.TranscriptStatusProcessing:
		return to == domain.TranscriptStatusSuccess || to == domain.TranscriptStatusError
	default:
		return false
	}
}

// Package docstore defines the document store holding recording metadata
// and per-user usage ledgers, with Firestore and SQLite backends.
package docstore

import (
	"context"
	"errors"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// ErrNotFound is returned when the addressed document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is the document contract used by the executor pipeline.
//
// Recording documents are addressed by (userID, fileName); ledger
// documents by userID alone. Every update method is a single synchronous
// field write with no optimistic-concurrency check: only the job holding
// a recording key is expected to write to it.
type Store interface {
	GetRecording(ctx context.Context, userID, fileName string) (domain.Recording, error)
	// PutRecording creates or fully replaces the recording document.
	// Together with DeleteRecording it forms the copy-then-delete
	// migration used after transcoding; Put is idempotent and deleting
	// an absent document is a no-op, so an interrupted migration can be
	// re-run.
	PutRecording(ctx context.Context, userID, fileName string, rec domain.Recording) error
	DeleteRecording(ctx context.Context, userID, fileName string) error

	UpdateMigratedAudio(ctx context.Context, userID, fileName string, m domain.AudioMigration) error
	UpdateTranscriptStatus(ctx context.Context, userID, fileName, status string) error
	UpdateTranscriptResult(ctx context.Context, userID, fileName, transcript string, words []domain.Word) error

	GetLedger(ctx context.Context, userID string) (domain.Ledger, error)
	SetUsedMinutes(ctx context.Context, userID string, minutes int64) error
	SetNumRecordings(ctx context.Context, userID string, count int64) error
}

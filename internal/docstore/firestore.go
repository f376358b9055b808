package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

const (
	usersCollection      = "users"
	recordingsCollection = "recordings"
	metadataCollection   = "user_metadata"
)

// FirestoreStore implements Store on Cloud Firestore. Recording documents
// live at users/{uid}/recordings/{filename}, ledgers at user_metadata/{uid}.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an existing Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// recordingRef resolves the document reference for one recording.
func (s *FirestoreStore) recordingRef(userID, fileName string) *firestore.DocumentRef {
	return s.client.Collection(usersCollection).Doc(userID).
		Collection(recordingsCollection).Doc(fileName)
}

// ledgerRef resolves the document reference for one user's ledger.
func (s *FirestoreStore) ledgerRef(userID string) *firestore.DocumentRef {
	return s.client.Collection(metadataCollection).Doc(userID)
}

// GetRecording reads and decodes one recording document.
func (s *FirestoreStore) GetRecording(ctx context.Context, userID, fileName string) (domain.Recording, error) {
	snap, err := s.recordingRef(userID, fileName).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Recording{}, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, fileName)
		}
		return domain.Recording{}, fmt.Errorf("get recording %s/%s: %w", userID, fileName, err)
	}

	var rec domain.Recording
	if err := snap.DataTo(&rec); err != nil {
		return domain.Recording{}, fmt.Errorf("decode recording %s/%s: %w", userID, fileName, err)
	}
	return rec, nil
}

// PutRecording creates or replaces one recording document.
func (s *FirestoreStore) PutRecording(ctx context.Context, userID, fileName string, rec domain.Recording) error {
	if _, err := s.recordingRef(userID, fileName).Set(ctx, rec); err != nil {
		return fmt.Errorf("put recording %s/%s: %w", userID, fileName, err)
	}
	return nil
}

// DeleteRecording removes one recording document; missing is a no-op.
func (s *FirestoreStore) DeleteRecording(ctx context.Context, userID, fileName string) error {
	if _, err := s.recordingRef(userID, fileName).Delete(ctx); err != nil {
		return fmt.Errorf("delete recording %s/%s: %w", userID, fileName, err)
	}
	return nil
}

// UpdateMigratedAudio rewrites location fields after a transcode migration.
func (s *FirestoreStore) UpdateMigratedAudio(ctx context.Context, userID, fileName string, m domain.AudioMigration) error {
	_, err := s.recordingRef(userID, fileName).Update(ctx, []firestore.Update{
		{Path: "file_name", Value: m.FileName},
		{Path: "format", Value: m.Format},
		{Path: "sample_rate_hertz", Value: m.SampleRateHertz},
		{Path: "uri", Value: m.URI},
		{Path: "content_hash", Value: m.ContentHash},
	})
	if err != nil {
		return fmt.Errorf("update migrated audio %s/%s: %w", userID, fileName, err)
	}
	return nil
}

// UpdateTranscriptStatus writes the transcript_status field.
func (s *FirestoreStore) UpdateTranscriptStatus(ctx context.Context, userID, fileName, status string) error {
	_, err := s.recordingRef(userID, fileName).Update(ctx, []firestore.Update{
		{Path: "transcript_status", Value: status},
	})
	if err != nil {
		return fmt.Errorf("update transcript status %s/%s: %w", userID, fileName, err)
	}
	return nil
}

// UpdateTranscriptResult writes transcript text and word timeline together.
func (s *FirestoreStore) UpdateTranscriptResult(ctx context.Context, userID, fileName, transcript string, words []domain.Word) error {
	_, err := s.recordingRef(userID, fileName).Update(ctx, []firestore.Update{
		{Path: "transcript", Value: transcript},
		{Path: "word_ts", Value: words},
	})
	if err != nil {
		return fmt.Errorf("update transcript result %s/%s: %w", userID, fileName, err)
	}
	return nil
}

// GetLedger reads one user's usage ledger.
func (s *FirestoreStore) GetLedger(ctx context.Context, userID string) (domain.Ledger, error) {
	snap, err := s.ledgerRef(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Ledger{}, fmt.Errorf("%w: ledger %s", ErrNotFound, userID)
		}
		return domain.Ledger{}, fmt.Errorf("get ledger %s: %w", userID, err)
	}

	var led domain.Ledger
	if err := snap.DataTo(&led); err != nil {
		return domain.Ledger{}, fmt.Errorf("decode ledger %s: %w", userID, err)
	}
	return led, nil
}

// SetUsedMinutes writes the used_minutes counter.
func (s *FirestoreStore) SetUsedMinutes(ctx context.Context, userID string, minutes int64) error {
	_, err := s.ledgerRef(userID).Update(ctx, []firestore.Update{
		{Path: "used_minutes", Value: minutes},
	})
	if err != nil {
		return fmt.Errorf("update used_minutes %s: %w", userID, err)
	}
	return nil
}

// SetNumRecordings writes the num_recordings counter.
func (s *FirestoreStore) SetNumRecordings(ctx context.Context, userID string, count int64) error {
	_, err := s.ledgerRef(userID).Update(ctx, []firestore.Update{
		{Path: "num_recordings", Value: count},
	})
	if err != nil {
		return fmt.Errorf("update num_recordings %s: %w", userID, err)
	}
	return nil
}

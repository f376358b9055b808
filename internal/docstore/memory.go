package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// MemStore is an in-memory Store used by tests and local dry runs.
type MemStore struct {
	mu         sync.Mutex
	recordings map[string]domain.Recording
	ledgers    map[string]domain.Ledger
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		recordings: make(map[string]domain.Recording),
		ledgers:    make(map[string]domain.Ledger),
	}
}

// recordingKey joins the document address into one map key.
func recordingKey(userID, fileName string) string {
	return userID + "/" + fileName
}

// GetRecording reads one recording document.
func (s *MemStore) GetRecording(ctx context.Context, userID, fileName string) (domain.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recordings[recordingKey(userID, fileName)]
	if !ok {
		return domain.Recording{}, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, fileName)
	}
	return rec, nil
}

// PutRecording creates or replaces one recording document.
func (s *MemStore) PutRecording(ctx context.Context, userID, fileName string, rec domain.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordings[recordingKey(userID, fileName)] = rec
	return nil
}

// DeleteRecording removes one recording document; missing is a no-op.
func (s *MemStore) DeleteRecording(ctx context.Context, userID, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recordings, recordingKey(userID, fileName))
	return nil
}

// UpdateMigratedAudio rewrites location fields after a transcode migration.
func (s *MemStore) UpdateMigratedAudio(ctx context.Context, userID, fileName string, m domain.AudioMigration) error {
	return s.update(userID, fileName, func(rec *domain.Recording) {
		rec.FileName = m.FileName
		rec.Format = m.Format
		rec.SampleRateHertz = m.SampleRateHertz
		rec.URI = m.URI
		rec.ContentHash = m.ContentHash
	})
}

// UpdateTranscriptStatus writes the transcript status field.
func (s *MemStore) UpdateTranscriptStatus(ctx context.Context, userID, fileName, status string) error {
	return s.update(userID, fileName, func(rec *domain.Recording) {
		rec.TranscriptStatus = status
	})
}

// UpdateTranscriptResult writes transcript text and word timeline together.
func (s *MemStore) UpdateTranscriptResult(ctx context.Context, userID, fileName, transcript string, words []domain.Word) error {
	return s.update(userID, fileName, func(rec *domain.Recording) {
		rec.Transcript = transcript
		rec.WordTimeline = words
	})
}

// update applies one mutation to an existing recording document.
func (s *MemStore) update(userID, fileName string, fn func(*domain.Recording)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordingKey(userID, fileName)
	rec, ok := s.recordings[key]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, userID, fileName)
	}
	fn(&rec)
	s.recordings[key] = rec
	return nil
}

// GetLedger reads one user's usage ledger.
func (s *MemStore) GetLedger(ctx context.Context, userID string) (domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	led, ok := s.ledgers[userID]
	if !ok {
		return domain.Ledger{}, fmt.Errorf("%w: ledger %s", ErrNotFound, userID)
	}
	return led, nil
}

// PutLedger creates or replaces one ledger document.
func (s *MemStore) PutLedger(ctx context.Context, userID string, led domain.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[userID] = led
	return nil
}

// SetUsedMinutes writes the used-minutes counter.
func (s *MemStore) SetUsedMinutes(ctx context.Context, userID string, minutes int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	led, ok := s.ledgers[userID]
	if !ok {
		return fmt.Errorf("%w: ledger %s", ErrNotFound, userID)
	}
	led.UsedMinutes = minutes
	s.ledgers[userID] = led
	return nil
}

// SetNumRecordings writes the recordings counter.
func (s *MemStore) SetNumRecordings(ctx context.Context, userID string, count int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	led, ok := s.ledgers[userID]
	if !ok {
		return fmt.Errorf("%w: ledger %s", ErrNotFound, userID)
	}
	led.NumRecordings = count
	s.ledgers[userID] = led
	return nil
}

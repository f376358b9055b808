package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

const sqliteSchema = `
PRAGMA busy_timeout  = 10000;
PRAGMA journal_mode  = WAL;
PRAGMA synchronous   = NORMAL;
PRAGMA foreign_keys  = ON;

create table if not exists recordings (
	user_id           text not null,
	file_name         text not null,
	uri               text not null default '',
	format            text not null default '',
	sample_rate_hertz integer not null default 0,
	length            real not null default 0,
	content_hash      text not null default '',
	transcript_status text not null default '',
	transcript        text not null default '',
	word_ts           text not null default '[]',
	primary key (user_id, file_name)
);

create table if not exists user_metadata (
	user_id          text primary key,
	used_minutes     integer not null default 0,
	assigned_minutes integer not null default 0,
	num_recordings   integer not null default 0,
	max_recordings   integer not null default 0,
	enabled          integer not null default 1
);`

// SQLiteStore implements Store on a local SQLite database. It mirrors the
// Firestore document layout for local development and integration tests
// that run without cloud credentials.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and applies the
// schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetRecording reads and decodes one recording row.
func (s *SQLiteStore) GetRecording(ctx context.Context, userID, fileName string) (domain.Recording, error) {
	var rec domain.Recording
	var wordJSON string

	err := s.db.QueryRowContext(ctx, `
		select uri, file_name, format, sample_rate_hertz, length,
		       content_hash, transcript_status, transcript, word_ts
		from recordings where user_id = $1 and file_name = $2`,
		userID, fileName,
	).Scan(&rec.URI, &rec.FileName, &rec.Format, &rec.SampleRateHertz, &rec.LengthSeconds,
		&rec.ContentHash, &rec.TranscriptStatus, &rec.Transcript, &wordJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Recording{}, fmt.Errorf("%w: %s/%s", ErrNotFound, userID, fileName)
		}
		return domain.Recording{}, fmt.Errorf("get recording %s/%s: %w", userID, fileName, err)
	}

	if err := json.Unmarshal([]byte(wordJSON), &rec.WordTimeline); err != nil {
		return domain.Recording{}, fmt.Errorf("decode word timeline %s/%s: %w", userID, fileName, err)
	}
	return rec, nil
}

// PutRecording creates or replaces one recording row.
func (s *SQLiteStore) PutRecording(ctx context.Context, userID, fileName string, rec domain.Recording) error {
	wordJSON, err := json.Marshal(rec.WordTimeline)
	if err != nil {
		return fmt.Errorf("encode word timeline %s/%s: %w", userID, fileName, err)
	}
	if rec.WordTimeline == nil {
		wordJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		insert into recordings (
			user_id, file_name, uri, format, sample_rate_hertz, length,
			content_hash, transcript_status, transcript, word_ts
		) values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		on conflict (user_id, file_name) do update set
			uri = excluded.uri,
			format = excluded.format,
			sample_rate_hertz = excluded.sample_rate_hertz,
			length = excluded.length,
			content_hash = excluded.content_hash,
			transcript_status = excluded.transcript_status,
			transcript = excluded.transcript,
			word_ts = excluded.word_ts`,
		userID, fileName, rec.URI, rec.Format, rec.SampleRateHertz, rec.LengthSeconds,
		rec.ContentHash, rec.TranscriptStatus, rec.Transcript, string(wordJSON))
	if err != nil {
		return fmt.Errorf("put recording %s/%s: %w", userID, fileName, err)
	}
	return nil
}

// DeleteRecording removes one recording row; missing is a no-op.
func (s *SQLiteStore) DeleteRecording(ctx context.Context, userID, fileName string) error {
	_, err := s.db.ExecContext(ctx,
		"delete from recordings where user_id = $1 and file_name = $2", userID, fileName)
	if err != nil {
		return fmt.Errorf("delete recording %s/%s: %w", userID, fileName, err)
	}
	return nil
}

// UpdateMigratedAudio rewrites location fields after a transcode migration.
func (s *SQLiteStore) UpdateMigratedAudio(ctx context.Context, userID, fileName string, m domain.AudioMigration) error {
	return s.updateRecording(ctx, userID, fileName, `
		update recordings
		set file_name = $1, format = $2, sample_rate_hertz = $3, uri = $4, content_hash = $5
		where user_id = $6 and file_name = $7`,
		m.FileName, m.Format, m.SampleRateHertz, m.URI, m.ContentHash, userID, fileName)
}

// UpdateTranscriptStatus writes the transcript_status column.
func (s *SQLiteStore) UpdateTranscriptStatus(ctx context.Context, userID, fileName, status string) error {
	return s.updateRecording(ctx, userID, fileName, `
		update recordings set transcript_status = $1
		where user_id = $2 and file_name = $3`,
		status, userID, fileName)
}

// UpdateTranscriptResult writes transcript text and word timeline together.
func (s *SQLiteStore) UpdateTranscriptResult(ctx context.Context, userID, fileName, transcript string, words []domain.Word) error {
	if words == nil {
		words = []domain.Word{}
	}
	wordJSON, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("encode word timeline %s/%s: %w", userID, fileName, err)
	}

	return s.updateRecording(ctx, userID, fileName, `
		update recordings set transcript = $1, word_ts = $2
		where user_id = $3 and file_name = $4`,
		transcript, string(wordJSON), userID, fileName)
}

// updateRecording runs one update statement and maps zero affected rows to
// ErrNotFound, matching the Firestore behavior of updating missing docs.
func (s *SQLiteStore) updateRecording(ctx context.Context, userID, fileName, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update recording %s/%s: %w", userID, fileName, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, userID, fileName)
	}
	return nil
}

// GetLedger reads one user's usage ledger row.
func (s *SQLiteStore) GetLedger(ctx context.Context, userID string) (domain.Ledger, error) {
	var led domain.Ledger
	var enabled int

	err := s.db.QueryRowContext(ctx, `
		select used_minutes, assigned_minutes, num_recordings, max_recordings, enabled
		from user_metadata where user_id = $1`, userID,
	).Scan(&led.UsedMinutes, &led.AssignedMinutes, &led.NumRecordings, &led.MaxRecordings, &enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Ledger{}, fmt.Errorf("%w: ledger %s", ErrNotFound, userID)
		}
		return domain.Ledger{}, fmt.Errorf("get ledger %s: %w", userID, err)
	}

	led.Enabled = enabled == 1
	return led, nil
}

// SetUsedMinutes writes the used_minutes counter.
func (s *SQLiteStore) SetUsedMinutes(ctx context.Context, userID string, minutes int64) error {
	return s.updateLedger(ctx, userID,
		"update user_metadata set used_minutes = $1 where user_id = $2", minutes, userID)
}

// SetNumRecordings writes the num_recordings counter.
func (s *SQLiteStore) SetNumRecordings(ctx context.Context, userID string, count int64) error {
	return s.updateLedger(ctx, userID,
		"update user_metadata set num_recordings = $1 where user_id = $2", count, userID)
}

// PutLedger creates or replaces one ledger row. Used by local tooling and
// tests to seed accounts.
func (s *SQLiteStore) PutLedger(ctx context.Context, userID string, led domain.Ledger) error {
	enabled := 0
	if led.Enabled {
		enabled = 1
	}

	_, err := s.db.ExecContext(ctx, `
		insert into user_metadata (user_id, used_minutes, assigned_minutes, num_recordings, max_recordings, enabled)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (user_id) do update set
			used_minutes = excluded.used_minutes,
			assigned_minutes = excluded.assigned_minutes,
			num_recordings = excluded.num_recordings,
			max_recordings = excluded.max_recordings,
			enabled = excluded.enabled`,
		userID, led.UsedMinutes, led.AssignedMinutes, led.NumRecordings, led.MaxRecordings, enabled)
	if err != nil {
		return fmt.Errorf("put ledger %s: %w", userID, err)
	}
	return nil
}

// updateLedger runs one ledger update and maps zero affected rows to
// ErrNotFound.
func (s *SQLiteStore) updateLedger(ctx context.Context, userID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update ledger %s: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: ledger %s", ErrNotFound, userID)
	}
	return nil
}

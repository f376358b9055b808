package domain

// TranscriptStatus tracks the lifecycle of one transcription job.
type TranscriptStatus string

const (
	TranscriptStatusQueued     TranscriptStatus = "queued"
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusSuccess    TranscriptStatus = "success"
	TranscriptStatusError      TranscriptStatus = "error"
)

// JobRequest is one dequeued transcription request. It is built by the
// ingress service, delivered over the queue, and consumed exactly once.
type JobRequest struct {
	URI                string
	UserID             string
	FileName           string
	MainLanguage       string
	ExtraLanguages     []string
	Diarize            bool
	AutoDetectSpeakers bool
	SpeakerCountMin    *int
	SpeakerCountMax    *int
	SampleRateHertz    *int
}

// Word is one entry of the per-word timeline persisted on a recording.
// Short field names match the wire format consumed by the frontend.
type Word struct {
	Word       string `firestore:"w" json:"w"`
	StartMs    int64  `firestore:"s" json:"s"`
	EndMs      int64  `firestore:"e" json:"e"`
	SpeakerTag int    `firestore:"speaker" json:"speaker"`
}

// Recording is the per-(user, filename) metadata document. The ingress
// service creates it before enqueueing; the executor mutates status,
// transcript, and timeline, and the normalizer migrates it on transcode.
type Recording struct {
	URI              string  `firestore:"uri" json:"uri"`
	FileName         string  `firestore:"file_name" json:"file_name"`
	Format           string  `firestore:"format" json:"format"`
	SampleRateHertz  int     `firestore:"sample_rate_hertz" json:"sample_rate_hertz"`
	LengthSeconds    float64 `firestore:"length" json:"length"`
	ContentHash      string  `firestore:"content_hash,omitempty" json:"content_hash,omitempty"`
	TranscriptStatus string  `firestore:"transcript_status" json:"transcript_status"`
	Transcript       string  `firestore:"transcript,omitempty" json:"transcript,omitempty"`
	WordTimeline     []Word  `firestore:"word_ts,omitempty" json:"word_ts,omitempty"`
}

// AudioMigration describes where a transcoded recording ended up.
type AudioMigration struct {
	URI             string
	FileName        string
	Format          string
	SampleRateHertz int
	ContentHash     string
}

// Ledger is the per-user usage accounting document. Cap enforcement
// happens in the ingress service before a job is enqueued; the executor
// only adds to the counters.
type Ledger struct {
	UsedMinutes     int64 `firestore:"used_minutes" json:"used_minutes"`
	AssignedMinutes int64 `firestore:"assigned_minutes" json:"assigned_minutes"`
	NumRecordings   int64 `firestore:"num_recordings" json:"num_recordings"`
	MaxRecordings   int64 `firestore:"max_recordings" json:"max_recordings"`
	Enabled         bool  `firestore:"enabled" json:"enabled"`
}

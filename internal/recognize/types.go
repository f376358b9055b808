// Package recognize builds recognition configurations, drives the
// long-running speech recognition call, and flattens its response into a
// transcript and word timeline.
package recognize

import "context"

// Encoding identifies the audio encoding declared to the recognizer.
// An empty value lets the service infer the encoding itself.
type Encoding string

const (
	EncodingUnspecified Encoding = ""
	EncodingLinearPCM   Encoding = "LINEAR16"
	EncodingOggOpus     Encoding = "OGG_OPUS"
)

// Recognition models. The higher-accuracy video model is only available
// for single-language en-US requests.
const (
	ModelVideo   = "video"
	ModelDefault = "default"
)

// DiarizationConfig enables speaker attribution with optional bounds.
// Zero bounds mean the service picks the speaker count itself.
type DiarizationConfig struct {
	MinSpeakerCount int
	MaxSpeakerCount int
}

// Config is the recognition request configuration, derived fresh per job
// and never persisted.
type Config struct {
	Encoding                   Encoding
	SampleRateHertz            int
	LanguageCode               string
	AlternativeLanguageCodes   []string
	EnableWordTimeOffsets      bool
	EnableAutomaticPunctuation bool
	MaxAlternatives            int
	ProfanityFilter            bool
	EnableWordConfidence       bool
	AudioChannelCount          int
	Model                      string
	Diarization                *DiarizationConfig
}

// Offset is an accumulated time offset split into calendar-style fields.
// Absent fields are zero.
type Offset struct {
	Hours   int64
	Minutes int64
	Seconds int64
	Nanos   int64
}

// Milliseconds collapses the offset into one truncated millisecond count.
func (o Offset) Milliseconds() int64 {
	return o.Hours*3_600_000 + o.Minutes*60_000 + o.Seconds*1_000 + o.Nanos/1_000_000
}

// WordInfo is one recognized word with timing and speaker attribution.
type WordInfo struct {
	Word       string
	StartTime  Offset
	EndTime    Offset
	SpeakerTag int
}

// Alternative is one candidate transcription of a result segment.
type Alternative struct {
	Transcript string
	Confidence float64
	Words      []WordInfo
}

// Result is one contiguous recognition result segment. Alternatives are
// ordered best-first.
type Result struct {
	Alternatives []Alternative
}

// Response is the completed recognition operation result. Raw carries the
// service's own textual rendering for the audit archive.
type Response struct {
	Results []Result
	Raw     string
}

// Client is the long-running recognition contract. Implementations block
// until the operation completes or ctx expires.
type Client interface {
	LongRunningRecognize(ctx context.Context, cfg Config, audioURI string) (Response, error)
}

package recognize

import (
	"errors"
	"strings"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// DefaultLocale is the only locale the video model accepts.
const DefaultLocale = "en-US"

// Mime types with a known recognizer encoding.
const (
	MimeTypeWave = "audio/wave"
	MimeTypeOpus = "audio/opus"
)

// ErrSpeakerBounds reports a diarization request without auto-detection
// that is missing an explicit speaker-count bound. The ingress contract
// requires both bounds in that mode; defaulting silently would change
// recognition semantics, so the job fails instead.
var ErrSpeakerBounds = errors.New("diarization without auto-detect requires min and max speaker counts")

// BuildConfig derives the recognition configuration for one job. Rules
// apply in order and later rules overwrite earlier ones: base flags,
// explicit sample rate, mime-type encoding, model downgrade for
// non-en-US or multi-language requests, then diarization.
func BuildConfig(req domain.JobRequest, mimeType string) (Config, error) {
	cfg := Config{
		LanguageCode:               req.MainLanguage,
		AlternativeLanguageCodes:   req.ExtraLanguages,
		EnableWordTimeOffsets:      true,
		EnableAutomaticPunctuation: true,
		MaxAlternatives:            1,
		ProfanityFilter:            true,
		EnableWordConfidence:       true,
		AudioChannelCount:          1,
		Model:                      ModelVideo,
	}

	if req.SampleRateHertz != nil {
		cfg.SampleRateHertz = *req.SampleRateHertz
	}

	switch mimeType {
	case MimeTypeWave:
		cfg.Encoding = EncodingLinearPCM
	case MimeTypeOpus:
		cfg.Encoding = EncodingOggOpus
	}

	if len(req.ExtraLanguages) > 0 || !strings.EqualFold(req.MainLanguage, DefaultLocale) {
		cfg.Model = ModelDefault
	}

	switch {
	case req.AutoDetectSpeakers:
		if req.Diarize {
			cfg.Diarization = &DiarizationConfig{}
		}
	case req.Diarize:
		if req.SpeakerCountMin == nil || req.SpeakerCountMax == nil {
			return Config{}, ErrSpeakerBounds
		}
		cfg.Diarization = &DiarizationConfig{
			MinSpeakerCount: *req.SpeakerCountMin,
			MaxSpeakerCount: *req.SpeakerCountMax,
		}
	}

	return cfg, nil
}

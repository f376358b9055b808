// Package queue decodes transcription job messages and consumes them
// from the Pub/Sub subscription.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// ErrMissingField reports a job message without a required field. Such a
// message is dropped without retry; the ingress service owns the payload
// contract.
var ErrMissingField = errors.New("job message missing required field")

// jobMessage is the queue wire format published by the ingress service.
// Optional fields default when absent.
type jobMessage struct {
	URI             string   `json:"uri"`
	UserID          string   `json:"user_id"`
	FileName        string   `json:"filename"`
	MainLanguage    string   `json:"main_lang"`
	ExtraLanguages  []string `json:"extra_lang"`
	Diarize         bool     `json:"diarize"`
	AutoDetect      bool     `json:"auto_detect"`
	SpeakersMin     *int     `json:"no_speakers_min"`
	SpeakersMax     *int     `json:"no_speakers_max"`
	SampleRateHertz *int     `json:"sample_rate_hertz"`
}

// DecodeJobMessage parses one queue payload into a job request,
// validating required fields and applying optional-field defaults.
func DecodeJobMessage(data []byte) (domain.JobRequest, error) {
	var msg jobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.JobRequest{}, fmt.Errorf("decode job message: %w", err)
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"uri", msg.URI},
		{"user_id", msg.UserID},
		{"filename", msg.FileName},
		{"main_lang", msg.MainLanguage},
	} {
		if field.value == "" {
			return domain.JobRequest{}, fmt.Errorf("%w: %s", ErrMissingField, field.name)
		}
	}

	extra := msg.ExtraLanguages
	if extra == nil {
		extra = []string{}
	}

	return domain.JobRequest{
		URI:                msg.URI,
		UserID:             msg.UserID,
		FileName:           msg.FileName,
		MainLanguage:       msg.MainLanguage,
		ExtraLanguages:     extra,
		Diarize:            msg.Diarize,
		AutoDetectSpeakers: msg.AutoDetect,
		SpeakerCountMin:    msg.SpeakersMin,
		SpeakerCountMax:    msg.SpeakersMax,
		SampleRateHertz:    msg.SampleRateHertz,
	}, nil
}

package recognize

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1p1beta1"
	"cloud.google.com/go/speech/apiv1p1beta1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/types/known/durationpb"
)

// GoogleClient implements Client on the Cloud Speech-to-Text v1p1beta1
// long-running API.
type GoogleClient struct {
	client *speech.Client
}

// NewGoogleClient dials the Speech API with the given client options.
func NewGoogleClient(ctx context.Context, opts ...option.ClientOption) (*GoogleClient, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial speech client: %w", err)
	}
	return &GoogleClient{client: client}, nil
}

// Close releases the underlying gRPC connection.
func (c *GoogleClient) Close() error {
	return c.client.Close()
}

// LongRunningRecognize submits the recognition operation and blocks until
// it completes or ctx expires. The caller bounds the wait through ctx.
func (c *GoogleClient) LongRunningRecognize(ctx context.Context, cfg Config, audioURI string) (Response, error) {
	op, err := c.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: toProtoConfig(cfg),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audioURI},
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("submit recognition: %w", err)
	}

	resp, err := op.Wait(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("await recognition: %w", err)
	}

	return fromProtoResponse(resp), nil
}

// toProtoConfig maps the neutral config onto the wire request type.
func toProtoConfig(cfg Config) *speechpb.RecognitionConfig {
	out := &speechpb.RecognitionConfig{
		SampleRateHertz:            int32(cfg.SampleRateHertz),
		LanguageCode:               cfg.LanguageCode,
		AlternativeLanguageCodes:   cfg.AlternativeLanguageCodes,
		EnableWordTimeOffsets:      cfg.EnableWordTimeOffsets,
		EnableAutomaticPunctuation: cfg.EnableAutomaticPunctuation,
		MaxAlternatives:            int32(cfg.MaxAlternatives),
		ProfanityFilter:            cfg.ProfanityFilter,
		EnableWordConfidence:       cfg.EnableWordConfidence,
		AudioChannelCount:          int32(cfg.AudioChannelCount),
		Model:                      cfg.Model,
	}

	switch cfg.Encoding {
	case EncodingLinearPCM:
		out.Encoding = speechpb.RecognitionConfig_LINEAR16
	case EncodingOggOpus:
		out.Encoding = speechpb.RecognitionConfig_OGG_OPUS
	}

	if cfg.Diarization != nil {
		out.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          int32(cfg.Diarization.MinSpeakerCount),
			MaxSpeakerCount:          int32(cfg.Diarization.MaxSpeakerCount),
		}
	}

	return out
}

// fromProtoResponse maps the wire response onto neutral result types and
// renders the raw proto for the audit archive.
func fromProtoResponse(resp *speechpb.LongRunningRecognizeResponse) Response {
	out := Response{
		Results: make([]Result, 0, len(resp.GetResults())),
		Raw:     prototext.Format(resp),
	}

	for _, result := range resp.GetResults() {
		alternatives := make([]Alternative, 0, len(result.GetAlternatives()))
		for _, alt := range result.GetAlternatives() {
			words := make([]WordInfo, 0, len(alt.GetWords()))
			for _, w := range alt.GetWords() {
				words = append(words, WordInfo{
					Word:       w.GetWord(),
					StartTime:  fromProtoDuration(w.GetStartTime()),
					EndTime:    fromProtoDuration(w.GetEndTime()),
					SpeakerTag: int(w.GetSpeakerTag()),
				})
			}
			alternatives = append(alternatives, Alternative{
				Transcript: alt.GetTranscript(),
				Confidence: float64(alt.GetConfidence()),
				Words:      words,
			})
		}
		out.Results = append(out.Results, Result{Alternatives: alternatives})
	}

	return out
}

// fromProtoDuration maps a proto duration into an accumulated offset.
func fromProtoDuration(d *durationpb.Duration) Offset {
	return Offset{
		Seconds: d.GetSeconds(),
		Nanos:   int64(d.GetNanos()),
	}
}

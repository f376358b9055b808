package recognize

import (
	"strings"

	"github.com/minutescript/MinScript-Backend/internal/domain"
)

// transcriptSeparator trails every segment's text in the concatenated
// transcript, matching the stored format the frontend renders.
const transcriptSeparator = " \n"

// ParsedTranscript is the flattened recognition outcome.
type ParsedTranscript struct {
	Transcript string
	Timeline   []domain.Word
}

// Parse flattens a recognition response. The transcript concatenates the
// top alternative of every segment in order. The word timeline is built
// from the final segment's top alternative only: with diarization the
// service repeats the full speaker-tagged word list, cumulative over the
// whole audio, on the last segment alone, so merging across segments
// would duplicate words. The timeline is omitted when diarization was not
// requested.
func Parse(resp Response, diarize bool) ParsedTranscript {
	var b strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		b.WriteString(result.Alternatives[0].Transcript)
		b.WriteString(transcriptSeparator)
	}

	parsed := ParsedTranscript{
		Transcript: b.String(),
		Timeline:   []domain.Word{},
	}
	if !diarize || len(resp.Results) == 0 {
		return parsed
	}

	last := resp.Results[len(resp.Results)-1]
	if len(last.Alternatives) == 0 {
		return parsed
	}

	words := last.Alternatives[0].Words
	parsed.Timeline = make([]domain.Word, 0, len(words))
	for _, w := range words {
		parsed.Timeline = append(parsed.Timeline, domain.Word{
			Word:       w.Word,
			StartMs:    w.StartTime.Milliseconds(),
			EndMs:      w.EndTime.Milliseconds(),
			SpeakerTag: w.SpeakerTag,
		})
	}
	return parsed
}

package recognize

import (
	"testing"
)

// word builds a WordInfo with second-resolution timing.
func word(text string, startSec, endSec int64, speaker int) WordInfo {
	return WordInfo{
		Word:       text,
		StartTime:  Offset{Seconds: startSec},
		EndTime:    Offset{Seconds: endSec},
		SpeakerTag: speaker,
	}
}

// TestOffsetMilliseconds verifies the accumulated-field conversion.
func TestOffsetMilliseconds(t *testing.T) {
	got := Offset{Hours: 1, Minutes: 2, Seconds: 3, Nanos: 400_000_000}.Milliseconds()
	if got != 3_723_400 {
		t.Fatalf("milliseconds = %d, want 3723400", got)
	}

	if got := (Offset{}).Milliseconds(); got != 0 {
		t.Fatalf("zero offset = %d, want 0", got)
	}

	// nanos truncate rather than round
	if got := (Offset{Nanos: 1_999_999}).Milliseconds(); got != 1 {
		t.Fatalf("truncated nanos = %d, want 1", got)
	}
}

// TestParseTimelineFromLastSegmentOnly verifies that diarized words come
// from the final segment's top alternative alone while the transcript
// spans every segment.
func TestParseTimelineFromLastSegmentOnly(t *testing.T) {
	resp := Response{
		Results: []Result{
			{Alternatives: []Alternative{{Transcript: "first part"}}},
			{Alternatives: []Alternative{{Transcript: "second part"}}},
			{Alternatives: []Alternative{{
				Transcript: "third part",
				Words: []WordInfo{
					word("first", 0, 1, 1),
					word("part", 1, 2, 1),
					word("second", 2, 3, 2),
					word("part", 3, 4, 2),
					word("third", 4, 5, 1),
					word("part", 5, 6, 1),
				},
			}}},
		},
	}

	parsed := Parse(resp, true)
	if parsed.Transcript != "first part \nsecond part \nthird part \n" {
		t.Fatalf("transcript = %q", parsed.Transcript)
	}
	if len(parsed.Timeline) != 6 {
		t.Fatalf("timeline length = %d, want 6", len(parsed.Timeline))
	}
	if parsed.Timeline[0].Word != "first" || parsed.Timeline[0].SpeakerTag != 1 {
		t.Fatalf("timeline[0] = %+v", parsed.Timeline[0])
	}
	if parsed.Timeline[4].StartMs != 4000 || parsed.Timeline[4].EndMs != 5000 {
		t.Fatalf("timeline[4] = %+v", parsed.Timeline[4])
	}
}

// TestParseWithoutDiarizationOmitsTimeline verifies timeline gating.
func TestParseWithoutDiarizationOmitsTimeline(t *testing.T) {
	resp := Response{
		Results: []Result{
			{Alternatives: []Alternative{{
				Transcript: "hello world",
				Words:      []WordInfo{word("hello", 0, 1, 0), word("world", 1, 2, 0)},
			}}},
		},
	}

	parsed := Parse(resp, false)
	if parsed.Transcript != "hello world \n" {
		t.Fatalf("transcript = %q", parsed.Transcript)
	}
	if len(parsed.Timeline) != 0 {
		t.Fatalf("timeline length = %d, want 0", len(parsed.Timeline))
	}
}

// TestParseEmptyResponse verifies graceful handling of no results.
func TestParseEmptyResponse(t *testing.T) {
	parsed := Parse(Response{}, true)
	if parsed.Transcript != "" {
		t.Fatalf("transcript = %q, want empty", parsed.Transcript)
	}
	if parsed.Timeline == nil || len(parsed.Timeline) != 0 {
		t.Fatalf("timeline = %v, want empty non-nil", parsed.Timeline)
	}
}

// TestParseSkipsSegmentsWithoutAlternatives verifies defensive ordering.
func TestParseSkipsSegmentsWithoutAlternatives(t *testing.T) {
	resp := Response{
		Results: []Result{
			{Alternatives: []Alternative{{Transcript: "kept"}}},
			{},
		},
	}

	parsed := Parse(resp, true)
	if parsed.Transcript != "kept \n" {
		t.Fatalf("transcript = %q", parsed.Transcript)
	}
	if len(parsed.Timeline) != 0 {
		t.Fatalf("timeline length = %d, want 0", len(parsed.Timeline))
	}
}

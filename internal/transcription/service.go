// Package transcription talks to the external speech-to-text service. The
// pipeline only depends on the Service contract; the HTTP client underneath
// owns wire format, polling and download details.
package transcription

import (
	"context"

	"voice-qa-go/internal/call"
)

// Options tunes one transcription request.
type Options struct {
	CandidateLocales []string `json:"candidate_locales,omitempty"`
	Diarization      bool     `json:"diarization"`
	MinSpeakers      int      `json:"min_speakers,omitempty"`
	MaxSpeakers      int      `json:"max_speakers,omitempty"`
}

// Result is a completed transcription.
type Result struct {
	Transcript   string        `json:"transcript"`
	Confidence   float64       `json:"confidence"`
	Phrases      []call.Phrase `json:"phrases,omitempty"`
	Locale       string        `json:"locale,omitempty"`
	DurationMs   int64         `json:"duration_ms,omitempty"`
	SpeakerCount int           `json:"speaker_count,omitempty"`
}

// Service transcribes one recording. Calls are independently awaitable and
// may fail transiently with a TransportError.
type Service interface {
	Transcribe(ctx context.Context, audioURL string, opts Options) (Result, error)
}

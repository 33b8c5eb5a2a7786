package transcription

import (
	"context"

	"voice-qa-go/internal/call"
)

// Mock is the offline demo transcriber. Deterministic output, no network.
type Mock struct{}

func (Mock) Transcribe(ctx context.Context, audioURL string, opts Options) (Result, error) {
	return Result{
		Transcript: "Agent: Thank you for calling, how can I help? " +
			"Customer: I was charged a fee I did not expect at checkout. " +
			"Agent: I can see the GST line, let me walk you through the breakdown. " +
			"Customer: Okay, that makes more sense now, thanks.",
		Confidence:   0.93,
		Locale:       "en-IN",
		DurationMs:   184000,
		SpeakerCount: 2,
		Phrases: []call.Phrase{
			{Speaker: 1, Text: "Thank you for calling, how can I help?", OffsetMs: 0, DurationMs: 2800, Confidence: 0.95},
			{Speaker: 2, Text: "I was charged a fee I did not expect at checkout.", OffsetMs: 3100, DurationMs: 3600, Confidence: 0.91},
		},
	}, nil
}

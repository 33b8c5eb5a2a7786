// Package extractor builds completion-backed analyses over call transcripts:
// sentiment segmentation and criteria-driven quality evaluation. Both funnel
// their service calls through the invoker so malformed model output is
// re-prompted with a corrective instruction.
package extractor

import (
	"context"

	"voice-qa-go/internal/invoker"
)

// CompletionService sends one conversation to the language model and returns
// the raw response text. The text may fail to parse as JSON or fail
// structural validation; the invoker handles both identically.
type CompletionService interface {
	Complete(ctx context.Context, messages []invoker.Message) (string, error)
}

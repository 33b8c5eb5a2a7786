package call

import "strings"

// Status represents the lifecycle of one call recording inside a batch run.
type Status string

const (
	StatusPending            Status = "pending"
	StatusTranscribing       Status = "transcribing"
	StatusTranscribed        Status = "transcribed"
	StatusAnalyzingSentiment Status = "analyzing_sentiment"
	StatusEvaluating         Status = "evaluating"
	StatusEvaluated          Status = "evaluated"
	StatusFailed             Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusTranscribed,
	StatusAnalyzingSentiment,
	StatusEvaluating,
	StatusEvaluated,
	StatusFailed,
}

// transitions lists every legal edge. Sentiment and evaluation both roll
// back to transcribed rather than failing the call: a call keeps the best
// stage it completed.
var transitions = map[Status][]Status{
	StatusPending:            {StatusTranscribing},
	StatusTranscribing:       {StatusTranscribed, StatusFailed},
	StatusTranscribed:        {StatusAnalyzingSentiment, StatusEvaluating},
	StatusAnalyzingSentiment: {StatusTranscribed, StatusEvaluating},
	StatusEvaluating:         {StatusEvaluated, StatusTranscribed},
	StatusEvaluated:          {},
	StatusFailed:             {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can ever leave s. A run
// can also settle an item at transcribed when evaluation is exhausted or
// skipped; the executor signals that through its terminal notification
// rather than through the status itself.
func IsTerminal(s Status) bool {
	return s == StatusEvaluated || s == StatusFailed
}

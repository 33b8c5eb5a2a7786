package call

// Outcome is the terminal record for one item: exactly one per input item,
// whatever the item's individual fate.
type Outcome struct {
	ID         string `json:"id"`
	FinalState Status `json:"final_state"`
	Error      string `json:"error,omitempty"`
	Item       *Item  `json:"item"`
}

// BatchResult is the ordered outcome list for a batch run, index-aligned to
// the input item slice regardless of completion order.
type BatchResult []Outcome

// Evaluated returns the outcomes that completed the full pipeline.
func (r BatchResult) Evaluated() []Outcome {
	return r.withState(StatusEvaluated)
}

// Failed returns the outcomes whose transcription never succeeded.
func (r BatchResult) Failed() []Outcome {
	return r.withState(StatusFailed)
}

func (r BatchResult) withState(s Status) []Outcome {
	var out []Outcome
	for _, o := range r {
		if o.FinalState == s {
			out = append(out, o)
		}
	}
	return out
}

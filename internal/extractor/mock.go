package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"voice-qa-go/internal/criteria"
	"voice-qa-go/internal/invoker"
)

// MockCompletion is the offline demo model. It inspects the prompt to decide
// which analysis is being asked for and fabricates a valid response for the
// configured criteria set.
type MockCompletion struct {
	Set *criteria.Set
}

func (m MockCompletion) Complete(ctx context.Context, messages []invoker.Message) (string, error) {
	prompt := ""
	if len(messages) > 0 {
		prompt = messages[0].Content
	}
	if strings.Contains(prompt, "sentiment engine") {
		return `{"overall": "neutral", "segments": [` +
			`{"text": "I was charged a fee I did not expect", "label": "negative", "confidence": 0.84},` +
			`{"text": "that makes more sense now, thanks", "label": "positive", "confidence": 0.9}]}`, nil
	}

	set := m.Set
	if set == nil {
		set = criteria.Default()
	}
	resp := map[string]any{
		"summary":  "The agent resolved a billing confusion quickly and politely. Closing could have confirmed next steps more explicitly.",
		"insights": map[string]any{"escalation_required": false, "call_category": "billing", "topics": []string{"fees", "gst"}, "resolution_likelihood": 0.85},
	}
	var scores []map[string]any
	for _, c := range set.Criteria {
		scores = append(scores, map[string]any{
			"criterion_id": c.ID,
			"score":        c.MaxScore * 0.8,
			"rationale":    "Grounded in the transcript.",
		})
	}
	resp["scores"] = scores
	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

package extractor

import (
	"context"
	"fmt"
	"strings"

	"voice-qa-go/internal/call"
	"voice-qa-go/internal/criteria"
	"voice-qa-go/internal/invoker"
)

const sentimentCorrection = `Your previous response did not match the required shape. Return ONLY a JSON object: {"overall": "positive|neutral|negative", "segments": [{"text": "", "label": "positive|neutral|negative", "confidence": 0.0}]} with no prose around it.`

// sentimentResponse is the raw shape the model returns before normalization.
type sentimentResponse struct {
	Overall  string `json:"overall"`
	Segments []struct {
		Text       string  `json:"text"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"segments"`
}

func buildSentimentPrompt(transcript string) []invoker.Message {
	prompt := fmt.Sprintf(`You are a call sentiment engine.

Analyze this call transcript:
"""%s"""

Return ONLY a JSON object with keys:
overall (positive|neutral|negative),
segments (list of {text, label: positive|neutral|negative, confidence: 0.0-1.0} covering the notable spans of the conversation).

Ground every label in the transcript. Do NOT invent spans.
`, transcript)
	return []invoker.Message{{Role: "user", Content: prompt}}
}

// AnalyzeSentiment runs the sentiment stage for one transcript. Labels are
// normalized, confidences clamped to [0,1].
func AnalyzeSentiment(ctx context.Context, svc CompletionService, transcript string, opts invoker.Options) (*call.SentimentData, error) {
	base := buildSentimentPrompt(transcript)

	send := func(ctx context.Context, rc *invoker.RetryContext) (string, error) {
		return svc.Complete(ctx, rc.Apply(base))
	}

	validate := func(r sentimentResponse) error {
		if _, ok := normalizeLabel(r.Overall); !ok {
			return &invoker.ValidationError{Reason: fmt.Sprintf("overall sentiment %q is not positive/neutral/negative", r.Overall)}
		}
		for i, seg := range r.Segments {
			if _, ok := normalizeLabel(seg.Label); !ok {
				return &invoker.ValidationError{Reason: fmt.Sprintf("segment %d label %q is not positive/neutral/negative", i, seg.Label)}
			}
		}
		return nil
	}

	resp, err := invoker.CallJSON(ctx, send, validate, sentimentCorrection, opts)
	if err != nil {
		return nil, err
	}

	overall, _ := normalizeLabel(resp.Overall)
	data := &call.SentimentData{Overall: overall}
	for _, seg := range resp.Segments {
		label, _ := normalizeLabel(seg.Label)
		data.Segments = append(data.Segments, call.SentimentSegment{
			Text:       seg.Text,
			Label:      label,
			Confidence: criteria.ClampUnit(seg.Confidence),
		})
	}
	return data, nil
}

// normalizeLabel folds common model variants onto the canonical label set.
func normalizeLabel(raw string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(l, "pos"):
		return "positive", true
	case strings.HasPrefix(l, "neg"):
		return "negative", true
	case strings.HasPrefix(l, "neu"), l == "mixed":
		return "neutral", true
	}
	return "", false
}

package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"voice-qa-go/internal/call"
	"voice-qa-go/internal/criteria"
	"voice-qa-go/internal/invoker"
)

// evaluationResponse is the raw shape the model returns. Insights stay
// untyped until coerced against the criteria set's declarations.
type evaluationResponse struct {
	Scores []struct {
		CriterionID string  `json:"criterion_id"`
		Score       float64 `json:"score"`
		Rationale   string  `json:"rationale"`
	} `json:"scores"`
	Summary  string         `json:"summary"`
	Insights map[string]any `json:"insights"`
}

func buildEvaluationPrompt(transcript string, set *criteria.Set) []invoker.Message {
	var sb strings.Builder
	for _, c := range set.Criteria {
		fmt.Fprintf(&sb, "- %s (%s): %s, 0 to %.0f points\n", c.ID, c.Name, c.Description, c.MaxScore)
	}
	var ib strings.Builder
	for _, f := range set.Insights {
		if f.Type == criteria.FieldEnum {
			fmt.Fprintf(&ib, "- %s (%s, one of %s): %s\n", f.Key, f.Type, strings.Join(f.Options, "|"), f.Description)
		} else {
			fmt.Fprintf(&ib, "- %s (%s): %s\n", f.Key, f.Type, f.Description)
		}
	}

	prompt := fmt.Sprintf(`You are an expert call quality evaluator.

Score this call transcript against the criteria below.
"""%s"""

CRITERIA:
%s
INSIGHT FIELDS (fill every key with the declared type):
%s
Return ONLY a JSON object with keys:
scores (list of {criterion_id, score, rationale}, one entry per criterion),
summary (two sentences on overall call quality),
insights (object keyed by the insight field names above).

Ground every score in the transcript. Do NOT hallucinate behavior that is not in the transcript.
`, transcript, sb.String(), ib.String())
	return []invoker.Message{{Role: "user", Content: prompt}}
}

func evaluationCorrection(set *criteria.Set) string {
	ids := make([]string, 0, len(set.Criteria))
	for _, c := range set.Criteria {
		ids = append(ids, c.ID)
	}
	return fmt.Sprintf(`Your previous response did not match the required shape. Return ONLY a JSON object {"scores": [{"criterion_id": "", "score": 0, "rationale": ""}], "summary": "", "insights": {}} with one score entry for each of: %s.`, strings.Join(ids, ", "))
}

// Evaluate runs the quality-evaluation stage for one transcript against the
// given criteria set. Scores are clamped to each criterion's cap; insight
// values are coerced to their declared types at the validation boundary.
func Evaluate(ctx context.Context, svc CompletionService, transcript string, set *criteria.Set, opts invoker.Options) (*call.EvaluationData, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, &invoker.BusinessRuleError{Reason: "transcript is empty, nothing to evaluate"}
	}

	base := buildEvaluationPrompt(transcript, set)
	correction := evaluationCorrection(set)

	send := func(ctx context.Context, rc *invoker.RetryContext) (string, error) {
		return svc.Complete(ctx, rc.Apply(base))
	}

	validate := func(r evaluationResponse) error {
		if len(r.Scores) == 0 {
			return &invoker.ValidationError{Reason: "no scores returned"}
		}
		seen := make(map[string]struct{}, len(r.Scores))
		for _, s := range r.Scores {
			if _, ok := set.ByID(s.CriterionID); !ok {
				return &invoker.ValidationError{Reason: fmt.Sprintf("unknown criterion id %q", s.CriterionID)}
			}
			if _, dup := seen[s.CriterionID]; dup {
				return &invoker.ValidationError{Reason: fmt.Sprintf("duplicate score for criterion %q", s.CriterionID)}
			}
			seen[s.CriterionID] = struct{}{}
		}
		if len(seen) != len(set.Criteria) {
			return &invoker.ValidationError{Reason: fmt.Sprintf("expected %d scores, got %d", len(set.Criteria), len(seen))}
		}
		for key, value := range r.Insights {
			field, ok := set.InsightByKey(key)
			if !ok {
				continue // undeclared extras are dropped later, not rejected
			}
			if _, err := field.CoerceValue(value); err != nil {
				return &invoker.ValidationError{Reason: err.Error()}
			}
		}
		return nil
	}

	resp, err := invoker.CallJSON(ctx, send, validate, correction, opts)
	if err != nil {
		return nil, err
	}
	return assemble(resp, set), nil
}

// assemble clamps scores, totals them and coerces insights. Validation has
// already guaranteed criterion ids and insight types.
func assemble(resp evaluationResponse, set *criteria.Set) *call.EvaluationData {
	data := &call.EvaluationData{
		Summary:  resp.Summary,
		MaxScore: set.MaxScore(),
	}
	for _, s := range resp.Scores {
		c, _ := set.ByID(s.CriterionID)
		score := criteria.ClampScore(s.Score, c.MaxScore)
		data.Scores = append(data.Scores, call.CriterionScore{
			CriterionID: c.ID,
			Name:        c.Name,
			Score:       score,
			MaxScore:    c.MaxScore,
			Rationale:   s.Rationale,
		})
		data.TotalScore += score
	}
	data.Percentage = criteria.Percentage(data.TotalScore, data.MaxScore)

	if len(resp.Insights) > 0 {
		data.Insights = make(map[string]call.Insight)
		for key, value := range resp.Insights {
			field, ok := set.InsightByKey(key)
			if !ok {
				continue
			}
			coerced, err := field.CoerceValue(value)
			if err != nil {
				continue
			}
			data.Insights[key] = call.Insight{Type: string(field.Type), Value: coerced}
		}
	}
	return data
}

// MarshalPromptPreview renders the evaluation prompt for the CLI's criteria
// command so operators can inspect what the model is asked.
func MarshalPromptPreview(set *criteria.Set) (string, error) {
	msgs := buildEvaluationPrompt("<transcript>", set)
	out, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

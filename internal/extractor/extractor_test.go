package extractor_test

import (
	"context"
	"errors"
	"testing"

	"voice-qa-go/internal/criteria"
	"voice-qa-go/internal/extractor"
	"voice-qa-go/internal/invoker"
)

// fakeCompletion replays canned responses and records every conversation it
// was sent.
type fakeCompletion struct {
	responses []string
	err       error
	calls     [][]invoker.Message
}

func (f *fakeCompletion) Complete(ctx context.Context, messages []invoker.Message) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	idx := len(f.calls) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func testOpts() invoker.Options {
	return invoker.Options{MaxRetries: 3, BaseDelay: 0}
}

func TestAnalyzeSentimentNormalizesLabels(t *testing.T) {
	svc := &fakeCompletion{responses: []string{
		`{"overall": "MIXED", "segments": [
			{"text": "unexpected fee", "label": " Negative ", "confidence": 1.7},
			{"text": "thanks for explaining", "label": "POSITIVE", "confidence": -0.3}
		]}`,
	}}
	data, err := extractor.AnalyzeSentiment(context.Background(), svc, "some transcript", testOpts())
	if err != nil {
		t.Fatalf("AnalyzeSentiment failed: %v", err)
	}
	if data.Overall != "neutral" {
		t.Fatalf("overall = %q, want neutral", data.Overall)
	}
	if len(data.Segments) != 2 {
		t.Fatalf("segments = %#v", data.Segments)
	}
	if data.Segments[0].Label != "negative" || data.Segments[0].Confidence != 1 {
		t.Fatalf("segment 0 not normalized: %#v", data.Segments[0])
	}
	if data.Segments[1].Label != "positive" || data.Segments[1].Confidence != 0 {
		t.Fatalf("segment 1 not normalized: %#v", data.Segments[1])
	}
}

func TestAnalyzeSentimentRepromptsOnBadLabel(t *testing.T) {
	svc := &fakeCompletion{responses: []string{
		`{"overall": "angry", "segments": []}`,
		`{"overall": "negative", "segments": []}`,
	}}
	data, err := extractor.AnalyzeSentiment(context.Background(), svc, "some transcript", testOpts())
	if err != nil {
		t.Fatalf("AnalyzeSentiment failed: %v", err)
	}
	if data.Overall != "negative" {
		t.Fatalf("overall = %q", data.Overall)
	}
	if len(svc.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(svc.calls))
	}
	// second attempt must carry the corrective instruction as an extra turn
	if len(svc.calls[1]) != len(svc.calls[0])+1 {
		t.Fatalf("corrective instruction missing: %d vs %d messages", len(svc.calls[1]), len(svc.calls[0]))
	}
}

func TestAnalyzeSentimentExhaustsRetries(t *testing.T) {
	svc := &fakeCompletion{err: &invoker.TransportError{Op: "completion", Err: errors.New("gateway down")}}
	_, err := extractor.AnalyzeSentiment(context.Background(), svc, "some transcript", invoker.Options{MaxRetries: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(svc.calls) != 2 {
		t.Fatalf("maxRetries=1 must mean 2 attempts, got %d", len(svc.calls))
	}
}

func TestEvaluateClampsAndTotals(t *testing.T) {
	set := &criteria.Set{
		Name: "mini",
		Criteria: []criteria.Criterion{
			{ID: "a", Name: "A", MaxScore: 10},
			{ID: "b", Name: "B", MaxScore: 20},
		},
		Insights: []criteria.InsightField{
			{Key: "escalation_required", Type: criteria.FieldBoolean},
		},
	}
	svc := &fakeCompletion{responses: []string{`{
		"scores": [
			{"criterion_id": "a", "score": 14, "rationale": "over cap"},
			{"criterion_id": "b", "score": 6, "rationale": "ok"}
		],
		"summary": "decent call",
		"insights": {"escalation_required": true, "undeclared": "dropped"}
	}`}}

	data, err := extractor.Evaluate(context.Background(), svc, "hello transcript", set, testOpts())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if data.Scores[0].Score != 10 {
		t.Fatalf("score not clamped to cap: %v", data.Scores[0].Score)
	}
	if data.TotalScore != 16 || data.MaxScore != 30 {
		t.Fatalf("totals = %v / %v", data.TotalScore, data.MaxScore)
	}
	// round(100 * 16 / 30) = 53
	if data.Percentage != 53 {
		t.Fatalf("percentage = %d, want 53", data.Percentage)
	}
	insight, ok := data.Insights["escalation_required"]
	if !ok || insight.Value != true {
		t.Fatalf("insight missing or wrong: %#v", data.Insights)
	}
	if _, ok := data.Insights["undeclared"]; ok {
		t.Fatal("undeclared insight keys must be dropped")
	}
}

func TestEvaluateRejectsIncompleteScores(t *testing.T) {
	set := &criteria.Set{
		Name: "mini",
		Criteria: []criteria.Criterion{
			{ID: "a", Name: "A", MaxScore: 10},
			{ID: "b", Name: "B", MaxScore: 10},
		},
	}
	svc := &fakeCompletion{responses: []string{
		`{"scores": [{"criterion_id": "a", "score": 5}], "summary": ""}`,
		`{"scores": [{"criterion_id": "a", "score": 5}, {"criterion_id": "b", "score": 7}], "summary": ""}`,
	}}
	data, err := extractor.Evaluate(context.Background(), svc, "hello", set, testOpts())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(svc.calls) != 2 {
		t.Fatalf("expected a re-prompt, got %d attempts", len(svc.calls))
	}
	if data.TotalScore != 12 {
		t.Fatalf("total = %v", data.TotalScore)
	}
}

func TestEvaluateUnknownCriterionIsValidationError(t *testing.T) {
	set := &criteria.Set{
		Name:     "mini",
		Criteria: []criteria.Criterion{{ID: "a", Name: "A", MaxScore: 10}},
	}
	svc := &fakeCompletion{responses: []string{
		`{"scores": [{"criterion_id": "bogus", "score": 5}], "summary": ""}`,
	}}
	_, err := extractor.Evaluate(context.Background(), svc, "hello", set, invoker.Options{MaxRetries: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	var ex *invoker.ExhaustedError
	if !errors.As(err, &ex) {
		t.Fatalf("expected exhausted retries, got %T: %v", err, err)
	}
	if len(svc.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(svc.calls))
	}
}

func TestEvaluateEmptyTranscriptFailsFast(t *testing.T) {
	svc := &fakeCompletion{responses: []string{"{}"}}
	_, err := extractor.Evaluate(context.Background(), svc, "   \n ", criteria.Default(), testOpts())
	var be *invoker.BusinessRuleError
	if !errors.As(err, &be) {
		t.Fatalf("expected BusinessRuleError, got %T: %v", err, err)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("no completion calls expected, got %d", len(svc.calls))
	}
}

func TestMockCompletionSpeaksValidShapes(t *testing.T) {
	set := criteria.Default()
	mock := extractor.MockCompletion{Set: set}

	sentiment, err := extractor.AnalyzeSentiment(context.Background(), mock, "transcript", testOpts())
	if err != nil {
		t.Fatalf("mock sentiment invalid: %v", err)
	}
	if len(sentiment.Segments) == 0 {
		t.Fatal("mock sentiment has no segments")
	}

	eval, err := extractor.Evaluate(context.Background(), mock, "transcript", set, testOpts())
	if err != nil {
		t.Fatalf("mock evaluation invalid: %v", err)
	}
	if len(eval.Scores) != len(set.Criteria) {
		t.Fatalf("mock evaluation scores = %d, want %d", len(eval.Scores), len(set.Criteria))
	}
	if eval.Percentage != 80 {
		t.Fatalf("mock evaluation percentage = %d, want 80", eval.Percentage)
	}
}

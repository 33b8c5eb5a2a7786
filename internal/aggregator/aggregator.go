// Package aggregator rolls a batch result up into the summary numbers the
// API and CLI surface next to the per-call outcomes.
package aggregator

import "voice-qa-go/internal/call"

type Summary struct {
	Total             int                `json:"total"`
	Evaluated         int                `json:"evaluated"`
	TranscribedOnly   int                `json:"transcribed_only"`
	Failed            int                `json:"failed"`
	MeanPercentage    float64            `json:"mean_percentage"`
	SentimentCounts   map[string]int     `json:"sentiment_counts"`
	CriterionAverages map[string]float64 `json:"criterion_averages"`
	FailureReasons    []string           `json:"failure_reasons,omitempty"`
}

// Aggregate computes the batch summary. Mean percentage and criterion
// averages cover evaluated calls only.
func Aggregate(result call.BatchResult) Summary {
	s := Summary{
		Total:             len(result),
		SentimentCounts:   map[string]int{},
		CriterionAverages: map[string]float64{},
	}

	criterionTotals := map[string]float64{}
	criterionCounts := map[string]int{}
	var percentageSum float64

	for _, o := range result {
		switch o.FinalState {
		case call.StatusEvaluated:
			s.Evaluated++
		case call.StatusTranscribed:
			s.TranscribedOnly++
		case call.StatusFailed:
			s.Failed++
			if o.Error != "" {
				s.FailureReasons = append(s.FailureReasons, o.Error)
			}
		}
		if o.Item == nil {
			continue
		}
		if o.Item.Sentiment != nil && o.Item.Sentiment.Overall != "" {
			s.SentimentCounts[o.Item.Sentiment.Overall]++
		}
		if o.Item.Evaluation != nil {
			percentageSum += float64(o.Item.Evaluation.Percentage)
			for _, cs := range o.Item.Evaluation.Scores {
				criterionTotals[cs.CriterionID] += cs.Score
				criterionCounts[cs.CriterionID]++
			}
		}
	}

	if s.Evaluated > 0 {
		s.MeanPercentage = percentageSum / float64(s.Evaluated)
	}
	for id, total := range criterionTotals {
		s.CriterionAverages[id] = total / float64(criterionCounts[id])
	}
	return s
}

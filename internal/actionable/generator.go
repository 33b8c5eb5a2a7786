package actionable

import (
	"fmt"

	"voice-qa-go/internal/aggregator"
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate derives a single follow-up recommendation from a batch summary:
// the weakest criterion when scores are soft, dominant negative sentiment
// otherwise.
func Generate(s aggregator.Summary, criterionCaps map[string]float64) ActionCard {
	worstID := ""
	worstRatio := 1.0
	for id, avg := range s.CriterionAverages {
		cap, ok := criterionCaps[id]
		if !ok || cap <= 0 {
			continue
		}
		if ratio := avg / cap; ratio < worstRatio {
			worstRatio = ratio
			worstID = id
		}
	}
	if worstID != "" && worstRatio < 0.6 {
		return ActionCard{
			Insight: fmt.Sprintf("Criterion %q averages %.0f%% of its cap across the batch", worstID, worstRatio*100),
			Action:  fmt.Sprintf("Schedule coaching focused on %q for the agents in this batch", worstID),
			Impact:  "Lift the weakest quality dimension batch-wide",
		}
	}

	negatives := s.SentimentCounts["negative"]
	if s.Total > 0 && negatives*2 > s.Total {
		return ActionCard{
			Insight: fmt.Sprintf("%d of %d calls carry negative overall sentiment", negatives, s.Total),
			Action:  "Review the negative calls for a shared root cause and brief the team",
			Impact:  "Reduce repeat escalations",
		}
	}

	return ActionCard{
		Insight: "No strong quality or sentiment pattern detected",
		Action:  "Monitor and collect more calls",
		Impact:  "Low immediate intervention",
	}
}

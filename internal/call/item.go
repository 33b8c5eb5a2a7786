package call

import (
	"fmt"
	"strings"
)

// Item is one call recording moving through the pipeline. Ids must be unique
// within a batch; the roster loader mints uuids when the source has none.
type Item struct {
	ID       string            `json:"id"`
	AudioURL string            `json:"audio_url"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Status   Status            `json:"status"`

	Transcript *TranscriptData `json:"transcript,omitempty"`
	Sentiment  *SentimentData  `json:"sentiment,omitempty"`
	Evaluation *EvaluationData `json:"evaluation,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
}

// NewItem builds a pending item for an audio recording.
func NewItem(id, audioURL string) *Item {
	return &Item{ID: id, AudioURL: audioURL, Status: StatusPending}
}

// SetStatus applies a lifecycle transition, rejecting illegal edges.
func (i *Item) SetStatus(next Status) error {
	if !CanTransition(i.Status, next) {
		return fmt.Errorf("illegal transition %s -> %s for call %s", i.Status, next, i.ID)
	}
	i.Status = next
	return nil
}

// SetFailed marks the item failed and records the reason.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = strings.TrimSpace(message)
}

// HasTranscript reports whether a non-blank transcript was produced.
func (i *Item) HasTranscript() bool {
	return i.Transcript != nil && strings.TrimSpace(i.Transcript.Text) != ""
}

// TranscriptData is the output of the transcription stage.
type TranscriptData struct {
	Text         string   `json:"text"`
	Confidence   float64  `json:"confidence"`
	Phrases      []Phrase `json:"phrases,omitempty"`
	Locale       string   `json:"locale,omitempty"`
	DurationMs   int64    `json:"duration_ms,omitempty"`
	SpeakerCount int      `json:"speaker_count,omitempty"`
}

// Phrase is one diarized utterance inside a transcript.
type Phrase struct {
	Speaker    int     `json:"speaker"`
	Text       string  `json:"text"`
	OffsetMs   int64   `json:"offset_ms"`
	DurationMs int64   `json:"duration_ms"`
	Confidence float64 `json:"confidence"`
}

// SentimentData is the output of the sentiment stage. Absent entirely when
// the stage failed; sentiment never fails a call.
type SentimentData struct {
	Overall  string             `json:"overall"`
	Segments []SentimentSegment `json:"segments,omitempty"`
}

// SentimentSegment labels one span of the conversation.
type SentimentSegment struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"` // positive | neutral | negative
	Confidence float64 `json:"confidence"`
}

// EvaluationData is the output of the quality-evaluation stage.
type EvaluationData struct {
	Scores     []CriterionScore   `json:"scores"`
	TotalScore float64            `json:"total_score"`
	MaxScore   float64            `json:"max_score"`
	Percentage int                `json:"percentage"`
	Summary    string             `json:"summary,omitempty"`
	Insights   map[string]Insight `json:"insights,omitempty"`
}

// CriterionScore is one criterion's clamped score plus the model's rationale.
type CriterionScore struct {
	CriterionID string  `json:"criterion_id"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	Rationale   string  `json:"rationale,omitempty"`
}

// Insight is one typed extra field the criteria configuration declared.
// Value holds a string, float64, bool or []string depending on the declared
// field type.
type Insight struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

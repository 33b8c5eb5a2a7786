// Package pipeline runs the ordered stage sequence for one call:
// transcription, sentiment analysis, quality evaluation. Stage failure
// policy: transcription is fatal, sentiment is best-effort, evaluation
// exhaustion downgrades the call to its best completed stage.
package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"voice-qa-go/internal/call"
	"voice-qa-go/internal/criteria"
	"voice-qa-go/internal/extractor"
	"voice-qa-go/internal/invoker"
	"voice-qa-go/internal/transcription"
)

// Notifier observes every state transition of an item. terminal is true
// exactly once per item, when it settles.
type Notifier func(item *call.Item, status call.Status, terminal bool)

// Executor drives one item through all stages.
type Executor struct {
	Transcriber    transcription.Service
	Completions    extractor.CompletionService
	Criteria       *criteria.Set
	TranscribeOpts transcription.Options
	MaxRetries     int
	BaseDelay      time.Duration
	Log            *logrus.Entry
}

// Execute runs the stages strictly in order and returns the item's terminal
// record. It never panics across an item boundary; whatever happens, exactly
// one outcome comes back.
func (e *Executor) Execute(ctx context.Context, item *call.Item, notify Notifier) call.Outcome {
	log := e.Log.WithField("call_id", item.ID)
	opts := invoker.Options{MaxRetries: e.MaxRetries, BaseDelay: e.BaseDelay, Log: log}

	transition := func(status call.Status, terminal bool) {
		if err := item.SetStatus(status); err != nil {
			log.WithField("error", err.Error()).Warn("lifecycle transition rejected")
			return
		}
		if notify != nil {
			notify(item, status, terminal)
		}
	}
	settle := func() {
		// terminal notification without a state change (Transcribed endings)
		if notify != nil {
			notify(item, item.Status, true)
		}
	}

	// Stage 1: transcription. Fatal on failure.
	transition(call.StatusTranscribing, false)
	result, err := invoker.Call(ctx, func(ctx context.Context, rc *invoker.RetryContext) (transcription.Result, error) {
		return e.Transcriber.Transcribe(ctx, item.AudioURL, e.TranscribeOpts)
	}, nil, opts)
	if err != nil {
		log.WithField("error", err.Error()).Error("transcription failed")
		item.SetFailed(err.Error())
		if notify != nil {
			notify(item, call.StatusFailed, true)
		}
		return outcomeFor(item)
	}
	item.Transcript = &call.TranscriptData{
		Text:         result.Transcript,
		Confidence:   criteria.ClampUnit(result.Confidence),
		Phrases:      result.Phrases,
		Locale:       result.Locale,
		DurationMs:   result.DurationMs,
		SpeakerCount: result.SpeakerCount,
	}
	transition(call.StatusTranscribed, false)

	// Stage 2: sentiment. Best-effort; failure is logged and swallowed.
	if item.HasTranscript() {
		transition(call.StatusAnalyzingSentiment, false)
		sentiment, err := extractor.AnalyzeSentiment(ctx, e.Completions, item.Transcript.Text, opts)
		if err != nil {
			log.WithField("error", err.Error()).Warn("sentiment analysis failed, continuing without sentiment")
			transition(call.StatusTranscribed, false)
		} else {
			item.Sentiment = sentiment
		}
	}

	// Stage 3: evaluation. A blank transcript skips it outright; retry
	// exhaustion leaves the call at its best completed stage.
	if !item.HasTranscript() {
		item.ErrorMessage = "transcript is empty, evaluation skipped"
		log.Warn(item.ErrorMessage)
		settle()
		return outcomeFor(item)
	}
	transition(call.StatusEvaluating, false)
	evaluation, err := extractor.Evaluate(ctx, e.Completions, item.Transcript.Text, e.Criteria, opts)
	if err != nil {
		log.WithField("error", err.Error()).Warn("evaluation failed, keeping transcript-only result")
		item.ErrorMessage = err.Error()
		transition(call.StatusTranscribed, true)
		return outcomeFor(item)
	}
	item.Evaluation = evaluation
	transition(call.StatusEvaluated, true)

	log.WithFields(logrus.Fields{
		"percentage": evaluation.Percentage,
		"criteria":   len(evaluation.Scores),
	}).Info("call evaluated")
	return outcomeFor(item)
}

func outcomeFor(item *call.Item) call.Outcome {
	return call.Outcome{
		ID:         item.ID,
		FinalState: item.Status,
		Error:      item.ErrorMessage,
		Item:       item,
	}
}

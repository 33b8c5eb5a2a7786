package pipeline

import (
	"github.com/sirupsen/logrus"

	"voice-qa-go/internal/config"
	"voice-qa-go/internal/criteria"
	"voice-qa-go/internal/extractor"
	"voice-qa-go/internal/transcription"
)

// NewExecutor wires an executor from settings. Mock services replace the
// HTTP clients when the offline demo flag is set.
func NewExecutor(cfg *config.Settings, set *criteria.Set, log *logrus.Entry) *Executor {
	var transcriber transcription.Service = transcription.NewClient(cfg.TranscribeURL)
	var completions extractor.CompletionService = extractor.NewClient(extractor.ClientConfig{
		BaseURL: cfg.LLMGatewayURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	})
	if cfg.MockServices {
		transcriber = transcription.Mock{}
		completions = extractor.MockCompletion{Set: set}
	}

	return &Executor{
		Transcriber: transcriber,
		Completions: completions,
		Criteria:    set,
		TranscribeOpts: transcription.Options{
			CandidateLocales: cfg.CandidateLocales,
			Diarization:      cfg.Diarization,
			MinSpeakers:      cfg.MinSpeakers,
			MaxSpeakers:      cfg.MaxSpeakers,
		},
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
		Log:        log,
	}
}

// LoadCriteria returns the configured criteria set, or the built-in default
// when no file is configured.
func LoadCriteria(cfg *config.Settings) (*criteria.Set, error) {
	if cfg.CriteriaPath == "" {
		return criteria.Default(), nil
	}
	return criteria.Load(cfg.CriteriaPath)
}

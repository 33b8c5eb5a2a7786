// Package config gathers env-driven settings for both binaries. Missing
// credentials fail fast as a ConfigurationError before any batch starts.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"voice-qa-go/internal/invoker"
)

// Settings is everything the pipeline and its collaborators need.
type Settings struct {
	TranscribeURL string
	LLMGatewayURL string
	LLMAPIKey     string
	LLMModel      string

	Concurrency int
	MaxRetries  int
	BaseDelay   time.Duration

	CriteriaPath string

	CandidateLocales []string
	Diarization      bool
	MinSpeakers      int
	MaxSpeakers      int

	MockServices bool // USE_MOCK_SERVICES=true enables the offline demo
}

// FromEnv reads settings from the environment, applying defaults for the
// tunables and validating that the service endpoints are present.
func FromEnv() (*Settings, error) {
	s := &Settings{
		TranscribeURL: os.Getenv("TRANSCRIBE_URL"),
		LLMGatewayURL: os.Getenv("LLM_GATEWAY_URL"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMModel:      envOr("LLM_MODEL", "gpt-4o-mini"),
		Concurrency:   envInt("PIPELINE_CONCURRENCY", 3),
		MaxRetries:    envInt("PIPELINE_MAX_RETRIES", 3),
		BaseDelay:     time.Duration(envInt("PIPELINE_BASE_DELAY_MS", 2000)) * time.Millisecond,
		CriteriaPath:  os.Getenv("CRITERIA_PATH"),
		Diarization:   os.Getenv("DIARIZATION") != "false",
		MinSpeakers:   envInt("MIN_SPEAKERS", 2),
		MaxSpeakers:   envInt("MAX_SPEAKERS", 2),
		MockServices:  os.Getenv("USE_MOCK_SERVICES") == "true",
	}
	if locales := os.Getenv("CANDIDATE_LOCALES"); locales != "" {
		for _, l := range strings.Split(locales, ",") {
			if l = strings.TrimSpace(l); l != "" {
				s.CandidateLocales = append(s.CandidateLocales, l)
			}
		}
	}

	if s.MockServices {
		return s, nil
	}
	if s.TranscribeURL == "" {
		return nil, &invoker.ConfigurationError{Reason: "TRANSCRIBE_URL not set"}
	}
	if s.LLMGatewayURL == "" || s.LLMAPIKey == "" {
		return nil, &invoker.ConfigurationError{Reason: "LLM_GATEWAY_URL / LLM_API_KEY not set"}
	}
	return s, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

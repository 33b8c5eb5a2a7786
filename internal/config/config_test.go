package config_test

import (
	"errors"
	"testing"
	"time"

	"voice-qa-go/internal/config"
	"voice-qa-go/internal/invoker"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TRANSCRIBE_URL", "https://stt.example.com")
	t.Setenv("LLM_GATEWAY_URL", "https://llm.example.com/v1/chat/completions")
	t.Setenv("LLM_API_KEY", "test-key")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)
	s, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if s.Concurrency != 3 || s.MaxRetries != 3 {
		t.Fatalf("defaults wrong: %#v", s)
	}
	if s.BaseDelay != 2*time.Second {
		t.Fatalf("base delay = %v", s.BaseDelay)
	}
	if !s.Diarization || s.MinSpeakers != 2 {
		t.Fatalf("diarization defaults wrong: %#v", s)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PIPELINE_CONCURRENCY", "8")
	t.Setenv("PIPELINE_MAX_RETRIES", "1")
	t.Setenv("PIPELINE_BASE_DELAY_MS", "250")
	t.Setenv("CANDIDATE_LOCALES", "en-IN, hi-IN ,")
	s, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if s.Concurrency != 8 || s.MaxRetries != 1 || s.BaseDelay != 250*time.Millisecond {
		t.Fatalf("overrides not applied: %#v", s)
	}
	if len(s.CandidateLocales) != 2 || s.CandidateLocales[1] != "hi-IN" {
		t.Fatalf("locales = %#v", s.CandidateLocales)
	}
}

func TestFromEnvMissingEndpoints(t *testing.T) {
	t.Setenv("TRANSCRIBE_URL", "")
	t.Setenv("LLM_GATEWAY_URL", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("USE_MOCK_SERVICES", "")
	_, err := config.FromEnv()
	var ce *invoker.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestFromEnvMockModeSkipsValidation(t *testing.T) {
	t.Setenv("TRANSCRIBE_URL", "")
	t.Setenv("LLM_GATEWAY_URL", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("USE_MOCK_SERVICES", "true")
	s, err := config.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed in mock mode: %v", err)
	}
	if !s.MockServices {
		t.Fatal("mock flag not set")
	}
}

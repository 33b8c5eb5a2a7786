package transcription_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-qa-go/internal/invoker"
	"voice-qa-go/internal/transcription"
)

func TestTranscribeExistingTranscript(t *testing.T) {
	mux := http.NewServeMux()
	var docURL string
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart publish: %v", err)
		}
		if got := r.FormValue("callRecordingLink"); got != "https://example.com/a.wav" {
			t.Errorf("callRecordingLink = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"Code":   200,
			"Status": "OK",
			"Data": map[string]any{
				"Status":           "Success",
				"TranscriptionURL": docURL,
			},
		})
	})
	mux.HandleFunc("/doc", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"transcript":    "hello there",
			"confidence":    0.91,
			"locale":        "en-IN",
			"duration_ms":   5200,
			"speaker_count": 2,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	docURL = srv.URL + "/doc"

	client := transcription.NewClient(srv.URL)
	res, err := client.Transcribe(context.Background(), "https://example.com/a.wav", transcription.Options{Diarization: true, MinSpeakers: 2, MaxSpeakers: 2})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if res.Transcript != "hello there" || res.Confidence != 0.91 || res.SpeakerCount != 2 {
		t.Fatalf("result = %#v", res)
	}
}

func TestTranscribePublishRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"Code": 422, "Reason": "unsupported codec"})
	}))
	defer srv.Close()

	client := transcription.NewClient(srv.URL)
	_, err := client.Transcribe(context.Background(), "https://example.com/a.wav", transcription.Options{})
	var te *invoker.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := transcription.NewClient(srv.URL)
	_, err := client.Transcribe(context.Background(), "https://example.com/a.wav", transcription.Options{})
	var te *invoker.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}

func TestTranscribeUnconfiguredEndpoint(t *testing.T) {
	client := transcription.NewClient("")
	_, err := client.Transcribe(context.Background(), "https://example.com/a.wav", transcription.Options{})
	var ce *invoker.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestTranscribeEmptyAudioURL(t *testing.T) {
	client := transcription.NewClient("http://localhost:1")
	_, err := client.Transcribe(context.Background(), "   ", transcription.Options{})
	var be *invoker.BusinessRuleError
	if !errors.As(err, &be) {
		t.Fatalf("expected BusinessRuleError, got %T: %v", err, err)
	}
}

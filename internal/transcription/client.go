package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voice-qa-go/internal/call"
	"voice-qa-go/internal/invoker"
	"voice-qa-go/internal/logger"
)

// Client drives the publish -> poll -> download flow of the transcription
// service. One Transcribe call is one logical attempt; retry policy lives
// with the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pollEvery  time.Duration
	maxPolls   int
	log        *logrus.Entry
}

// NewClient builds a client for the given service host.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 12 * time.Second},
		pollEvery:  1500 * time.Millisecond,
		maxPolls:   40,
		log:        logger.New().WithField("module", "transcription"),
	}
}

// -------------------------------
//  API response structs
// -------------------------------

type publishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId          string `json:"MediaId"`
		Status           string `json:"Status"`
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type statusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status           string `json:"Status"` // Success, Queued, Processing, Failed
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// transcriptDocument is the JSON the service serves at the transcription URL.
type transcriptDocument struct {
	Transcript   string        `json:"transcript"`
	Confidence   float64       `json:"confidence"`
	Locale       string        `json:"locale"`
	DurationMs   int64         `json:"duration_ms"`
	SpeakerCount int           `json:"speaker_count"`
	Phrases      []call.Phrase `json:"phrases"`
}

// Transcribe publishes the recording, polls the job to completion and
// downloads the transcript document.
func (c *Client) Transcribe(ctx context.Context, audioURL string, opts Options) (Result, error) {
	if c.baseURL == "" {
		return Result{}, &invoker.ConfigurationError{Reason: "transcription endpoint not configured"}
	}
	if strings.TrimSpace(audioURL) == "" {
		return Result{}, &invoker.BusinessRuleError{Reason: "audio url is empty"}
	}

	log := c.log.WithField("audio_url", audioURL)
	log.Info("starting transcription")

	mediaID, existingURL, err := c.publish(ctx, audioURL, opts)
	if err != nil {
		return Result{}, err
	}

	finalURL := existingURL
	if finalURL == "" {
		finalURL, err = c.pollUntilDone(ctx, mediaID)
		if err != nil {
			return Result{}, err
		}
	}

	log.WithField("transcript_url", finalURL).Info("transcription completed, downloading document")
	return c.download(ctx, finalURL)
}

// publish POSTs the recording link as multipart form data. Returns either a
// media id to poll or, when the service already has a transcript, its URL.
func (c *Client) publish(ctx context.Context, audioURL string, opts Options) (string, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	w.WriteField("callRecordingLink", audioURL)
	if len(opts.CandidateLocales) > 0 {
		w.WriteField("candidateLocales", strings.Join(opts.CandidateLocales, ","))
	}
	if opts.Diarization {
		w.WriteField("diarization", "true")
		if opts.MinSpeakers > 0 {
			w.WriteField("minSpeakers", strconv.Itoa(opts.MinSpeakers))
		}
		if opts.MaxSpeakers > 0 {
			w.WriteField("maxSpeakers", strconv.Itoa(opts.MaxSpeakers))
		}
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &b)
	if err != nil {
		return "", "", &invoker.TransportError{Op: "transcribe publish", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp publishResponse
	if err := c.doJSON(req, &resp); err != nil {
		c.log.WithError(err).Error("transcribe publish failed")
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", &invoker.TransportError{Op: "transcribe publish", Err: fmt.Errorf("code=%d reason=%s", resp.Code, resp.Reason)}
	}

	if resp.Data.TranscriptionURL != "" && strings.TrimSpace(resp.Data.Status) == "Success" {
		return "", resp.Data.TranscriptionURL, nil
	}
	return resp.Data.MediaId, "", nil
}

// pollUntilDone polls /getstatus until the job settles.
func (c *Client) pollUntilDone(ctx context.Context, mediaID string) (string, error) {
	u, err := url.Parse(c.baseURL + "/getstatus")
	if err != nil {
		return "", &invoker.TransportError{Op: "transcribe status", Err: err}
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()

	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollEvery):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return "", &invoker.TransportError{Op: "transcribe status", Err: err}
		}
		var s statusResponse
		if err := c.doJSON(req, &s); err != nil {
			c.log.WithError(err).Warn("polling failed")
			continue
		}

		c.log.WithFields(logrus.Fields{
			"media_id": mediaID,
			"status":   s.Data.Status,
		}).Debug("polling transcription")

		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", &invoker.TransportError{Op: "transcribe", Err: fmt.Errorf("job failed: %s", s.Reason)}
		}
	}
	return "", &invoker.TransportError{Op: "transcribe", Err: fmt.Errorf("job did not complete after %d polls", c.maxPolls)}
}

// download fetches and decodes the transcript document.
func (c *Client) download(ctx context.Context, docURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return Result{}, &invoker.TransportError{Op: "transcript download", Err: err}
	}
	var doc transcriptDocument
	if err := c.doJSON(req, &doc); err != nil {
		return Result{}, err
	}
	return Result{
		Transcript:   doc.Transcript,
		Confidence:   doc.Confidence,
		Phrases:      doc.Phrases,
		Locale:       doc.Locale,
		DurationMs:   doc.DurationMs,
		SpeakerCount: doc.SpeakerCount,
	}, nil
}

// doJSON performs one HTTP round trip and decodes the JSON body into target.
func (c *Client) doJSON(req *http.Request, target any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &invoker.TransportError{Op: req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &invoker.TransportError{Op: req.URL.Path, Err: err}
	}
	if resp.StatusCode >= 300 {
		return &invoker.TransportError{Op: req.URL.Path, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &invoker.TransportError{Op: req.URL.Path, Err: fmt.Errorf("json decode: %v body=%s", err, body)}
	}
	return nil
}

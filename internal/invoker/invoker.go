// Package invoker wraps a single fallible external call with linear-backoff
// retries, JSON parsing and structural validation. Every pipeline stage
// funnels its service calls through here.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Message is one turn of a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetryContext accumulates state across the attempts of a single call. The
// corrective instructions appended after each failed validation become extra
// user messages on the next attempt.
type RetryContext struct {
	Attempt     int
	Corrections []string
	LastRaw     string
}

// Apply returns base plus one user message per accumulated correction.
func (rc *RetryContext) Apply(base []Message) []Message {
	out := make([]Message, 0, len(base)+len(rc.Corrections))
	out = append(out, base...)
	for _, c := range rc.Corrections {
		out = append(out, Message{Role: "user", Content: c})
	}
	return out
}

// Options tunes one resilient call.
type Options struct {
	MaxRetries int           // total attempts = MaxRetries + 1
	BaseDelay  time.Duration // wait before attempt n is BaseDelay * n
	Log        *logrus.Entry
}

// linearBackOff waits BaseDelay * attemptNumber between attempts.
type linearBackOff struct {
	base time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.base * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

// Call drives op through the retry policy. op performs one attempt and
// returns the structured result; validate rejects shape-invalid results with
// a ValidationError. Configuration and business-rule errors abort
// immediately. At most MaxRetries+1 attempts are made.
func Call[T any](ctx context.Context, op func(ctx context.Context, rc *RetryContext) (T, error), validate func(T) error, opts Options) (T, error) {
	var result T
	rc := &RetryContext{}

	operation := func() error {
		rc.Attempt++
		out, err := op(ctx, rc)
		if err == nil && validate != nil {
			err = validate(out)
		}
		if err != nil {
			return classify(rc, err, opts)
		}
		result = out
		return nil
	}

	if err := retry(ctx, operation, opts); err != nil {
		return result, exhausted(rc, err)
	}
	return result, nil
}

// CallJSON drives a completion-backed call: send returns the raw model text,
// which is parsed as JSON into T and then validated. Parse and validation
// failures both trigger a retry with correction appended to the next
// attempt's conversation.
func CallJSON[T any](ctx context.Context, send func(ctx context.Context, rc *RetryContext) (string, error), validate func(T) error, correction string, opts Options) (T, error) {
	var result T
	rc := &RetryContext{}

	operation := func() error {
		rc.Attempt++
		raw, err := send(ctx, rc)
		if err != nil {
			return classify(rc, err, opts)
		}
		rc.LastRaw = raw

		var parsed T
		if err := json.Unmarshal(extractJSON(raw), &parsed); err != nil {
			verr := &ValidationError{Reason: fmt.Sprintf("response is not valid JSON: %v", err), Raw: raw}
			rc.Corrections = append(rc.Corrections, correction)
			return classify(rc, verr, opts)
		}
		if validate != nil {
			if err := validate(parsed); err != nil {
				if verr, ok := err.(*ValidationError); ok && verr.Raw == "" {
					verr.Raw = raw
				}
				rc.Corrections = append(rc.Corrections, correction)
				return classify(rc, err, opts)
			}
		}
		result = parsed
		return nil
	}

	if err := retry(ctx, operation, opts); err != nil {
		return result, exhausted(rc, err)
	}
	return result, nil
}

// exhausted wraps a retries-spent error; fail-fast errors (configuration,
// business rule, cancelled context) pass through untouched.
func exhausted(rc *RetryContext, err error) error {
	if !Retryable(err) {
		return err
	}
	return &ExhaustedError{Attempts: rc.Attempt, LastRaw: rc.LastRaw, Err: err}
}

func retry(ctx context.Context, operation func() error, opts Options) error {
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	lin := &linearBackOff{base: opts.BaseDelay}
	bo := backoff.WithContext(backoff.WithMaxRetries(lin, uint64(maxRetries)), ctx)
	return backoff.Retry(operation, bo)
}

// classify maps an attempt error to the retry policy: transport and
// validation errors retry, everything else aborts the call.
func classify(rc *RetryContext, err error, opts Options) error {
	if opts.Log != nil {
		opts.Log.WithFields(logrus.Fields{
			"attempt": rc.Attempt,
			"error":   err.Error(),
		}).Debug("attempt failed")
	}
	if Retryable(err) {
		return err
	}
	return backoff.Permanent(err)
}

// extractJSON pulls the outermost JSON object or array out of raw, tolerating
// prose or code fences around the model's payload.
func extractJSON(raw string) []byte {
	b := []byte(raw)
	objStart := bytes.IndexByte(b, '{')
	arrStart := bytes.IndexByte(b, '[')
	start, end := objStart, bytes.LastIndexByte(b, '}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, end = arrStart, bytes.LastIndexByte(b, ']')
	}
	if start >= 0 && end > start {
		return b[start : end+1]
	}
	return b
}

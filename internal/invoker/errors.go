package invoker

import (
	"errors"
	"fmt"
)

// TransportError is a network or HTTP-level failure from an external
// service. Retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError means the response parsed (or failed to parse) but does
// not match the required shape. Retryable, with a corrective instruction
// injected into the next attempt.
type ValidationError struct {
	Reason string
	Raw    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("response validation failed: %s", e.Reason)
}

// ConfigurationError is missing credentials or settings. Never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// BusinessRuleError is a domain precondition failure, e.g. an empty
// transcript ahead of evaluation. Never retried.
type BusinessRuleError struct {
	Reason string
}

func (e *BusinessRuleError) Error() string { return e.Reason }

// ExhaustedError is raised after every attempt failed. LastRaw carries the
// final raw response for diagnostics.
type ExhaustedError struct {
	Attempts int
	LastRaw  string
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	var te *TransportError
	var ve *ValidationError
	return errors.As(err, &te) || errors.As(err, &ve)
}

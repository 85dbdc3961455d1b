package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed means the call did not produce text: retries ran out
	// or the endpoint rejected the request outright.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrQuotaExhausted means the account has no balance left. Never retried.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrMalformedOutput means text came back but did not decode into the
	// expected shape, or lacked a required field.
	ErrMalformedOutput = errors.New("malformed output")

	// ErrNetworkFailed marks transport-level failures (no HTTP response).
	ErrNetworkFailed = errors.New("network failed")
)

// rawPrefixLen is how much of the model's text a MalformedOutputError keeps.
const rawPrefixLen = 200

// StatusError is a non-2xx answer from the generation endpoint.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string

	transient bool
	quota     bool
	cause     error
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm endpoint status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm endpoint status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.cause
}

func (e *StatusError) Is(target error) bool {
	return e.quota && target == ErrQuotaExhausted
}

// Transient reports whether another attempt may succeed.
func (e *StatusError) Transient() bool {
	return e.transient
}

// NewStatusError builds a StatusError for Client implementations outside this
// package (fakes in tests, alternative transports).
func NewStatusError(statusCode int, code, message string) *StatusError {
	se := &StatusError{StatusCode: statusCode, Code: code, Message: message}
	switch {
	case statusCode == 402 || code == "insufficient_quota":
		se.quota = true
	case statusCode == 408 || statusCode == 409 || statusCode == 429 || statusCode >= 500:
		se.transient = true
	}
	return se
}

// MalformedOutputError carries the reason decoding failed and the head of the
// raw text, so the failure can be diagnosed from logs alone.
type MalformedOutputError struct {
	Schema string
	Reason string
	Raw    string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	msg := fmt.Sprintf("malformed output for %s: %s", e.Schema, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s (raw: %q)", msg, e.Raw)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

func (e *MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}

func malformed(schema, reason, raw string, err error) error {
	return &MalformedOutputError{
		Schema: schema,
		Reason: reason,
		Raw:    prefix(raw, rawPrefixLen),
		Err:    err,
	}
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// NewMalformedOutput reports output that decoded but failed a caller's own
// validation (an out-of-range index, say).
func NewMalformedOutput(schema, reason, raw string) error {
	return malformed(schema, reason, raw, nil)
}

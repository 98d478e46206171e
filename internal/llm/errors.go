package llm

import (
	"errors"
	"fmt"

	"github.com/Veraticus/spice-insights/internal/common"
)

// ErrorKind classifies a failed generation request.
type ErrorKind string

const (
	// KindCredentialMissing means no API key was configured; no request was sent.
	KindCredentialMissing ErrorKind = "credential_missing"
	// KindInvalidCredential means the endpoint rejected the API key (HTTP 401).
	KindInvalidCredential ErrorKind = "invalid_credential"
	// KindRateLimited means the endpoint throttled the request (HTTP 429).
	KindRateLimited ErrorKind = "rate_limited"
	// KindInvalidRequest means the endpoint rejected the request body (HTTP 400).
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindConnectionFailed covers transport errors, timeouts and other HTTP statuses.
	KindConnectionFailed ErrorKind = "connection_failed"
)

// Messages reported for each failure kind.
const (
	MsgCredentialMissing = "Gemini API key not configured"
	MsgInvalidCredential = "Invalid Gemini API key"
	MsgRateLimited       = "Rate limit exceeded, please try again later"
	MsgInvalidRequest    = "Invalid request to Gemini API"
	MsgConnectionFailed  = "Failed to connect to Gemini API"
)

// Error is a classified generation failure.
type Error struct {
	Err        error
	Kind       ErrorKind
	Message    string
	Details    string
	StatusCode int
}

func newError(kind ErrorKind, details string, statusCode int, err error) *Error {
	return &Error{
		Kind:       kind,
		Message:    messageFor(kind),
		Details:    details,
		StatusCode: statusCode,
		Err:        err,
	}
}

func messageFor(kind ErrorKind) string {
	switch kind {
	case KindCredentialMissing:
		return MsgCredentialMissing
	case KindInvalidCredential:
		return MsgInvalidCredential
	case KindRateLimited:
		return MsgRateLimited
	case KindInvalidRequest:
		return MsgInvalidRequest
	default:
		return MsgConnectionFailed
	}
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is maps failure kinds onto the shared sentinels so common.IsRetryable works.
func (e *Error) Is(target error) bool {
	switch target {
	case common.ErrRateLimit:
		return e.Kind == KindRateLimited
	case common.ErrConnectionFailed:
		return e.Kind == KindConnectionFailed
	case common.ErrMissingConfig:
		return e.Kind == KindCredentialMissing
	}
	return false
}

// KindOf returns the failure kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return ""
}

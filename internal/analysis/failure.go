package analysis

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/spice-insights/internal/llm"
)

// FailureKind classifies why an analysis produced no report.
type FailureKind string

// Failure kinds surfaced by Analyze.
const (
	FailureCredentialMissing FailureKind = "credential_missing"
	FailureInvalidCredential FailureKind = "invalid_credential"
	FailureRateLimited       FailureKind = "rate_limited"
	FailureInvalidRequest    FailureKind = "invalid_request"
	FailureConnectionFailed  FailureKind = "connection_failed"
	FailureAnalysisFailed    FailureKind = "analysis_failed"
)

// MsgAnalysisFailed is the message for any unexpected error inside the pipeline.
const MsgAnalysisFailed = "Failed to analyze cashflow data"

// Failure is the only error type returned by Engine.Analyze.
type Failure struct {
	Err     error       `json:"-"`
	Kind    FailureKind `json:"-"`
	Message string      `json:"error"`
	Details string      `json:"details,omitempty"`
}

func (f *Failure) Error() string {
	if f.Details != "" {
		return fmt.Sprintf("%s: %s", f.Message, f.Details)
	}
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// MarshalJSON renders the failure as {"success":false,"error":...,"details":...}.
func (f *Failure) MarshalJSON() ([]byte, error) {
	type failureJSON struct {
		Error   string `json:"error"`
		Details string `json:"details,omitempty"`
		Success bool   `json:"success"`
	}
	return json.Marshal(failureJSON{
		Success: false,
		Error:   f.Message,
		Details: f.Details,
	})
}

// analysisFailed wraps an unexpected error as an analysis_failed failure.
func analysisFailed(err error) *Failure {
	return &Failure{
		Kind:    FailureAnalysisFailed,
		Message: MsgAnalysisFailed,
		Details: err.Error(),
		Err:     err,
	}
}

// failureFromClient converts a remote client error into a Failure, keeping its message.
func failureFromClient(err error) *Failure {
	var llmErr *llm.Error
	if !errors.As(err, &llmErr) {
		return &Failure{
			Kind:    FailureConnectionFailed,
			Message: llm.MsgConnectionFailed,
			Details: err.Error(),
			Err:     err,
		}
	}

	kind := FailureConnectionFailed
	switch llmErr.Kind {
	case llm.KindCredentialMissing:
		kind = FailureCredentialMissing
	case llm.KindInvalidCredential:
		kind = FailureInvalidCredential
	case llm.KindRateLimited:
		kind = FailureRateLimited
	case llm.KindInvalidRequest:
		kind = FailureInvalidRequest
	case llm.KindConnectionFailed:
		kind = FailureConnectionFailed
	}

	return &Failure{
		Kind:    kind,
		Message: llmErr.Message,
		Details: llmErr.Details,
		Err:     err,
	}
}

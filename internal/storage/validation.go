// Package storage provides the SQLite archive for completed analyses.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-insights/internal/analysis"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid analysis")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAnalysis ensures an analysis can be archived.
func validateAnalysis(a *analysis.Analysis) error {
	if a == nil {
		return fmt.Errorf("%w: analysis", ErrNilParameter)
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidRecord)
	}
	if a.Report == nil {
		return fmt.Errorf("%w: missing report", ErrInvalidRecord)
	}
	if a.GeneratedAt.IsZero() {
		return fmt.Errorf("%w: missing generation time", ErrInvalidRecord)
	}
	return nil
}

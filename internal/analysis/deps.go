// Package analysis turns a cashflow dataset into a structured insights report
// using a remote model, with a locally generated report when the model's
// response cannot be trusted.
package analysis

import (
	"fmt"

	"github.com/Veraticus/spice-insights/internal/llm"
)

// Deps contains all dependencies required by the analysis engine.
type Deps struct {
	// LLMClient sends the prompt to the remote model.
	LLMClient llm.Client
	// PromptBuilder constructs prompts for analysis.
	PromptBuilder PromptBuilder
	// Normalizer converts model text into a report.
	Normalizer ResponseNormalizer
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.LLMClient == nil {
		return fmt.Errorf("LLM client dependency is required")
	}
	if d.PromptBuilder == nil {
		return fmt.Errorf("prompt builder dependency is required")
	}
	if d.Normalizer == nil {
		return fmt.Errorf("normalizer dependency is required")
	}
	return nil
}

// Engine runs the analysis pipeline. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	deps Deps
}

// NewEngine creates a new analysis engine with the provided dependencies.
func NewEngine(deps Deps) (*Engine, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	return &Engine{
		deps: deps,
	}, nil
}

// NewDefaultEngine wires the template prompt builder and normalizer around client.
func NewDefaultEngine(client llm.Client) (*Engine, error) {
	builder, err := NewTemplatePromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt builder: %w", err)
	}
	return NewEngine(Deps{
		LLMClient:     client,
		PromptBuilder: builder,
		Normalizer:    NewNormalizer(),
	})
}

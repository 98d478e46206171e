package analysis

import (
	"github.com/Veraticus/spice-insights/internal/model"
)

// PromptBuilder constructs prompts for LLM analysis.
type PromptBuilder interface {
	// BuildAnalysisPrompt creates the main analysis prompt.
	BuildAnalysisPrompt(data PromptData) (string, error)
}

// ResponseNormalizer turns raw model text into a report. It must always return one.
type ResponseNormalizer interface {
	Normalize(text string, dataset *model.CashflowDataset) (*Report, Outcome)
}

// ReportFormatter formats analyses for display.
type ReportFormatter interface {
	// FormatSummary renders the full analysis.
	FormatSummary(analysis *Analysis) string
	// FormatInsight renders a single insight.
	FormatInsight(insight Insight) string
}

var (
	_ PromptBuilder      = (*TemplatePromptBuilder)(nil)
	_ ResponseNormalizer = (*Normalizer)(nil)
	_ ReportFormatter    = (*CLIFormatter)(nil)
)

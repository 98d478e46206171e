package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
)

// Analyze runs the full pipeline for one dataset. Remote client failures and
// unexpected errors are returned as *Failure; problems with the model's
// response are absorbed into a fallback report.
func (e *Engine) Analyze(ctx context.Context, dataset *model.CashflowDataset, opts Options) (result *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic during analysis", "panic", r)
			result = nil
			err = analysisFailed(fmt.Errorf("%v", r))
		}
	}()

	progress := opts.ProgressFunc
	if progress == nil {
		progress = func(string, int) {} // no-op
	}

	if err := dataset.Validate(); err != nil {
		return nil, analysisFailed(fmt.Errorf("%w: %w", common.ErrInvalidDataset, err))
	}

	progress("Summarizing metrics", 10)
	metrics := SummarizeMetrics(dataset.Entries)

	progress("Building prompt", 25)
	prompt, err := e.deps.PromptBuilder.BuildAnalysisPrompt(PromptData{
		Dataset: dataset,
		Metrics: metrics,
	})
	if err != nil {
		return nil, analysisFailed(fmt.Errorf("failed to build prompt: %w", err))
	}

	if length := utf8.RuneCountInString(prompt); length > MaxPromptLength {
		slog.Warn("Analysis prompt exceeds recommended length",
			"length", length,
			"max", MaxPromptLength)
	}

	progress("Requesting analysis", 40)
	slog.Info("Requesting cashflow analysis",
		"business", dataset.BusinessName,
		"entries", len(dataset.Entries),
		"prompt_length", len(prompt))

	text, err := e.deps.LLMClient.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Analysis request failed", "error", err)
		return nil, failureFromClient(err)
	}

	progress("Normalizing response", 80)
	report, outcome := e.deps.Normalizer.Normalize(text, dataset)
	if report == nil {
		report, outcome = GenerateFallback(dataset), OutcomeUnparseable
	}
	if outcome != OutcomeModel {
		slog.Warn("Using fallback report", "reason", string(outcome))
	}

	progress("Analysis complete", 100)
	return newAnalysis(dataset, report, outcome.Source()), nil
}

// FallbackAnalysis wraps the locally generated report for dataset without
// contacting the model.
func FallbackAnalysis(dataset *model.CashflowDataset) *Analysis {
	return newAnalysis(dataset, GenerateFallback(dataset), SourceFallback)
}

func newAnalysis(dataset *model.CashflowDataset, report *Report, source Source) *Analysis {
	report.ensureSlices()
	analysis := &Analysis{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now(),
		Report:      report,
		Source:      source,
	}
	if dataset != nil {
		analysis.BusinessName = dataset.BusinessName
		analysis.Period = dataset.ReportPeriod
	}
	return analysis
}

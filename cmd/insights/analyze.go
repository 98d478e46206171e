package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-insights/internal/analysis"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/config"
	"github.com/Veraticus/spice-insights/internal/llm"
	"github.com/Veraticus/spice-insights/internal/model"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <ledger>",
		Short: "Analyze a cashflow ledger and report on financial health",
		Long: `Analyze a cashflow ledger with Gemini and print a structured report.

The ledger is a JSON dataset ({"businessName", "reportPeriod", "entries", "summary"})
or an OFX/QFX bank statement. The report includes an executive summary, a health
score from 0 to 100, insights, key metrics, recommendations, risk factors and chart
definitions computed from the ledger itself.

If the model answers with something that cannot be used, a local fallback report
is shown instead. Remote failures (missing key, rate limits, network errors) are
reported as errors unless --fallback-on-error is set.

Examples:
  # Analyze a JSON ledger
  insights analyze ledger.json

  # Analyze one quarter of a bank statement and archive the result
  insights analyze statement.qfx --business "Corner Bakery" \
    --start-date 2024-01-01 --end-date 2024-03-31 --save

  # Machine-readable output, retrying rate limits twice
  insights analyze ledger.json --output json --retries 2`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	addLedgerFlags(cmd)

	cmd.Flags().String("output", outputText, "Output format (text, json)")
	cmd.Flags().Int("width", 100, "Maximum width of text output")
	cmd.Flags().Bool("progress", true, "Show a progress bar while analyzing")
	cmd.Flags().Bool("save", false, "Archive the analysis in the local database")
	cmd.Flags().Bool("fallback-on-error", false, "Show the local fallback report when the Gemini request fails")
	cmd.Flags().Int("retries", 0, "Retry rate-limited or failed connections this many times")

	_ = viper.BindPFlag(config.KeyRetries, cmd.Flags().Lookup("retries"))

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	outputFormat, _ := cmd.Flags().GetString("output")
	width, _ := cmd.Flags().GetInt("width")
	showProgress, _ := cmd.Flags().GetBool("progress")
	save, _ := cmd.Flags().GetBool("save")
	fallbackOnError, _ := cmd.Flags().GetBool("fallback-on-error")

	if outputFormat != outputText && outputFormat != outputJSON {
		return fmt.Errorf("invalid output format: %s (valid options: text, json)", outputFormat)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	dataset, err := loadDataset(ctx, cmd, args[0])
	if err != nil {
		return common.NewUserError("Could not read ledger", err)
	}

	slog.Info("Starting cashflow analysis",
		"business", dataset.BusinessName,
		"entries", len(dataset.Entries),
		"start_date", dataset.ReportPeriod.StartDate.String(),
		"end_date", dataset.ReportPeriod.EndDate.String())

	client, err := llm.NewGeminiClient(settings.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	engine, err := analysis.NewDefaultEngine(client)
	if err != nil {
		return fmt.Errorf("failed to create analysis engine: %w", err)
	}

	opts := analysis.Options{}
	var bar *progressbar.ProgressBar
	if showProgress && outputFormat == outputText {
		bar = newProgressBar(cmd.ErrOrStderr())
		opts.ProgressFunc = func(stage string, percent int) {
			bar.Describe(stage)
			_ = bar.Set(percent)
		}
	}

	result, err := analyzeWithRetry(ctx, engine, dataset, opts, settings.Retries)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "\nAnalysis canceled by user")
			return nil
		}
		if !fallbackOnError {
			if outputFormat == outputJSON {
				_ = writeJSON(cmd.OutOrStdout(), failureOf(err))
			}
			return fmt.Errorf("analysis failed: %w", err)
		}
		slog.Warn("Analysis failed, showing fallback report", "error", err)
		result = analysis.FallbackAnalysis(dataset)
	}

	if save {
		if err := saveAnalysis(ctx, settings.DatabasePath, result); err != nil {
			return err
		}
		slog.Info("Analysis archived", "id", result.ID, "database", settings.DatabasePath)
	}

	return writeAnalysis(cmd.OutOrStdout(), result, outputFormat, width)
}

// analyzeWithRetry runs the engine, retrying only failures the remote side may recover from.
func analyzeWithRetry(ctx context.Context, engine *analysis.Engine, dataset *model.CashflowDataset, opts analysis.Options, retries int) (*analysis.Analysis, error) {
	if retries <= 0 {
		return engine.Analyze(ctx, dataset, opts)
	}

	var result *analysis.Analysis
	err := common.WithRetry(ctx, func() error {
		a, err := engine.Analyze(ctx, dataset, opts)
		if err != nil {
			if !common.IsRetryable(err) {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return err
		}
		result = a
		return nil
	}, common.DefaultRetryOptions(retries+1))
	if err != nil {
		// Surface the engine's failure rather than the retry wrapper.
		var failure *analysis.Failure
		if errors.As(err, &failure) {
			return nil, failure
		}
		return nil, err
	}

	return result, nil
}

func failureOf(err error) *analysis.Failure {
	var failure *analysis.Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &analysis.Failure{
		Kind:    analysis.FailureAnalysisFailed,
		Message: analysis.MsgAnalysisFailed,
		Details: err.Error(),
		Err:     err,
	}
}

func saveAnalysis(ctx context.Context, dbPath string, result *analysis.Analysis) error {
	store, err := openStorage(ctx, dbPath)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	if err := store.SaveAnalysis(ctx, result); err != nil {
		return fmt.Errorf("failed to archive analysis: %w", err)
	}
	return nil
}

func writeAnalysis(w io.Writer, result *analysis.Analysis, format string, width int) error {
	if format == outputJSON {
		return writeJSON(w, result)
	}

	formatter := analysis.NewCLIFormatter().WithWidth(width)
	_, err := fmt.Fprintln(w, formatter.FormatSummary(result))
	return err
}

// writeJSON writes v as indented JSON for programmatic use.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Analyzing cashflow...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

package main

import (
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-insights/internal/analysis"
	"github.com/Veraticus/spice-insights/internal/common"
)

func promptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt <ledger>",
		Short: "Print the analysis prompt without calling Gemini",
		Long: `Build the exact prompt that analyze would send for a ledger and print it.

Useful for checking what the model sees, and for estimating request size.`,
		Args: cobra.ExactArgs(1),
		RunE: runPrompt,
	}

	addLedgerFlags(cmd)

	return cmd
}

func runPrompt(cmd *cobra.Command, args []string) error {
	dataset, err := loadDataset(cmd.Context(), cmd, args[0])
	if err != nil {
		return common.NewUserError("Could not read ledger", err)
	}

	builder, err := analysis.NewTemplatePromptBuilder()
	if err != nil {
		return fmt.Errorf("failed to create prompt builder: %w", err)
	}

	prompt, err := builder.BuildAnalysisPrompt(analysis.PromptData{
		Dataset: dataset,
		Metrics: analysis.SummarizeMetrics(dataset.Entries),
	})
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	if length := utf8.RuneCountInString(prompt); length > analysis.MaxPromptLength {
		slog.Warn("Prompt exceeds recommended length",
			"length", length,
			"max", analysis.MaxPromptLength)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt)
	return err
}

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-insights/internal/analysis"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived analyses",
		Long:  `List, show and delete analyses saved with "insights analyze --save".`,
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyDeleteCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := openConfiguredStorage(cmd)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			summaries, err := store.ListAnalyses(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				_, err = fmt.Fprintln(out, "No archived analyses. Run 'insights analyze --save' to create one.")
				return err
			}

			_, err = fmt.Fprintln(out, renderHistory(summaries))
			return err
		},
	}

	cmd.Flags().Int("limit", storage.DefaultListLimit, "Maximum number of analyses to list")

	return cmd
}

func historyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an archived analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			width, _ := cmd.Flags().GetInt("width")
			if outputFormat != outputText && outputFormat != outputJSON {
				return fmt.Errorf("invalid output format: %s (valid options: text, json)", outputFormat)
			}

			store, err := openConfiguredStorage(cmd)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			result, err := store.GetAnalysis(cmd.Context(), args[0])
			if err != nil {
				return common.NewUserError("Could not load analysis "+args[0], err)
			}

			return writeAnalysis(cmd.OutOrStdout(), result, outputFormat, width)
		},
	}

	cmd.Flags().String("output", outputText, "Output format (text, json)")
	cmd.Flags().Int("width", 100, "Maximum width of text output")

	return cmd
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfiguredStorage(cmd)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := store.DeleteAnalysis(cmd.Context(), args[0]); err != nil {
				return common.NewUserError("Could not delete analysis "+args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted analysis %s\n", args[0])
			return err
		},
	}
}

func openConfiguredStorage(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return openStorage(cmd.Context(), settings.DatabasePath)
}

func renderHistory(summaries []storage.AnalysisSummary) string {
	styles := analysis.NewStyles()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(analysis.PrimaryColor)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-36s  %-16s  %-24s  %-23s  %5s", "ID", "GENERATED", "BUSINESS", "PERIOD", "SCORE")))
	b.WriteString("\n")

	for _, s := range summaries {
		business := s.BusinessName
		if business == "" {
			business = "(unnamed)"
		}
		if len(business) > 24 {
			business = business[:21] + "..."
		}

		period := fmt.Sprintf("%s..%s", s.Period.StartDate, s.Period.EndDate)
		score := styles.ForScore(s.HealthScore).Render(fmt.Sprintf("%5d", s.HealthScore))

		line := fmt.Sprintf("%-36s  %-16s  %-24s  %-23s  %s",
			s.ID,
			s.GeneratedAt.Local().Format("2006-01-02 15:04"),
			business,
			period,
			score)
		if s.Source == analysis.SourceFallback {
			line += styles.Subtle.Render(" (fallback)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(styles.Subtle.Render(fmt.Sprintf("%d analyses", len(summaries))))
	return b.String()
}

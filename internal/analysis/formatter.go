package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const maxListedItems = 5

// CLIFormatter implements ReportFormatter for terminal display.
type CLIFormatter struct {
	styles *Styles
}

// NewCLIFormatter creates a new CLI formatter with default styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		styles: NewStyles(),
	}
}

// WithWidth returns a formatter whose boxes fit the given terminal width.
func (f *CLIFormatter) WithWidth(width int) *CLIFormatter {
	return &CLIFormatter{styles: f.styles.WithWidth(width)}
}

// FormatSummary renders an analysis for the terminal.
func (f *CLIFormatter) FormatSummary(analysis *Analysis) string {
	if analysis == nil || analysis.Report == nil {
		return f.styles.Error.Render("No report available")
	}
	report := analysis.Report

	sections := []string{
		f.formatHeader(analysis),
		f.formatHealthScore(report.OverallHealthScore),
		f.styles.Box.Render(report.ExecutiveSummary),
	}

	if len(report.KeyMetrics) > 0 {
		sections = append(sections, f.formatMetrics(report.KeyMetrics))
	}
	if len(report.Insights) > 0 {
		sections = append(sections, f.formatInsights(report.Insights))
	}
	if len(report.Recommendations) > 0 {
		sections = append(sections, f.formatRecommendations(report.Recommendations))
	}
	if len(report.RiskFactors) > 0 {
		sections = append(sections, f.formatRiskFactors(report.RiskFactors))
	}
	if len(report.Visualizations) > 0 {
		sections = append(sections, f.formatCharts(report.Visualizations))
	}

	return strings.Join(sections, "\n\n")
}

// FormatInsight formats a single insight for detailed display.
func (f *CLIFormatter) FormatInsight(insight Insight) string {
	style := f.styles.ForSeverity(insight.Severity)
	header := style.Render(fmt.Sprintf("%s %s [%s]", severityIcon(insight.Severity), insight.Title, insight.Severity))

	meta := f.styles.Subtle.Render(fmt.Sprintf("Type: %s | Impact: %s | Confidence: %.0f%%",
		insight.Type, insight.Impact, insight.Confidence))

	parts := []string{header, f.styles.Normal.Render(insight.Description), meta}
	if insight.Recommendation != nil && *insight.Recommendation != "" {
		parts = append(parts, f.styles.Info.Render("→ "+*insight.Recommendation))
	}
	return strings.Join(parts, "\n")
}

func (f *CLIFormatter) formatHeader(analysis *Analysis) string {
	name := analysis.BusinessName
	if name == "" {
		name = defaultBusinessName
	}
	title := f.styles.Title.Render("📊 Cashflow Insights: " + name)

	period := fmt.Sprintf("Period: %s to %s",
		analysis.Period.StartDate.Format("Jan 2, 2006"),
		analysis.Period.EndDate.Format("Jan 2, 2006"))

	generated := fmt.Sprintf("Generated: %s", analysis.GeneratedAt.Format(time.RFC3339))
	if analysis.Source == SourceFallback {
		generated += " (local fallback report)"
	}

	return fmt.Sprintf("%s\n%s\n%s", title,
		f.styles.Subtitle.Render(period),
		f.styles.Subtle.Render(generated))
}

func (f *CLIFormatter) formatHealthScore(score int) string {
	style := f.styles.ForScore(score)
	text := style.Render(fmt.Sprintf("Health Score: %d/100", score))
	return text + "\n" + style.Render(f.styles.RenderScoreBar(score, 30))
}

func (f *CLIFormatter) formatMetrics(metrics []Metric) string {
	title := f.styles.Subtitle.Render("Key Metrics:")

	lines := make([]string, 0, len(metrics))
	for _, m := range metrics {
		value := formatMetricValue(m)
		if m.ChangePercentage != nil {
			value += fmt.Sprintf(" (%+.1f%%)", *m.ChangePercentage)
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s",
			trendIcon(m.Trend),
			f.styles.Info.Render(m.Name),
			value))
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatInsights(insights []Insight) string {
	title := f.styles.Subtitle.Render("💡 Insights:")

	sorted := append([]Insight(nil), insights...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.SeverityOrder() < sorted[j].Severity.SeverityOrder()
	})

	blocks := make([]string, 0, len(sorted))
	for _, insight := range sorted {
		blocks = append(blocks, f.FormatInsight(insight))
	}
	return title + "\n" + f.styles.InsightBox.Render(strings.Join(blocks, "\n\n"))
}

func (f *CLIFormatter) formatRecommendations(recs []Recommendation) string {
	title := f.styles.Subtitle.Render("🔧 Recommendations:")

	limit := min(len(recs), maxListedItems)
	lines := make([]string, 0, limit*2+1)
	for _, rec := range recs[:limit] {
		lines = append(lines, fmt.Sprintf("• [%s] %s - %s",
			f.styles.Warning.Render(string(rec.Priority)),
			f.styles.Info.Render(rec.Title),
			f.styles.Subtle.Render(strings.ReplaceAll(string(rec.Timeframe), "_", " "))))
		if rec.ExpectedImpact != "" {
			lines = append(lines, f.styles.Subtle.Render("  "+rec.ExpectedImpact))
		}
	}
	if len(recs) > limit {
		lines = append(lines, f.styles.Subtle.Render(fmt.Sprintf("... and %d more", len(recs)-limit)))
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func (f *CLIFormatter) formatRiskFactors(risks []RiskFactor) string {
	title := f.styles.Subtitle.Render("⚠️ Risk Factors:")

	lines := make([]string, 0, len(risks))
	for _, risk := range risks {
		lines = append(lines, fmt.Sprintf("• %s: %s %s",
			risk.Type,
			risk.Description,
			f.styles.Subtle.Render(fmt.Sprintf("(likelihood %s, impact %s)", risk.Likelihood, risk.Impact))))
	}
	return title + "\n" + f.styles.RiskBox.Render(strings.Join(lines, "\n"))
}

func (f *CLIFormatter) formatCharts(charts []ChartSpec) string {
	title := f.styles.Subtitle.Render("📈 Charts:")

	lines := make([]string, 0, len(charts))
	for _, chart := range charts {
		lines = append(lines, fmt.Sprintf("• %s %s",
			chart.Title,
			f.styles.Subtle.Render(fmt.Sprintf("(%s, %d points)", chart.ChartType, len(chart.Data.Labels)))))
	}
	return title + "\n" + strings.Join(lines, "\n")
}

func formatMetricValue(m Metric) string {
	switch m.Unit {
	case UnitCurrency:
		return FormatCurrency(decimal.NewFromFloat(m.Value))
	case UnitPercentage:
		return fmt.Sprintf("%.2f%%", m.Value)
	case UnitCount:
		return fmt.Sprintf("%.0f", m.Value)
	default:
		return fmt.Sprintf("%.2f", m.Value)
	}
}

func severityIcon(severity Severity) string {
	switch severity {
	case SeverityCritical:
		return "🚨"
	case SeverityHigh:
		return "⚠️"
	case SeverityMedium:
		return "⚡"
	case SeverityLow:
		return "💡"
	default:
		return "•"
	}
}

func trendIcon(trend Trend) string {
	switch trend {
	case TrendUp:
		return "▲"
	case TrendDown:
		return "▼"
	default:
		return "■"
	}
}

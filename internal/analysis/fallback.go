package analysis

import (
	"fmt"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Fallback report constants.
const (
	fallbackHealthyScore   = 70
	fallbackUnhealthyScore = 40
	fallbackConfidence     = 60
)

// GenerateFallback builds a minimal report from the dataset's trusted summary.
// It performs no external calls and never fails.
func GenerateFallback(dataset *model.CashflowDataset) *Report {
	if dataset == nil {
		dataset = &model.CashflowDataset{}
	}
	summary := dataset.Summary
	positive := summary.NetCashflow.IsPositive()

	report := &Report{
		ExecutiveSummary: fmt.Sprintf(
			"Total revenue of %s against total expenses of %s produced a net cashflow of %s for the period.",
			FormatCurrency(summary.TotalRevenue),
			FormatCurrency(summary.TotalExpenses),
			FormatCurrency(summary.NetCashflow)),
		OverallHealthScore: fallbackUnhealthyScore,
		KeyMetrics: []Metric{
			{
				Name:        "Net Cashflow",
				Value:       summary.NetCashflow.InexactFloat64(),
				Unit:        UnitCurrency,
				Trend:       TrendStable,
				Description: "Total revenue minus total expenses for the period",
			},
		},
		Recommendations: []Recommendation{},
		RiskFactors:     []RiskFactor{},
		Visualizations:  BuildVisualizations(dataset.Entries, nil),
	}

	insight := Insight{
		Type:       "profitability",
		Title:      "Negative cashflow",
		Severity:   SeverityHigh,
		Impact:     ImpactNegative,
		Actionable: true,
		Confidence: fallbackConfidence,
		Description: fmt.Sprintf("Expenses met or exceeded revenue, leaving a net cashflow of %s.",
			FormatCurrency(summary.NetCashflow)),
	}
	if positive {
		report.OverallHealthScore = fallbackHealthyScore
		insight.Title = "Positive cashflow"
		insight.Severity = SeverityLow
		insight.Impact = ImpactPositive
		insight.Actionable = false
		insight.Description = fmt.Sprintf("Revenue exceeded expenses, leaving a net cashflow of %s.",
			FormatCurrency(summary.NetCashflow))
	} else {
		rec := "Review recurring expenses and pricing to restore a positive cashflow."
		insight.Recommendation = &rec
	}
	report.Insights = []Insight{insight}

	return report
}

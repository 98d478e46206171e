package analysis

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Chart titles and categories produced by BuildVisualizations.
const (
	ExpenseBreakdownTitle  = "Expense Breakdown"
	MonthlyComparisonTitle = "Revenue vs Expenses by Month"
	NetCashflowTitle       = "Net Cashflow Trend"

	ChartCategoryExpenses = "expenses"
	ChartCategoryTrends   = "trends"
	ChartCategoryCashflow = "cashflow"
)

const uncategorizedExpense = "Other Expenses"

// Static palette handed to the charting layer verbatim.
var (
	piePalette = ColorSet{
		"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0",
		"#9966FF", "#FF9F40", "#C9CBCF", "#7BC8A4",
	}
	revenueFill  = ColorSet{"rgba(75, 192, 192, 0.6)"}
	revenueLine  = ColorSet{"rgba(75, 192, 192, 1)"}
	expenseFill  = ColorSet{"rgba(255, 99, 132, 0.6)"}
	expenseLine  = ColorSet{"rgba(255, 99, 132, 1)"}
	netFill      = ColorSet{"rgba(54, 162, 235, 0.2)"}
	netLine      = ColorSet{"rgba(54, 162, 235, 1)"}
	sliceBorders = ColorSet{"#FFFFFF"}
)

// VisualizationSuggestion is a chart the model proposed. Suggestions are
// accepted as hints only; they never change which charts are built.
type VisualizationSuggestion struct {
	ChartType   string `json:"chartType"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// BuildVisualizations produces the chart specs for a set of entries: an expense
// pie (omitted when there are no expenses), a monthly revenue/expense bar chart
// and a net cashflow line chart, always in that order.
func BuildVisualizations(entries []model.LedgerEntry, suggestions []VisualizationSuggestion) []ChartSpec {
	if len(suggestions) > 0 {
		slog.Debug("Ignoring visualization suggestions", "count", len(suggestions))
	}

	charts := make([]ChartSpec, 0, 3)
	if pie, ok := expenseBreakdownChart(entries); ok {
		charts = append(charts, pie)
	}

	months := SummarizeMetrics(entries)
	keys := months.MonthKeys()
	labels := make([]string, 0, len(keys))
	revenue := make([]float64, 0, len(keys))
	expenses := make([]float64, 0, len(keys))
	net := make([]float64, 0, len(keys))
	for _, key := range keys {
		bucket := months.Monthly[key]
		labels = append(labels, monthLabel(key))
		revenue = append(revenue, bucket.Revenue.InexactFloat64())
		expenses = append(expenses, bucket.Expenses.InexactFloat64())
		net = append(net, bucket.Net().InexactFloat64())
	}

	charts = append(charts,
		ChartSpec{
			ChartType: ChartBar,
			Title:     MonthlyComparisonTitle,
			Category:  ChartCategoryTrends,
			Data: ChartData{
				Labels: labels,
				Datasets: []ChartDataset{
					{
						Label:           "Revenue",
						Data:            revenue,
						BackgroundColor: revenueFill,
						BorderColor:     revenueLine,
						BorderWidth:     1,
					},
					{
						Label:           "Expenses",
						Data:            expenses,
						BackgroundColor: expenseFill,
						BorderColor:     expenseLine,
						BorderWidth:     1,
					},
				},
			},
		},
		ChartSpec{
			ChartType: ChartLine,
			Title:     NetCashflowTitle,
			Category:  ChartCategoryCashflow,
			Data: ChartData{
				Labels: append([]string(nil), labels...),
				Datasets: []ChartDataset{
					{
						Label:           "Net Cashflow",
						Data:            net,
						BackgroundColor: netFill,
						BorderColor:     netLine,
						BorderWidth:     2,
						Fill:            true,
						Tension:         0.4,
					},
				},
			},
		},
	)

	return charts
}

func expenseBreakdownChart(entries []model.LedgerEntry) (ChartSpec, bool) {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, entry := range entries {
		if entry.Category != model.CategoryExpense {
			continue
		}
		name := entry.SubcategoryOr(uncategorizedExpense)
		if _, seen := totals[name]; !seen {
			order = append(order, name)
		}
		totals[name] = totals[name].Add(entry.Magnitude())
	}

	if len(order) == 0 {
		return ChartSpec{}, false
	}

	data := make([]float64, 0, len(order))
	for _, name := range order {
		data = append(data, totals[name].InexactFloat64())
	}

	colors := make(ColorSet, 0, len(order))
	for i := range order {
		colors = append(colors, piePalette[i%len(piePalette)])
	}

	return ChartSpec{
		ChartType: ChartPie,
		Title:     ExpenseBreakdownTitle,
		Category:  ChartCategoryExpenses,
		Data: ChartData{
			Labels: order,
			Datasets: []ChartDataset{
				{
					Data:            data,
					BackgroundColor: colors,
					BorderColor:     sliceBorders,
					BorderWidth:     1,
				},
			},
		},
	}, true
}

// monthLabel turns a YYYY-MM key into "Jan 2024".
func monthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}

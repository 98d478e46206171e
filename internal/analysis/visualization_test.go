package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-insights/internal/model"
)

func TestBuildVisualizations_ChronologicalAcrossYears(t *testing.T) {
	entries := []model.LedgerEntry{
		entry("2024-02-10", model.CategoryRevenue, "", "100", "February sale"),
		entry("2023-11-20", model.CategoryExpense, "", "-50", "November supplies"),
	}

	charts := BuildVisualizations(entries, nil)
	require.Len(t, charts, 3)

	pie, bar, line := charts[0], charts[1], charts[2]
	assert.Equal(t, ChartPie, pie.ChartType)
	assert.Equal(t, []string{"Other Expenses"}, pie.Data.Labels)

	assert.Equal(t, ChartBar, bar.ChartType)
	assert.Equal(t, MonthlyComparisonTitle, bar.Title)
	assert.Equal(t, ChartCategoryTrends, bar.Category)
	assert.Equal(t, []string{"Nov 2023", "Feb 2024"}, bar.Data.Labels)
	require.Len(t, bar.Data.Datasets, 2)
	assert.Equal(t, "Revenue", bar.Data.Datasets[0].Label)
	assert.Equal(t, []float64{0, 100}, bar.Data.Datasets[0].Data)
	assert.Equal(t, "Expenses", bar.Data.Datasets[1].Label)
	assert.Equal(t, []float64{50, 0}, bar.Data.Datasets[1].Data)

	assert.Equal(t, ChartLine, line.ChartType)
	assert.Equal(t, NetCashflowTitle, line.Title)
	assert.Equal(t, []string{"Nov 2023", "Feb 2024"}, line.Data.Labels)
	require.Len(t, line.Data.Datasets, 1)
	assert.Equal(t, "Net Cashflow", line.Data.Datasets[0].Label)
	assert.Equal(t, []float64{-50, 100}, line.Data.Datasets[0].Data)
	assert.True(t, line.Data.Datasets[0].Fill)
}

func TestBuildVisualizations_ExpensePieFirstSeenOrder(t *testing.T) {
	entries := []model.LedgerEntry{
		entry("2024-01-01", model.CategoryExpense, "Rent", "-400", "Rent"),
		entry("2024-01-02", model.CategoryRevenue, "Sales", "900", "Sale"),
		entry("2024-01-03", model.CategoryExpense, "Utilities", "-50", "Power"),
		entry("2024-01-04", model.CategoryExpense, "Rent", "-100", "Storage"),
	}

	charts := BuildVisualizations(entries, nil)
	require.Len(t, charts, 3)

	pie := charts[0]
	assert.Equal(t, ExpenseBreakdownTitle, pie.Title)
	assert.Equal(t, ChartCategoryExpenses, pie.Category)
	assert.Equal(t, []string{"Rent", "Utilities"}, pie.Data.Labels)
	require.Len(t, pie.Data.Datasets, 1)
	assert.Equal(t, []float64{500, 50}, pie.Data.Datasets[0].Data)
	assert.Len(t, pie.Data.Datasets[0].BackgroundColor, 2)
}

func TestBuildVisualizations_NoExpensesOmitsPie(t *testing.T) {
	charts := BuildVisualizations([]model.LedgerEntry{
		entry("2024-01-02", model.CategoryRevenue, "Sales", "900", "Sale"),
	}, nil)

	require.Len(t, charts, 2)
	assert.Equal(t, ChartBar, charts[0].ChartType)
	assert.Equal(t, ChartLine, charts[1].ChartType)
}

func TestBuildVisualizations_EmptyInput(t *testing.T) {
	charts := BuildVisualizations(nil, nil)

	require.Len(t, charts, 2)
	for _, chart := range charts {
		assert.Empty(t, chart.Data.Labels)
		for _, ds := range chart.Data.Datasets {
			assert.Empty(t, ds.Data)
		}
	}

	raw, err := json.Marshal(charts)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"labels":[]`)
	assert.Contains(t, string(raw), `"data":[]`)
}

func TestBuildVisualizations_SuggestionsDoNotChangeCharts(t *testing.T) {
	entries := sampleDataset().Entries
	without := BuildVisualizations(entries, nil)
	with := BuildVisualizations(entries, []VisualizationSuggestion{
		{ChartType: "donut", Title: "Something else"},
	})
	assert.Equal(t, without, with)
}

func TestColorSetJSON(t *testing.T) {
	single, err := json.Marshal(ColorSet{"#FFFFFF"})
	require.NoError(t, err)
	assert.JSONEq(t, `"#FFFFFF"`, string(single))

	many, err := json.Marshal(ColorSet{"#000", "#111"})
	require.NoError(t, err)
	assert.JSONEq(t, `["#000","#111"]`, string(many))

	var fromString ColorSet
	require.NoError(t, json.Unmarshal([]byte(`"red"`), &fromString))
	assert.Equal(t, ColorSet{"red"}, fromString)

	var fromArray ColorSet
	require.NoError(t, json.Unmarshal([]byte(`["red","blue"]`), &fromArray))
	assert.Equal(t, ColorSet{"red", "blue"}, fromArray)

	var bad ColorSet
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

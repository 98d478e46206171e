package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-insights/internal/model"
)

func entry(date string, category model.EntryCategory, subcategory, amount, description string) model.LedgerEntry {
	return model.LedgerEntry{
		Date:        model.MustParseDate(date),
		Category:    category,
		Subcategory: subcategory,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	}
}

// sampleDataset is one revenue entry and one Rent expense netting 600.
func sampleDataset() *model.CashflowDataset {
	return &model.CashflowDataset{
		BusinessName: "Corner Bakery",
		ReportPeriod: model.ReportPeriod{
			StartDate: model.MustParseDate("2024-01-01"),
			EndDate:   model.MustParseDate("2024-01-31"),
		},
		Entries: []model.LedgerEntry{
			entry("2024-01-05", model.CategoryRevenue, "", "1000", "Catering order"),
			entry("2024-01-10", model.CategoryExpense, "Rent", "-400", "January rent"),
		},
		Summary: model.CashflowSummary{
			TotalRevenue:  decimal.NewFromInt(1000),
			TotalExpenses: decimal.NewFromInt(400),
			NetCashflow:   decimal.NewFromInt(600),
		},
	}
}

func datasetWithNet(net string) *model.CashflowDataset {
	ds := sampleDataset()
	ds.Summary.NetCashflow = decimal.RequireFromString(net)
	return ds
}

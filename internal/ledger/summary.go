// Package ledger loads cashflow datasets from JSON files and bank statements.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Summarize totals entries into a CashflowSummary. Expense magnitudes are used
// regardless of sign.
func Summarize(entries []model.LedgerEntry) model.CashflowSummary {
	var revenue, expenses decimal.Decimal
	for _, e := range entries {
		switch e.Category {
		case model.CategoryRevenue:
			revenue = revenue.Add(e.Amount)
		case model.CategoryExpense:
			expenses = expenses.Add(e.Magnitude())
		}
	}
	return model.CashflowSummary{
		TotalRevenue:  revenue,
		TotalExpenses: expenses,
		NetCashflow:   revenue.Sub(expenses),
	}
}

// Span returns the smallest period covering every entry.
func Span(entries []model.LedgerEntry) model.ReportPeriod {
	var period model.ReportPeriod
	for i, e := range entries {
		if i == 0 || e.Date.Before(period.StartDate.Time) {
			period.StartDate = e.Date
		}
		if i == 0 || e.Date.After(period.EndDate.Time) {
			period.EndDate = e.Date
		}
	}
	return period
}

// FilterPeriod returns a copy of dataset restricted to entries inside period,
// with the summary recomputed for the remaining entries.
func FilterPeriod(dataset *model.CashflowDataset, period model.ReportPeriod) *model.CashflowDataset {
	filtered := &model.CashflowDataset{
		BusinessName: dataset.BusinessName,
		ReportPeriod: period,
		Entries:      make([]model.LedgerEntry, 0, len(dataset.Entries)),
	}
	for _, e := range dataset.Entries {
		if period.Contains(e.Date) {
			filtered.Entries = append(filtered.Entries, e)
		}
	}
	filtered.Summary = Summarize(filtered.Entries)
	return filtered
}

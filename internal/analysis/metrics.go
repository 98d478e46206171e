package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-insights/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Metrics are aggregate business figures derived from ledger entries.
type Metrics struct {
	Monthly                map[string]*MonthlyAggregate
	GrossProfitMargin      decimal.Decimal
	ExpenseRatio           decimal.Decimal
	AverageTransactionSize decimal.Decimal
	TransactionFrequency   decimal.Decimal
	TotalRevenue           decimal.Decimal
	TotalExpenses          decimal.Decimal
	RevenueCount           int
	ExpenseCount           int
}

// MonthlyAggregate accumulates one calendar month of entries.
type MonthlyAggregate struct {
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	Count    int
}

// Net returns revenue minus expenses for the month.
func (m MonthlyAggregate) Net() decimal.Decimal {
	return m.Revenue.Sub(m.Expenses)
}

// SummarizeMetrics derives margins, ratios and per-month aggregates from entries.
func SummarizeMetrics(entries []model.LedgerEntry) Metrics {
	m := Metrics{
		Monthly: make(map[string]*MonthlyAggregate),
	}

	for _, entry := range entries {
		key := entry.MonthKey()
		bucket, ok := m.Monthly[key]
		if !ok {
			bucket = &MonthlyAggregate{}
			m.Monthly[key] = bucket
		}
		bucket.Count++

		switch entry.Category {
		case model.CategoryRevenue:
			m.TotalRevenue = m.TotalRevenue.Add(entry.Amount)
			m.RevenueCount++
			bucket.Revenue = bucket.Revenue.Add(entry.Amount)
		case model.CategoryExpense:
			m.TotalExpenses = m.TotalExpenses.Add(entry.Magnitude())
			m.ExpenseCount++
			bucket.Expenses = bucket.Expenses.Add(entry.Magnitude())
		}
	}

	if m.TotalRevenue.IsPositive() {
		m.GrossProfitMargin = m.TotalRevenue.Sub(m.TotalExpenses).Div(m.TotalRevenue).Mul(hundred)
		m.ExpenseRatio = m.TotalExpenses.Div(m.TotalRevenue).Mul(hundred)
	}

	// Zero revenue entries defines the average as zero, same as zero revenue.
	if m.RevenueCount > 0 {
		m.AverageTransactionSize = m.TotalRevenue.Div(decimal.NewFromInt(int64(m.RevenueCount)))
	}

	if len(m.Monthly) > 0 {
		m.TransactionFrequency = decimal.NewFromInt(int64(len(entries))).
			Div(decimal.NewFromInt(int64(len(m.Monthly))))
	}

	return m
}

// MonthKeys returns the monthly aggregate keys in ascending order.
func (m Metrics) MonthKeys() []string {
	keys := make([]string, 0, len(m.Monthly))
	for k := range m.Monthly {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

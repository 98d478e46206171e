package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReportPeriod is the inclusive date range a dataset covers.
type ReportPeriod struct {
	StartDate Date `json:"startDate"`
	EndDate   Date `json:"endDate"`
}

// Contains reports whether d falls within the period.
func (p ReportPeriod) Contains(d Date) bool {
	return !d.Before(p.StartDate.Time) && !d.After(p.EndDate.Time)
}

// CashflowSummary holds precomputed totals for a reporting period.
// It is trusted as given and never recomputed during analysis.
type CashflowSummary struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetCashflow   decimal.Decimal `json:"netCashflow"`
}

// CashflowDataset is the complete input to an analysis.
type CashflowDataset struct {
	ReportPeriod ReportPeriod    `json:"reportPeriod"`
	BusinessName string          `json:"businessName,omitempty"`
	Entries      []LedgerEntry   `json:"entries"`
	Summary      CashflowSummary `json:"summary"`
}

// Validate ensures the dataset is well-formed enough to analyze.
func (d *CashflowDataset) Validate() error {
	if d == nil {
		return fmt.Errorf("dataset is required")
	}
	for i, entry := range d.Entries {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("invalid entry at index %d: %w", i, err)
		}
	}
	return nil
}

package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// EntryCategory classifies a ledger entry as money in or money out.
type EntryCategory string

const (
	// CategoryRevenue marks an entry as income.
	CategoryRevenue EntryCategory = "revenue"
	// CategoryExpense marks an entry as spending. Expense amounts may be stored negative.
	CategoryExpense EntryCategory = "expense"
)

// IsValid reports whether the category is one of the known values.
func (c EntryCategory) IsValid() bool {
	return c == CategoryRevenue || c == CategoryExpense
}

// LedgerEntry is a single dated revenue or expense transaction.
type LedgerEntry struct {
	Date        Date            `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    EntryCategory   `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Description string          `json:"description"`
}

// Magnitude returns the absolute amount of the entry.
func (e LedgerEntry) Magnitude() decimal.Decimal {
	return e.Amount.Abs()
}

// SubcategoryOr returns the subcategory, or fallback when none is set.
func (e LedgerEntry) SubcategoryOr(fallback string) string {
	if s := strings.TrimSpace(e.Subcategory); s != "" {
		return s
	}
	return fallback
}

// MonthKey returns the entry's calendar month as YYYY-MM.
func (e LedgerEntry) MonthKey() string {
	return e.Date.Format("2006-01")
}

// Validate ensures the entry can be aggregated.
func (e LedgerEntry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("entry date is required")
	}
	if e.Category == "" {
		return fmt.Errorf("entry category is required")
	}
	return nil
}

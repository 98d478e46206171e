package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "calendar date", input: "2024-01-15", want: "2024-01-15"},
		{name: "padded", input: "  2024-02-29 ", want: "2024-02-29"},
		{name: "rfc3339 keeps local day", input: "2024-03-10T23:30:00-05:00", want: "2024-03-10"},
		{name: "rfc3339 utc", input: "2024-03-31T15:00:00Z", want: "2024-03-31"},
		{name: "us format", input: "01/15/2024", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseDate_TimestampsAreCalendarDates(t *testing.T) {
	d, err := ParseDate("2024-01-31T23:00:00-05:00")
	require.NoError(t, err)

	assert.True(t, d.Equal(NewDate(2024, time.January, 31).Time))
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "2024-01", LedgerEntry{Date: d}.MonthKey())

	period := ReportPeriod{
		StartDate: MustParseDate("2024-03-01"),
		EndDate:   MustParseDate("2024-03-31"),
	}
	assert.True(t, period.Contains(MustParseDate("2024-03-31T15:00:00Z")))
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2024, time.July, 4)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-07-04"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, d.Equal(decoded.Time))

	assert.Error(t, json.Unmarshal([]byte(`20240704`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`"July 4"`), &decoded))
}

func TestLedgerEntry(t *testing.T) {
	e := LedgerEntry{
		Date:     MustParseDate("2024-05-09"),
		Amount:   decimal.NewFromFloat(-42.5),
		Category: CategoryExpense,
	}

	assert.True(t, e.Magnitude().Equal(decimal.NewFromFloat(42.5)))
	assert.Equal(t, "2024-05", e.MonthKey())
	assert.Equal(t, "Other", e.SubcategoryOr("Other"))

	e.Subcategory = "  Supplies "
	assert.Equal(t, "Supplies", e.SubcategoryOr("Other"))

	require.NoError(t, e.Validate())
	assert.Error(t, LedgerEntry{Category: CategoryRevenue}.Validate())
	assert.Error(t, LedgerEntry{Date: e.Date}.Validate())
}

func TestEntryCategory_IsValid(t *testing.T) {
	assert.True(t, CategoryRevenue.IsValid())
	assert.True(t, CategoryExpense.IsValid())
	assert.False(t, EntryCategory("transfer").IsValid())
	assert.False(t, EntryCategory("").IsValid())
}

func TestLedgerEntry_DecodeAmounts(t *testing.T) {
	var entries []LedgerEntry
	require.NoError(t, json.Unmarshal([]byte(`[
		{"date": "2024-01-01", "category": "revenue", "amount": 1250.75, "description": "Sale"},
		{"date": "2024-01-02", "category": "expense", "amount": "-99.99", "description": "Tools"}
	]`), &entries))

	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("1250.75")))
	assert.True(t, entries[1].Amount.Equal(decimal.RequireFromString("-99.99")))
	assert.Equal(t, CategoryExpense, entries[1].Category)
	assert.Empty(t, entries[1].Subcategory)
}

func TestReportPeriod_Contains(t *testing.T) {
	period := ReportPeriod{
		StartDate: MustParseDate("2024-01-01"),
		EndDate:   MustParseDate("2024-01-31"),
	}

	assert.True(t, period.Contains(MustParseDate("2024-01-01")))
	assert.True(t, period.Contains(MustParseDate("2024-01-15")))
	assert.True(t, period.Contains(MustParseDate("2024-01-31")))
	assert.False(t, period.Contains(MustParseDate("2023-12-31")))
	assert.False(t, period.Contains(MustParseDate("2024-02-01")))
}

func TestCashflowDataset_Validate(t *testing.T) {
	var nilDataset *CashflowDataset
	assert.Error(t, nilDataset.Validate())

	empty := &CashflowDataset{}
	assert.NoError(t, empty.Validate())

	bad := &CashflowDataset{Entries: []LedgerEntry{
		{Date: MustParseDate("2024-01-01"), Category: CategoryRevenue},
		{Category: CategoryExpense},
	}}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 1")
}

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEP
<DTPOSTED>20240105120000[0:GMT]
<TRNAMT>1500.00
<FITID>2024010501
<NAME>ACME CATERING
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>POS PURCHASE Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func entry(date string, category model.EntryCategory, amount string) model.LedgerEntry {
	return model.LedgerEntry{
		Date:     model.MustParseDate(date),
		Category: category,
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]model.LedgerEntry{
		entry("2024-01-05", model.CategoryRevenue, "1000"),
		entry("2024-01-10", model.CategoryExpense, "-400"),
		entry("2024-01-11", model.CategoryExpense, "100"),
	})

	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, summary.TotalExpenses.Equal(decimal.NewFromInt(500)))
	assert.True(t, summary.NetCashflow.Equal(decimal.NewFromInt(500)))
}

func TestFilterPeriod(t *testing.T) {
	dataset := &model.CashflowDataset{
		BusinessName: "Shop",
		Entries: []model.LedgerEntry{
			entry("2023-12-31", model.CategoryRevenue, "50"),
			entry("2024-01-01", model.CategoryRevenue, "1000"),
			entry("2024-01-31", model.CategoryExpense, "-400"),
			entry("2024-02-01", model.CategoryExpense, "-75"),
		},
	}
	period := model.ReportPeriod{
		StartDate: model.MustParseDate("2024-01-01"),
		EndDate:   model.MustParseDate("2024-01-31"),
	}

	filtered := FilterPeriod(dataset, period)

	assert.Equal(t, "Shop", filtered.BusinessName)
	assert.Equal(t, period, filtered.ReportPeriod)
	require.Len(t, filtered.Entries, 2)
	assert.True(t, filtered.Summary.NetCashflow.Equal(decimal.NewFromInt(600)))
	assert.Len(t, dataset.Entries, 4)
}

func TestFilterPeriod_TimestampedEntries(t *testing.T) {
	input := `{"entries": [
		{"date": "2024-03-31T15:00:00Z", "category": "revenue", "amount": 120, "description": "Late sale"},
		{"date": "2024-01-31T23:00:00-05:00", "category": "expense", "amount": -40, "description": "Supplies"}
	]}`

	dataset, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	march := FilterPeriod(dataset, model.ReportPeriod{
		StartDate: model.MustParseDate("2024-03-01"),
		EndDate:   model.MustParseDate("2024-03-31"),
	})
	require.Len(t, march.Entries, 1)
	assert.Equal(t, "Late sale", march.Entries[0].Description)

	january := FilterPeriod(dataset, model.ReportPeriod{
		StartDate: model.MustParseDate("2024-01-01"),
		EndDate:   model.MustParseDate("2024-01-31"),
	})
	require.Len(t, january.Entries, 1)
	assert.Equal(t, "2024-01", january.Entries[0].MonthKey())
}

func TestSpan(t *testing.T) {
	period := Span([]model.LedgerEntry{
		entry("2024-02-10", model.CategoryRevenue, "1"),
		entry("2023-11-20", model.CategoryRevenue, "1"),
		entry("2024-01-01", model.CategoryRevenue, "1"),
	})
	assert.Equal(t, "2023-11-20", period.StartDate.String())
	assert.Equal(t, "2024-02-10", period.EndDate.String())

	assert.True(t, Span(nil).StartDate.IsZero())
}

func TestDecode(t *testing.T) {
	t.Run("full dataset keeps given summary", func(t *testing.T) {
		input := `{
			"businessName": "Corner Bakery",
			"reportPeriod": {"startDate": "2024-01-01", "endDate": "2024-01-31"},
			"entries": [
				{"date": "2024-01-05", "category": "revenue", "amount": 1000, "description": "Catering"},
				{"date": "2024-01-10", "category": "expense", "subcategory": "Rent", "amount": "-400", "description": "Rent"}
			],
			"summary": {"totalRevenue": 1000, "totalExpenses": 400, "netCashflow": 999}
		}`

		dataset, err := Decode(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, "Corner Bakery", dataset.BusinessName)
		assert.Equal(t, "2024-01-31", dataset.ReportPeriod.EndDate.String())
		require.Len(t, dataset.Entries, 2)
		assert.Equal(t, "Rent", dataset.Entries[1].Subcategory)
		assert.True(t, dataset.Entries[1].Amount.Equal(decimal.NewFromInt(-400)))
		assert.True(t, dataset.Summary.NetCashflow.Equal(decimal.NewFromInt(999)))
	})

	t.Run("missing summary and period are derived", func(t *testing.T) {
		input := `{"entries": [
			{"date": "2024-03-02", "category": "revenue", "amount": 250, "description": "Sale"},
			{"date": "2024-03-09", "category": "expense", "amount": -50, "description": "Supplies"}
		]}`

		dataset, err := Decode(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, "2024-03-02", dataset.ReportPeriod.StartDate.String())
		assert.Equal(t, "2024-03-09", dataset.ReportPeriod.EndDate.String())
		assert.True(t, dataset.Summary.NetCashflow.Equal(decimal.NewFromInt(200)))
	})
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		input   string
	}{
		{name: "not json", input: `nope`, wantErr: common.ErrInvalidDataset},
		{name: "no entries", input: `{"entries": []}`, wantErr: common.ErrNoEntries},
		{
			name:    "unknown category",
			input:   `{"entries": [{"date": "2024-01-01", "category": "transfer", "amount": 1}]}`,
			wantErr: common.ErrInvalidDataset,
		},
		{
			name:    "bad date",
			input:   `{"entries": [{"date": "01/02/2024", "category": "revenue", "amount": 1}]}`,
			wantErr: common.ErrInvalidDataset,
		},
		{
			name:    "missing date",
			input:   `{"entries": [{"category": "revenue", "amount": 1}]}`,
			wantErr: common.ErrInvalidDataset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"entries": [{"date": "2024-01-05", "category": "revenue", "amount": 10}]}`), 0o600))

	dataset, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, dataset.Entries, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOFXImporter_ParseEntries(t *testing.T) {
	entries, err := NewOFXImporter().ParseEntries(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	deposit := entries[0]
	assert.Equal(t, model.CategoryRevenue, deposit.Category)
	assert.Equal(t, "Deposits", deposit.Subcategory)
	assert.Equal(t, "2024-01-05", deposit.Date.String())
	assert.True(t, deposit.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "ACME CATERING", deposit.Description)

	groceries := entries[1]
	assert.Equal(t, model.CategoryExpense, groceries.Category)
	assert.Equal(t, "", groceries.Subcategory)
	assert.True(t, groceries.Amount.Equal(decimal.NewFromInt(-125)))
	assert.Equal(t, "Whole Foods Market", groceries.Description)

	check := entries[2]
	assert.Equal(t, model.CategoryExpense, check.Category)
	assert.Equal(t, "Checks", check.Subcategory)
}

func TestOFXImporter_Import(t *testing.T) {
	dataset, err := NewOFXImporter().Import(context.Background(), strings.NewReader(sampleBankOFX), "Corner Bakery")
	require.NoError(t, err)

	assert.Equal(t, "Corner Bakery", dataset.BusinessName)
	assert.Equal(t, "2024-01-05", dataset.ReportPeriod.StartDate.String())
	assert.Equal(t, "2024-01-25", dataset.ReportPeriod.EndDate.String())
	assert.True(t, dataset.Summary.TotalRevenue.Equal(decimal.NewFromInt(1500)))
	assert.True(t, dataset.Summary.TotalExpenses.Equal(decimal.NewFromInt(625)))
	assert.True(t, dataset.Summary.NetCashflow.Equal(decimal.NewFromInt(875)))
	require.NoError(t, dataset.Validate())
}

func TestOFXImporter_InvalidInput(t *testing.T) {
	for _, input := range []string{"", "not valid OFX"} {
		_, err := NewOFXImporter().ParseEntries(context.Background(), strings.NewReader(input))
		assert.Error(t, err)
	}
}

func TestSubcategoryFor(t *testing.T) {
	assert.Equal(t, "Interest", subcategoryFor("INT"))
	assert.Equal(t, "Bank Fees", subcategoryFor("FEE"))
	assert.Equal(t, "Cash & ATM", subcategoryFor("ATM"))
	assert.Equal(t, "", subcategoryFor("DEBIT"))
}

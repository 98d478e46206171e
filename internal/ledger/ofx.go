package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line that lost their closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// descriptionPrefixes are card-processor noise stripped from statement names.
var descriptionPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"ACH CREDIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// OFXImporter converts OFX/QFX bank and credit card statements into ledger entries.
type OFXImporter struct{}

// NewOFXImporter creates a new OFX importer.
func NewOFXImporter() *OFXImporter {
	return &OFXImporter{}
}

// preprocess fixes common formatting issues in OFX files.
func (p *OFXImporter) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseEntries reads every statement transaction. Credits become revenue and
// debits become expenses with a negative amount.
func (p *OFXImporter) ParseEntries(ctx context.Context, reader io.Reader) ([]model.LedgerEntry, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var entries []model.LedgerEntry
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			entries = append(entries, p.convertAll(stmt.BankTranList.Transactions)...)
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			ccStmts++
			entries = append(entries, p.convertAll(stmt.BankTranList.Transactions)...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("Parsed OFX file",
		"entries", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return entries, nil
}

// Import builds a dataset from a statement, computing its summary and period.
func (p *OFXImporter) Import(ctx context.Context, reader io.Reader, businessName string) (*model.CashflowDataset, error) {
	entries, err := p.ParseEntries(ctx, reader)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, common.ErrNoEntries
	}

	return &model.CashflowDataset{
		BusinessName: businessName,
		ReportPeriod: Span(entries),
		Entries:      entries,
		Summary:      Summarize(entries),
	}, nil
}

func (p *OFXImporter) convertAll(txns []ofxgo.Transaction) []model.LedgerEntry {
	entries := make([]model.LedgerEntry, 0, len(txns))
	for _, tx := range txns {
		entry, err := p.convertTransaction(tx)
		if err != nil {
			slog.Warn("Skipping OFX transaction", "fitid", string(tx.FiTID), "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (p *OFXImporter) convertTransaction(tx ofxgo.Transaction) (model.LedgerEntry, error) {
	amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("invalid amount: %w", err)
	}
	if tx.DtPosted.IsZero() {
		return model.LedgerEntry{}, fmt.Errorf("missing posted date")
	}

	posted := tx.DtPosted.Time
	entry := model.LedgerEntry{
		Date:        model.NewDate(posted.Year(), posted.Month(), posted.Day()),
		Amount:      amount,
		Category:    model.CategoryExpense,
		Subcategory: subcategoryFor(fmt.Sprintf("%v", tx.TrnType)),
		Description: description(tx),
	}
	if amount.IsPositive() {
		entry.Category = model.CategoryRevenue
	}
	return entry, nil
}

// subcategoryFor infers a subcategory from the OFX transaction type.
func subcategoryFor(trnType string) string {
	switch trnType {
	case "INT", "DIV":
		return "Interest"
	case "FEE", "SRVCHG":
		return "Bank Fees"
	case "ATM", "CASH":
		return "Cash & ATM"
	case "CHECK":
		return "Checks"
	case "DEP", "DIRECTDEP":
		return "Deposits"
	case "DIRECTDEBIT", "REPEATPMT":
		return "Recurring Payments"
	case "XFER":
		return "Transfers"
	default:
		return ""
	}
}

// description prefers PAYEE, then NAME, then MEMO when NAME is generic.
func description(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range descriptionPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " date.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "DEPOSIT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	default:
		return false
	}
}

package analysis

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-insights/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Prompt limits.
const (
	// MaxPromptLength is the size in characters above which a prompt is logged as oversized.
	MaxPromptLength = 30000
	// MaxSampleEntries is how many entries are listed individually in the prompt.
	MaxSampleEntries = 20
)

const (
	defaultBusinessName = "Unknown Business"
	defaultSubcategory  = "Other"
	promptDateLayout    = "January 2, 2006"
)

// TemplatePromptBuilder handles generation of prompts using embedded templates.
type TemplatePromptBuilder struct {
	templates map[string]*template.Template
}

// NewTemplatePromptBuilder creates a new TemplatePromptBuilder with loaded templates.
func NewTemplatePromptBuilder() (*TemplatePromptBuilder, error) {
	pb := &TemplatePromptBuilder{
		templates: make(map[string]*template.Template),
	}

	funcMap := template.FuncMap{
		"currency": FormatCurrency,
		"upper":    func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	}

	for _, name := range []string{"analysis_prompt", "json_schema"} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(name + ".tmpl").Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pb.templates[name] = tmpl
	}

	return pb, nil
}

// PromptData contains all data needed for the analysis prompt.
type PromptData struct {
	Dataset *model.CashflowDataset
	Metrics Metrics
}

// BreakdownLine is one subcategory total in a prompt breakdown.
type BreakdownLine struct {
	Name   string
	Amount decimal.Decimal
}

// TrendLine is one month of the prompt's monthly trend.
type TrendLine struct {
	Month    string
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
}

// promptView is the data the analysis template renders.
type promptView struct {
	BusinessName      string
	StartDate         string
	EndDate           string
	JSONSchema        string
	Summary           model.CashflowSummary
	GrossProfitMargin string
	Entries           []model.LedgerEntry
	ExpenseBreakdown  []BreakdownLine
	RevenueBreakdown  []BreakdownLine
	MonthlyTrend      []TrendLine
	EntryCount        int
}

// BuildAnalysisPrompt creates the analysis prompt. It never truncates; callers
// compare the result against MaxPromptLength.
func (pb *TemplatePromptBuilder) BuildAnalysisPrompt(data PromptData) (string, error) {
	if data.Dataset == nil {
		return "", fmt.Errorf("prompt requires a dataset")
	}
	dataset := data.Dataset

	var schemaBuf bytes.Buffer
	if err := pb.templates["json_schema"].ExecuteTemplate(&schemaBuf, "json_schema.tmpl", nil); err != nil {
		return "", fmt.Errorf("failed to execute json_schema template: %w", err)
	}

	name := strings.TrimSpace(dataset.BusinessName)
	if name == "" {
		name = defaultBusinessName
	}

	sample := dataset.Entries
	if len(sample) > MaxSampleEntries {
		sample = sample[:MaxSampleEntries]
	}

	view := promptView{
		BusinessName:      name,
		StartDate:         dataset.ReportPeriod.StartDate.Format(promptDateLayout),
		EndDate:           dataset.ReportPeriod.EndDate.Format(promptDateLayout),
		JSONSchema:        strings.TrimSpace(schemaBuf.String()),
		Summary:           dataset.Summary,
		GrossProfitMargin: FormatPercent(data.Metrics.GrossProfitMargin),
		Entries:           sample,
		EntryCount:        len(dataset.Entries),
		ExpenseBreakdown:  SubcategoryBreakdown(dataset.Entries, model.CategoryExpense),
		RevenueBreakdown:  SubcategoryBreakdown(dataset.Entries, model.CategoryRevenue),
		MonthlyTrend:      monthlyTrend(data.Metrics),
	}

	var buf bytes.Buffer
	if err := pb.templates["analysis_prompt"].ExecuteTemplate(&buf, "analysis_prompt.tmpl", view); err != nil {
		return "", fmt.Errorf("failed to execute analysis_prompt template: %w", err)
	}

	return buf.String(), nil
}

// SubcategoryBreakdown totals one category's entries by subcategory, largest
// first. Ties are ordered by name. Expenses add their magnitude and revenue
// adds its signed amount, matching SummarizeMetrics.
func SubcategoryBreakdown(entries []model.LedgerEntry, category model.EntryCategory) []BreakdownLine {
	totals := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		if entry.Category != category {
			continue
		}
		name := entry.SubcategoryOr(defaultSubcategory)
		amount := entry.Amount
		if entry.Category == model.CategoryExpense {
			amount = entry.Magnitude()
		}
		totals[name] = totals[name].Add(amount)
	}

	lines := make([]BreakdownLine, 0, len(totals))
	for name, amount := range totals {
		lines = append(lines, BreakdownLine{Name: name, Amount: amount})
	}
	sort.Slice(lines, func(i, j int) bool {
		if cmp := lines[i].Amount.Cmp(lines[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return lines[i].Name < lines[j].Name
	})
	return lines
}

func monthlyTrend(metrics Metrics) []TrendLine {
	keys := metrics.MonthKeys()
	trend := make([]TrendLine, 0, len(keys))
	for _, key := range keys {
		bucket := metrics.Monthly[key]
		trend = append(trend, TrendLine{
			Month:    key,
			Revenue:  bucket.Revenue,
			Expenses: bucket.Expenses,
			Net:      bucket.Net(),
		})
	}
	return trend
}

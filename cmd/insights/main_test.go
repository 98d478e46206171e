package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-insights/internal/analysis"
)

const testLedger = `{
  "businessName": "Corner Bakery",
  "reportPeriod": {"startDate": "2024-01-01", "endDate": "2024-02-29"},
  "entries": [
    {"date": "2024-01-05", "category": "revenue", "subcategory": "Catering", "amount": 1000, "description": "Office catering"},
    {"date": "2024-01-10", "category": "expense", "subcategory": "Rent", "amount": -400, "description": "January rent"},
    {"date": "2024-02-05", "category": "revenue", "subcategory": "Retail", "amount": 300, "description": "Counter sales"}
  ],
  "summary": {"totalRevenue": 1300, "totalExpenses": 400, "netCashflow": 900}
}`

const modelAnswer = `{
  "executiveSummary": "Strong start to the year.",
  "overallHealthScore": 82,
  "insights": [{"type": "profitability", "title": "Healthy margin", "description": "Margin is 69%.",
    "severity": "low", "actionable": false, "impact": "positive", "confidence": 85}],
  "keyMetrics": [],
  "recommendations": [],
  "riskFactors": [],
  "visualizationSuggestions": []
}`

// fakeGemini serves a fixed generateContent answer and counts requests.
func fakeGemini(t *testing.T, status int, text string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": {"code": 0, "message": "nope", "status": "FAILED"}}`))
			return
		}
		body, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]string{{"text": text}}},
			}},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

// testEnv isolates configuration and returns the ledger and database paths.
func testEnv(t *testing.T, endpoint, apiKey string) (ledgerPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("HOME", dir)
	t.Setenv("GEMINI_API_KEY", apiKey)
	t.Setenv("INSIGHTS_GEMINI_API_KEY", "")
	t.Setenv("INSIGHTS_ANALYSIS_RETRIES", "")
	if endpoint != "" {
		t.Setenv("INSIGHTS_GEMINI_ENDPOINT", endpoint+"/v1beta/models/gemini-1.5-flash:generateContent")
	}

	ledgerPath = filepath.Join(dir, "ledger.json")
	require.NoError(t, os.WriteFile(ledgerPath, []byte(testLedger), 0o600))

	return ledgerPath, filepath.Join(dir, "data", "insights.db")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeAnalysis(t *testing.T, out string) analysis.Analysis {
	t.Helper()
	var result analysis.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	require.NotNil(t, result.Report)
	return result
}

func TestAnalyze_ModelReport(t *testing.T) {
	server, calls := fakeGemini(t, http.StatusOK, modelAnswer)
	ledgerPath, dbPath := testEnv(t, server.URL, "test-key")

	out, err := execute(t, "analyze", ledgerPath, "--output", "json", "--db", dbPath)
	require.NoError(t, err)

	result := decodeAnalysis(t, out)
	assert.Equal(t, analysis.SourceModel, result.Source)
	assert.Equal(t, "Corner Bakery", result.BusinessName)
	assert.Equal(t, "2024-02-29", result.Period.EndDate.String())
	assert.Equal(t, 82, result.Report.OverallHealthScore)
	assert.Equal(t, "Strong start to the year.", result.Report.ExecutiveSummary)
	assert.NotEmpty(t, result.ID)
	assert.Len(t, result.Report.Visualizations, 3)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyze_UnusableAnswerFallsBack(t *testing.T) {
	server, _ := fakeGemini(t, http.StatusOK, "I'm sorry, I cannot help with that.")
	ledgerPath, dbPath := testEnv(t, server.URL, "test-key")

	out, err := execute(t, "analyze", ledgerPath, "--output", "json", "--db", dbPath)
	require.NoError(t, err)

	result := decodeAnalysis(t, out)
	assert.Equal(t, analysis.SourceFallback, result.Source)
	assert.Equal(t, 70, result.Report.OverallHealthScore)
}

func TestAnalyze_MissingKey(t *testing.T) {
	ledgerPath, dbPath := testEnv(t, "", "")

	out, err := execute(t, "analyze", ledgerPath, "--output", "json", "--db", dbPath)
	require.Error(t, err)

	var failure map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &failure), out)
	assert.Equal(t, false, failure["success"])
	assert.Equal(t, "Gemini API key not configured", failure["error"])
}

func TestAnalyze_FallbackOnError(t *testing.T) {
	ledgerPath, dbPath := testEnv(t, "", "")

	out, err := execute(t, "analyze", ledgerPath, "--output", "json", "--fallback-on-error", "--db", dbPath)
	require.NoError(t, err)

	result := decodeAnalysis(t, out)
	assert.Equal(t, analysis.SourceFallback, result.Source)
}

func TestAnalyze_PermanentFailureIsNotRetried(t *testing.T) {
	server, calls := fakeGemini(t, http.StatusUnauthorized, "")
	ledgerPath, dbPath := testEnv(t, server.URL, "bad-key")

	_, err := execute(t, "analyze", ledgerPath, "--output", "json", "--retries", "3", "--db", dbPath)
	require.Error(t, err)

	var failure *analysis.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, analysis.FailureInvalidCredential, failure.Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyze_TextOutput(t *testing.T) {
	server, _ := fakeGemini(t, http.StatusOK, modelAnswer)
	ledgerPath, dbPath := testEnv(t, server.URL, "test-key")

	out, err := execute(t, "analyze", ledgerPath, "--progress=false", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Cashflow Insights: Corner Bakery")
	assert.Contains(t, out, "Healthy margin")
}

func TestAnalyze_InvalidArguments(t *testing.T) {
	ledgerPath, dbPath := testEnv(t, "", "")

	_, err := execute(t, "analyze", ledgerPath, "--output", "yaml", "--db", dbPath)
	assert.Error(t, err)

	_, err = execute(t, "analyze", filepath.Join(t.TempDir(), "missing.json"), "--db", dbPath)
	assert.Error(t, err)

	_, err = execute(t, "analyze", ledgerPath, "--start-date", "2024-02-01", "--end-date", "2024-01-01", "--db", dbPath)
	assert.Error(t, err)
}

func TestAnalyze_SaveAndHistory(t *testing.T) {
	server, _ := fakeGemini(t, http.StatusOK, modelAnswer)
	ledgerPath, dbPath := testEnv(t, server.URL, "test-key")

	out, err := execute(t, "analyze", ledgerPath, "--output", "json", "--save", "--db", dbPath)
	require.NoError(t, err)
	saved := decodeAnalysis(t, out)

	out, err = execute(t, "history", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, saved.ID)
	assert.Contains(t, out, "Corner Bakery")

	out, err = execute(t, "history", "show", saved.ID, "--output", "json", "--db", dbPath)
	require.NoError(t, err)
	shown := decodeAnalysis(t, out)
	assert.Equal(t, saved.ID, shown.ID)
	assert.Equal(t, 82, shown.Report.OverallHealthScore)

	out, err = execute(t, "history", "delete", saved.ID, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted analysis")

	_, err = execute(t, "history", "show", saved.ID, "--db", dbPath)
	assert.Error(t, err)
}

func TestHistory_Empty(t *testing.T) {
	_, dbPath := testEnv(t, "", "")

	out, err := execute(t, "history", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No archived analyses")
}

func TestPrompt(t *testing.T) {
	server, calls := fakeGemini(t, http.StatusOK, modelAnswer)
	ledgerPath, _ := testEnv(t, server.URL, "test-key")

	out, err := execute(t, "prompt", ledgerPath, "--business", "Night Bakery")
	require.NoError(t, err)

	assert.Contains(t, out, "Night Bakery")
	assert.Contains(t, out, "MONTHLY TRENDS:")
	assert.Equal(t, int32(0), calls.Load())
}

func TestPrompt_PeriodFilter(t *testing.T) {
	ledgerPath, _ := testEnv(t, "", "")

	out, err := execute(t, "prompt", ledgerPath, "--start-date", "2024-02-01")
	require.NoError(t, err)

	assert.Contains(t, out, "TOTAL ENTRIES: 1")
	assert.NotContains(t, out, "January rent")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "insights version dev")
}

func TestIsOFXFile(t *testing.T) {
	assert.True(t, isOFXFile("statement.OFX"))
	assert.True(t, isOFXFile("/tmp/bank.qfx"))
	assert.False(t, isOFXFile("ledger.json"))
}

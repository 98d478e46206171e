package analysis

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Outcome records how a response was normalized.
type Outcome string

const (
	// OutcomeModel means the model's response was accepted.
	OutcomeModel Outcome = "model"
	// OutcomeUnparseable means no JSON object could be extracted from the response.
	OutcomeUnparseable Outcome = "response_unparseable"
	// OutcomeInvalidSchema means the JSON lacked a truthy summary or score.
	OutcomeInvalidSchema Outcome = "response_invalid_schema"
)

// Source maps an outcome to the origin of the report content.
func (o Outcome) Source() Source {
	if o == OutcomeModel {
		return SourceModel
	}
	return SourceFallback
}

// Normalizer converts raw model text into a Report.
type Normalizer struct{}

// NewNormalizer creates a response normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize always returns a report. Anything it cannot trust in text is
// replaced by the fallback report for dataset.
func (n *Normalizer) Normalize(text string, dataset *model.CashflowDataset) (report *Report, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered while normalizing response", "panic", r)
			report, outcome = GenerateFallback(dataset), OutcomeUnparseable
		}
	}()

	fields, err := parseResponseObject(text)
	if err != nil {
		slog.Warn("Model response unparseable, using fallback report", "error", err)
		return GenerateFallback(dataset), OutcomeUnparseable
	}

	report, err = buildReport(fields)
	if err != nil {
		slog.Warn("Model response failed validation, using fallback report", "error", err)
		return GenerateFallback(dataset), OutcomeInvalidSchema
	}

	var suggestions []VisualizationSuggestion
	decodeElements(fields["visualizationSuggestions"], &suggestions)

	var entries []model.LedgerEntry
	if dataset != nil {
		entries = dataset.Entries
	}
	report.Visualizations = BuildVisualizations(entries, suggestions)
	report.ensureSlices()

	return report, OutcomeModel
}

// extractJSONSpan returns the text from the first '{' through the last '}'.
func extractJSONSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func parseResponseObject(text string) (map[string]json.RawMessage, error) {
	span, ok := extractJSONSpan(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in %d characters of response", len(text))
	}

	var fields map[string]json.RawMessage
	parseErr := json.Unmarshal([]byte(span), &fields)
	if parseErr == nil {
		return fields, nil
	}

	repaired, err := jsonrepair.RepairJSON(span)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", parseErr)
	}
	if err := json.Unmarshal([]byte(repaired), &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON after repair: %w", parseErr)
	}
	if fields == nil {
		return nil, fmt.Errorf("invalid JSON: %w", parseErr)
	}

	slog.Debug("Repaired malformed JSON in model response")
	return fields, nil
}

func buildReport(fields map[string]json.RawMessage) (*Report, error) {
	summary, err := executiveSummary(fields["executiveSummary"])
	if err != nil {
		return nil, err
	}
	score, err := healthScore(fields["overallHealthScore"])
	if err != nil {
		return nil, err
	}

	report := &Report{
		ExecutiveSummary:   summary,
		OverallHealthScore: score,
	}
	decodeElements(fields["insights"], &report.Insights)
	decodeElements(fields["keyMetrics"], &report.KeyMetrics)
	decodeElements(fields["recommendations"], &report.Recommendations)
	decodeElements(fields["riskFactors"], &report.RiskFactors)
	report.ensureSlices()

	return report, nil
}

func executiveSummary(raw json.RawMessage) (string, error) {
	var value any
	if len(raw) == 0 || json.Unmarshal(raw, &value) != nil || !truthy(value) {
		return "", fmt.Errorf("executiveSummary is missing or empty")
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("executiveSummary must be a string, got %T", value)
	}
	return s, nil
}

// healthScore reads, rounds and clamps the score. Zero is rejected the same
// way as a missing score.
func healthScore(raw json.RawMessage) (int, error) {
	var value any
	if len(raw) == 0 || json.Unmarshal(raw, &value) != nil || !truthy(value) {
		return 0, fmt.Errorf("overallHealthScore is missing or zero")
	}

	var score float64
	switch v := value.(type) {
	case float64:
		score = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("overallHealthScore is not numeric: %q", v)
		}
		score = parsed
	default:
		return 0, fmt.Errorf("overallHealthScore must be a number, got %T", value)
	}
	if math.IsNaN(score) {
		return 0, fmt.Errorf("overallHealthScore is not numeric")
	}

	return ClampScore(int(math.Round(math.Max(-1, math.Min(101, score))))), nil
}

// truthy follows loose JSON truthiness: null, false, 0 and "" are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	default:
		return true
	}
}

// decodeElements decodes a JSON array element by element into dst, a pointer
// to a slice. Elements that do not decode are dropped; anything that is not
// an array leaves dst empty.
func decodeElements[T any](raw json.RawMessage, dst *[]T) {
	*dst = []T{}
	if len(raw) == 0 {
		return
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return
	}

	for i, element := range elements {
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			slog.Debug("Dropping malformed report element", "index", i, "error", err)
			continue
		}
		*dst = append(*dst, item)
	}
}

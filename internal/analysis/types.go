package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/spice-insights/internal/model"
)

// Severity represents how urgent an insight is.
type Severity string

const (
	// SeverityLow indicates a minor observation.
	SeverityLow Severity = "low"
	// SeverityMedium indicates something worth scheduling.
	SeverityMedium Severity = "medium"
	// SeverityHigh indicates a significant problem.
	SeverityHigh Severity = "high"
	// SeverityCritical indicates an issue requiring immediate attention.
	SeverityCritical Severity = "critical"
)

// Impact describes the direction of an insight's effect.
type Impact string

// Insight impacts.
const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// Unit is the unit a metric value is expressed in.
type Unit string

// Metric units.
const (
	UnitCurrency   Unit = "currency"
	UnitPercentage Unit = "percentage"
	UnitCount      Unit = "count"
	UnitRatio      Unit = "ratio"
)

// Trend is the direction a metric is moving.
type Trend string

// Metric trends.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Priority ranks a recommendation.
type Priority string

// Recommendation priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Timeframe is when a recommendation should be acted on.
type Timeframe string

// Recommendation timeframes.
const (
	TimeframeImmediate  Timeframe = "immediate"
	TimeframeShortTerm  Timeframe = "short_term"
	TimeframeMediumTerm Timeframe = "medium_term"
	TimeframeLongTerm   Timeframe = "long_term"
)

// Level is a coarse low/medium/high rating used by risk factors.
type Level string

// Risk levels.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ChartType names a chart rendering.
type ChartType string

// Chart types understood by the charting layer.
const (
	ChartPie   ChartType = "pie"
	ChartBar   ChartType = "bar"
	ChartLine  ChartType = "line"
	ChartArea  ChartType = "area"
	ChartDonut ChartType = "donut"
)

// Report is the canonical analysis output. Every field is always populated,
// including when it was produced by the fallback generator.
type Report struct {
	ExecutiveSummary   string           `json:"executiveSummary"`
	Insights           []Insight        `json:"insights"`
	KeyMetrics         []Metric         `json:"keyMetrics"`
	Recommendations    []Recommendation `json:"recommendations"`
	RiskFactors        []RiskFactor     `json:"riskFactors"`
	Visualizations     []ChartSpec      `json:"visualizations"`
	OverallHealthScore int              `json:"overallHealthScore"`
}

// Insight is a single finding about the business.
type Insight struct {
	Recommendation *string  `json:"recommendation,omitempty"`
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Impact         Impact   `json:"impact"`
	Confidence     float64  `json:"confidence"`
	Actionable     bool     `json:"actionable"`
}

// Metric is a named key figure.
type Metric struct {
	ChangePercentage *float64 `json:"changePercentage,omitempty"`
	Name             string   `json:"name"`
	Unit             Unit     `json:"unit"`
	Trend            Trend    `json:"trend"`
	Description      string   `json:"description"`
	Value            float64  `json:"value"`
}

// Recommendation is a suggested action.
type Recommendation struct {
	Priority       Priority  `json:"priority"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	ExpectedImpact string    `json:"expectedImpact"`
	Timeframe      Timeframe `json:"timeframe"`
}

// RiskFactor is a potential threat to the business.
type RiskFactor struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Likelihood  Level  `json:"likelihood"`
	Impact      Level  `json:"impact"`
}

// ChartSpec is a chart-library-agnostic description of one visualization.
type ChartSpec struct {
	ChartType ChartType `json:"chartType"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Data      ChartData `json:"data"`
}

// ChartData holds the labels and series of a chart.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDataset is one series of a chart.
type ChartDataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor ColorSet  `json:"backgroundColor,omitempty"`
	BorderColor     ColorSet  `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
}

// ColorSet is a list of CSS colors. A single color serializes as a plain string.
type ColorSet []string

// MarshalJSON implements json.Marshaler.
func (c ColorSet) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]string(c))
}

// UnmarshalJSON accepts either a string or an array of strings.
func (c *ColorSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = ColorSet{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("color must be a string or list of strings: %w", err)
	}
	*c = many
	return nil
}

// Source records where a report's content came from.
type Source string

const (
	// SourceModel means the report was parsed from the model's response.
	SourceModel Source = "model"
	// SourceFallback means the report was generated locally.
	SourceFallback Source = "fallback"
)

// Analysis wraps a report with the metadata of the run that produced it.
type Analysis struct {
	GeneratedAt  time.Time          `json:"generatedAt"`
	Report       *Report            `json:"report"`
	ID           string             `json:"id"`
	BusinessName string             `json:"businessName"`
	Source       Source             `json:"source"`
	Period       model.ReportPeriod `json:"reportPeriod"`
}

// Options configures a single analysis call.
type Options struct {
	ProgressFunc ProgressCallback
}

// ProgressCallback provides updates during analysis execution.
type ProgressCallback func(stage string, percent int)

// ensureSlices replaces nil slices so every array field serializes as [].
func (r *Report) ensureSlices() {
	if r.Insights == nil {
		r.Insights = []Insight{}
	}
	if r.KeyMetrics == nil {
		r.KeyMetrics = []Metric{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	if r.RiskFactors == nil {
		r.RiskFactors = []RiskFactor{}
	}
	if r.Visualizations == nil {
		r.Visualizations = []ChartSpec{}
	}
}

// ClampScore bounds a health score to [0, 100].
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// SeverityOrder returns the numeric priority of a severity (lower is more severe).
func (s Severity) SeverityOrder() int {
	switch s {
	case SeverityCritical:
		return 1
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 4
	default:
		return 5
	}
}

package analysis

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors.
var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#FF6B6B")
	// SuccessColor indicates healthy figures.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates figures worth watching.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates problems.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational text.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent text.
	SubtleColor = lipgloss.Color("#666666") // Gray
)

// Styles contains all styling definitions for report formatting.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Normal   lipgloss.Style

	Box        lipgloss.Style
	Score      lipgloss.Style
	Critical   lipgloss.Style
	High       lipgloss.Style
	Medium     lipgloss.Style
	Low        lipgloss.Style
	InsightBox lipgloss.Style
	RiskBox    lipgloss.Style
}

// NewStyles creates a new Styles instance with default styling.
func NewStyles() *Styles {
	s := &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true),
		Success: lipgloss.NewStyle().Foreground(SuccessColor),
		Warning: lipgloss.NewStyle().Foreground(WarningColor),
		Error:   lipgloss.NewStyle().Foreground(ErrorColor),
		Info:    lipgloss.NewStyle().Foreground(InfoColor),
		Subtle:  lipgloss.NewStyle().Foreground(SubtleColor),
		Normal:  lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SubtleColor).
		Padding(0, 1)

	s.Score = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	s.Critical = lipgloss.NewStyle().
		Bold(true).
		Foreground(ErrorColor).
		Background(lipgloss.Color("#2D0000"))

	s.High = lipgloss.NewStyle().
		Bold(true).
		Foreground(WarningColor)

	s.Medium = lipgloss.NewStyle().
		Foreground(InfoColor)

	s.Low = lipgloss.NewStyle().
		Foreground(SubtleColor)

	s.InsightBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(InfoColor).
		Padding(0, 1).
		MarginTop(1)

	s.RiskBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(WarningColor).
		Padding(0, 1).
		MarginTop(1)

	return s
}

// WithWidth returns a copy of the styles with boxes fitted to a terminal width.
func (s *Styles) WithWidth(width int) *Styles {
	newStyles := *s
	if width > 0 && width < 100 {
		newStyles.Box = s.Box.Width(width - 4)
		newStyles.InsightBox = s.InsightBox.Width(width - 4)
		newStyles.RiskBox = s.RiskBox.Width(width - 4)
	}
	return &newStyles
}

// ForSeverity returns the appropriate style for the given severity level.
func (s *Styles) ForSeverity(severity Severity) lipgloss.Style {
	switch severity {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	default:
		return s.Normal
	}
}

// ForScore returns the style for a 0-100 health score.
func (s *Styles) ForScore(score int) lipgloss.Style {
	switch {
	case score >= 70:
		return s.Success
	case score >= 50:
		return s.Warning
	default:
		return s.Error
	}
}

// RenderScoreBar draws a fixed-width bar for a 0-100 score.
func (s *Styles) RenderScoreBar(score, width int) string {
	if width <= 0 {
		width = 30
	}
	filled := width * ClampScore(score) / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

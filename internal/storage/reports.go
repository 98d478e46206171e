package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-insights/internal/analysis"
	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
)

// DefaultListLimit bounds ListAnalyses when no limit is given.
const DefaultListLimit = 20

// AnalysisSummary is a lightweight row for history listings.
type AnalysisSummary struct {
	GeneratedAt  time.Time
	ID           string
	BusinessName string
	Source       analysis.Source
	Period       model.ReportPeriod
	HealthScore  int
}

// SaveAnalysis archives an analysis. Saving an existing ID replaces it.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, a *analysis.Analysis) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnalysis(a); err != nil {
		return err
	}

	reportJSON, err := json.Marshal(a.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses (
			id, business_name, period_start, period_end, source,
			report, generated_at, health_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.BusinessName,
		a.Period.StartDate.String(),
		a.Period.EndDate.String(),
		string(a.Source),
		string(reportJSON),
		a.GeneratedAt.UTC(),
		a.Report.OverallHealthScore,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetAnalysis loads a single archived analysis.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, id string) (*analysis.Analysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		a           analysis.Analysis
		source      string
		start, end  string
		reportJSON  string
		generatedAt time.Time
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, business_name, period_start, period_end, source, report, generated_at
		FROM analyses
		WHERE id = ?`, id).Scan(&a.ID, &a.BusinessName, &start, &end, &source, &reportJSON, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	period, err := parsePeriod(start, end)
	if err != nil {
		return nil, err
	}

	var report analysis.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to decode stored report: %w", err)
	}

	a.Source = analysis.Source(source)
	a.Period = period
	a.Report = &report
	a.GeneratedAt = generatedAt
	return &a, nil
}

// ListAnalyses returns the most recent analyses first.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, limit int) ([]AnalysisSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_name, period_start, period_end, source, health_score, generated_at
		FROM analyses
		ORDER BY generated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []AnalysisSummary
	for rows.Next() {
		var (
			summary    AnalysisSummary
			source     string
			start, end string
		)
		if err := rows.Scan(&summary.ID, &summary.BusinessName, &start, &end, &source,
			&summary.HealthScore, &summary.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}

		period, err := parsePeriod(start, end)
		if err != nil {
			return nil, err
		}
		summary.Period = period
		summary.Source = analysis.Source(source)
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	return summaries, nil
}

// DeleteAnalysis removes an archived analysis.
func (s *SQLiteStorage) DeleteAnalysis(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("analysis %s: %w", id, common.ErrNotFound)
	}

	return nil
}

func parsePeriod(start, end string) (model.ReportPeriod, error) {
	startDate, err := model.ParseDate(start)
	if err != nil {
		return model.ReportPeriod{}, fmt.Errorf("invalid stored period start: %w", err)
	}
	endDate, err := model.ParseDate(end)
	if err != nil {
		return model.ReportPeriod{}, fmt.Errorf("invalid stored period end: %w", err)
	}
	return model.ReportPeriod{StartDate: startDate, EndDate: endDate}, nil
}

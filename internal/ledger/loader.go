package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/spice-insights/internal/common"
	"github.com/Veraticus/spice-insights/internal/model"
)

// datasetFile mirrors model.CashflowDataset with optional summary and period.
type datasetFile struct {
	ReportPeriod *model.ReportPeriod    `json:"reportPeriod"`
	Summary      *model.CashflowSummary `json:"summary"`
	BusinessName string                 `json:"businessName"`
	Entries      []model.LedgerEntry    `json:"entries"`
}

// LoadFile reads a dataset from a JSON file.
func LoadFile(path string) (*model.CashflowDataset, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	dataset, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return dataset, nil
}

// Decode reads a JSON dataset. A missing summary is computed from the entries
// and a missing period is taken from the entry dates; a provided summary is
// used as given.
func Decode(r io.Reader) (*model.CashflowDataset, error) {
	var file datasetFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidDataset, err)
	}

	if len(file.Entries) == 0 {
		return nil, common.ErrNoEntries
	}

	dataset := &model.CashflowDataset{
		BusinessName: file.BusinessName,
		Entries:      file.Entries,
	}

	if file.ReportPeriod != nil {
		dataset.ReportPeriod = *file.ReportPeriod
	} else {
		dataset.ReportPeriod = Span(file.Entries)
	}

	if file.Summary != nil {
		dataset.Summary = *file.Summary
	} else {
		slog.Debug("Dataset has no summary, computing from entries", "entries", len(file.Entries))
		dataset.Summary = Summarize(file.Entries)
	}

	for i, e := range dataset.Entries {
		if !e.Category.IsValid() {
			return nil, fmt.Errorf("%w: entry %d has unknown category %q", common.ErrInvalidDataset, i, e.Category)
		}
	}
	if err := dataset.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidDataset, err)
	}

	return dataset, nil
}

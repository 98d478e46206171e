package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-insights/internal/config"
	"github.com/Veraticus/spice-insights/internal/ledger"
	"github.com/Veraticus/spice-insights/internal/model"
	"github.com/Veraticus/spice-insights/internal/storage"
)

// addLedgerFlags registers the flags shared by commands that read a ledger.
func addLedgerFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("ofx", false, "Treat the input as an OFX/QFX statement (implied by .ofx/.qfx extensions)")
	cmd.Flags().String("business", "", "Business name (overrides the ledger's own)")
	cmd.Flags().String("start-date", "", "Only analyze entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("end-date", "", "Only analyze entries on or before this date (YYYY-MM-DD)")
}

// loadSettings resolves configuration from the global viper instance.
func loadSettings() (config.Settings, error) {
	return config.Load(viper.GetViper())
}

// loadDataset reads the ledger named by path according to the ledger flags.
func loadDataset(ctx context.Context, cmd *cobra.Command, path string) (*model.CashflowDataset, error) {
	forceOFX, _ := cmd.Flags().GetBool("ofx")
	business, _ := cmd.Flags().GetString("business")
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")

	var (
		dataset *model.CashflowDataset
		err     error
	)

	if forceOFX || isOFXFile(path) {
		dataset, err = importOFX(ctx, path, business)
	} else {
		dataset, err = ledger.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if business != "" {
		dataset.BusinessName = business
	}

	if startStr == "" && endStr == "" {
		return dataset, nil
	}

	period := dataset.ReportPeriod
	if startStr != "" {
		if period.StartDate, err = model.ParseDate(startStr); err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if endStr != "" {
		if period.EndDate, err = model.ParseDate(endStr); err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
	}
	if period.EndDate.Before(period.StartDate.Time) {
		return nil, fmt.Errorf("end date %s is before start date %s", period.EndDate, period.StartDate)
	}

	filtered := ledger.FilterPeriod(dataset, period)
	slog.Info("Filtered ledger to period",
		"start_date", period.StartDate.String(),
		"end_date", period.EndDate.String(),
		"entries", len(filtered.Entries))

	return filtered, nil
}

func importOFX(ctx context.Context, path, business string) (*model.CashflowDataset, error) {
	file, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ledger.NewOFXImporter().Import(ctx, file, business)
}

func isOFXFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return true
	default:
		return false
	}
}

// openStorage opens and migrates the analysis archive.
func openStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tj/go-spin"

	"github.com/bsaid97/go-boundary-compare/compare"
	"github.com/bsaid97/go-boundary-compare/config"
	"github.com/bsaid97/go-boundary-compare/history"
	"github.com/bsaid97/go-boundary-compare/loader"
	"github.com/bsaid97/go-boundary-compare/logger"
	"github.com/bsaid97/go-boundary-compare/report"
)

// runPipeline executes one full comparison run: load both collections, match
// and compute metrics, aggregate trends against persisted history, append the
// snapshot and write the reports. Input unavailability aborts before any
// snapshot is produced.
func runPipeline(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	reference, err := loadReference(cfg)
	if err != nil {
		return fmt.Errorf("reference collection unavailable: %w", err)
	}
	log.Info("loaded reference collection", "records", len(reference))

	comparison, err := loadComparison(ctx, cfg)
	if err != nil {
		return fmt.Errorf("comparison collection unavailable: %w", err)
	}
	log.Info("loaded comparison collection", "records", len(comparison))

	matcher := &compare.Matcher{Workers: cfg.Workers}
	results, stats := matcher.Match(reference, comparison)
	log.Info("comparison complete",
		"matched", stats.Matched, "missing", stats.Missing,
		"failed", stats.Failed, "duplicate_ids", stats.DuplicateIDs)

	snapshot := compare.Snapshot{
		Date:    time.Now().UTC().Truncate(24 * time.Hour),
		Results: results,
	}

	store := history.NewFileStore(cfg.HistoryDir)
	past, err := store.Load()
	if err != nil {
		// Degraded but not fatal: trends just start from today.
		log.Warn("history unavailable, continuing without it", "err", err)
		past = nil
	}
	trend := history.Aggregate(snapshot, past)

	if err := store.Append(snapshot); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	return writeReports(cfg.OutputDir, snapshot, trend)
}

func loadReference(cfg *config.Config) ([]compare.GeometryRecord, error) {
	ref := cfg.Reference
	switch ref.Format {
	case "geojson":
		return loader.LoadGeoJSON(ref.Path, ref.IDField, ref.NameField)
	default:
		return loader.LoadShapefile(ref.Path, ref.IDField, ref.NameField)
	}
}

func loadComparison(ctx context.Context, cfg *config.Config) ([]compare.GeometryRecord, error) {
	cmp := cfg.Comparison
	if cmp.Path != "" {
		return loader.LoadGeoJSON(cmp.Path, cmp.IDTag, cmp.NameTag)
	}

	client := &loader.OverpassClient{
		URL:        cmp.OverpassURL,
		Query:      cmp.Query,
		Retries:    cmp.Retries,
		RetryDelay: cmp.RetryDelay(),
		HTTPClient: &http.Client{Timeout: cmp.Timeout()},
	}

	stop := startSpinner("fetching comparison boundaries")
	defer stop()
	return client.Fetch(ctx, cmp.IDTag, cmp.NameTag)
}

// startSpinner shows progress on stderr while the fetch blocks. The returned
// function stops it and clears the line.
func startSpinner(label string) func() {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		s := spin.New()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprintf(os.Stderr, "\r%*s\r", len(label)+2, "")
				return
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\r%s %s", s.Next(), label)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

func writeReports(outputDir string, snapshot compare.Snapshot, trend history.TrendReport) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", outputDir, err)
	}

	text := report.Text(snapshot, time.Now())
	fmt.Print(text)
	if err := os.WriteFile(filepath.Join(outputDir, "comparison_report.txt"), []byte(text), 0o644); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(outputDir, "detailed_results.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()
	if err := report.WriteCSV(csvFile, snapshot); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	trendText := report.TrendText(trend)
	return os.WriteFile(filepath.Join(outputDir, "trend_report.txt"), []byte(trendText), 0o644)
}

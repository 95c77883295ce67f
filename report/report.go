// Package report renders comparison snapshots and trend aggregates for
// humans: a plain-text report, a CSV detail dump and a trend summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bsaid97/go-boundary-compare/compare"
	"github.com/bsaid97/go-boundary-compare/history"
)

const divider = "================================================================================"

const (
	worstMatchesShown = 10
	missingShown      = 20
)

// Text renders the comparison report for one snapshot.
func Text(snap compare.Snapshot, generatedAt time.Time) string {
	agg := history.SummarizeSnapshot(snap)
	total := len(snap.Results)

	var b strings.Builder
	fmt.Fprintln(&b, divider)
	fmt.Fprintln(&b, "ADMINISTRATIVE BOUNDARY COMPARISON REPORT")
	fmt.Fprintf(&b, "Run date: %s\n", snap.DateKey())
	fmt.Fprintf(&b, "Generated: %s\n", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintln(&b, divider)

	fmt.Fprintf(&b, "\nDataset Overview:\n")
	fmt.Fprintf(&b, "  Total reference boundaries: %d\n", total)
	fmt.Fprintf(&b, "  Matched in comparison: %d (%s)\n", agg.MatchedCount, pct(agg.MatchedCount, total))
	fmt.Fprintf(&b, "  Missing in comparison: %d (%s)\n", agg.MissingCount, pct(agg.MissingCount, total))
	if agg.FailedCount > 0 {
		fmt.Fprintf(&b, "  Metric computation failed: %d (%s)\n", agg.FailedCount, pct(agg.FailedCount, total))
	}

	if agg.MatchedCount > 0 {
		fmt.Fprintf(&b, "\nAccuracy Metrics (matched boundaries):\n")
		fmt.Fprintf(&b, "  Mean IoU: %.4f\n", agg.MeanIoU)
		fmt.Fprintf(&b, "  Median IoU: %.4f\n", agg.MedianIoU)
		fmt.Fprintf(&b, "  Mean area difference: %.2f%%\n", agg.MeanAreaDiffPct)
		fmt.Fprintf(&b, "  Mean symmetric difference: %.2f%%\n", agg.MeanSymmetricDiffPct)
		fmt.Fprintf(&b, "  Mean Hausdorff distance: %.6f\n", agg.MeanHausdorff)

		fmt.Fprintf(&b, "\nQuality Distribution:\n")
		fmt.Fprintf(&b, "  Excellent (IoU >= 0.98): %d (%s)\n",
			agg.QualityCounts[compare.QualityExcellent], pct(agg.QualityCounts[compare.QualityExcellent], agg.MatchedCount))
		fmt.Fprintf(&b, "  Good (IoU >= 0.95): %d (%s)\n",
			agg.QualityCounts[compare.QualityGood], pct(agg.QualityCounts[compare.QualityGood], agg.MatchedCount))
		fmt.Fprintf(&b, "  Fair (IoU >= 0.90): %d (%s)\n",
			agg.QualityCounts[compare.QualityFair], pct(agg.QualityCounts[compare.QualityFair], agg.MatchedCount))
		fmt.Fprintf(&b, "  Poor (IoU < 0.90): %d (%s)\n",
			agg.QualityCounts[compare.QualityPoor], pct(agg.QualityCounts[compare.QualityPoor], agg.MatchedCount))

		fmt.Fprintf(&b, "\nWorst %d Matches (by IoU):\n", worstMatchesShown)
		for _, r := range worstMatches(snap, worstMatchesShown) {
			fmt.Fprintf(&b, "  %-30s %-12s iou=%.4f area_diff=%.2f%%\n",
				r.Name, r.ID, r.Metrics.IoU, r.Metrics.AreaDiffPct)
		}
	}

	missing := missingResults(snap)
	if len(missing) > 0 {
		shown := missing
		if len(shown) > missingShown {
			shown = shown[:missingShown]
		}
		fmt.Fprintf(&b, "\nMissing Boundaries (showing first %d of %d):\n", len(shown), len(missing))
		for _, r := range shown {
			fmt.Fprintf(&b, "  %-30s %s\n", r.Name, r.ID)
		}
	}

	return b.String()
}

// TrendText renders the longitudinal trend report.
func TrendText(tr history.TrendReport) string {
	var b strings.Builder
	fmt.Fprintln(&b, divider)
	fmt.Fprintln(&b, "BOUNDARY AGREEMENT TREND REPORT")
	fmt.Fprintln(&b, divider)

	fmt.Fprintf(&b, "\nPer-date aggregates (%d dates):\n", len(tr.Series))
	for _, agg := range tr.Series {
		fmt.Fprintf(&b, "  %s  matched=%d missing=%d failed=%d mean_iou=%.4f median_iou=%.4f\n",
			agg.Date.Format("2006-01-02"), agg.MatchedCount, agg.MissingCount,
			agg.FailedCount, agg.MeanIoU, agg.MedianIoU)
	}

	if tr.Delta != nil {
		fmt.Fprintf(&b, "\nMean IoU change %s -> %s: %+.4f (%+.2f%%)\n",
			tr.Delta.From.Format("2006-01-02"), tr.Delta.To.Format("2006-01-02"),
			tr.Delta.Absolute, tr.Delta.RelativePct)
	}

	if len(tr.TopImprovements) > 0 {
		fmt.Fprintf(&b, "\nTop Improvements:\n")
		for _, imp := range tr.TopImprovements {
			fmt.Fprintf(&b, "  %-30s %-12s %.4f -> %.4f (%+.4f)\n",
				imp.Name, imp.ID, imp.PreviousIoU, imp.CurrentIoU, imp.Improvement)
		}
	}

	return b.String()
}

// WriteCSV writes one detail row per comparison result. Metric columns are
// empty for missing and failed entries.
func WriteCSV(w io.Writer, snap compare.Snapshot) error {
	cw := csv.NewWriter(w)
	header := []string{
		"id", "name", "status", "quality",
		"iou", "area_diff_pct", "hausdorff_distance", "symmetric_diff_pct",
		"reference_area", "comparison_area", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range snap.Results {
		row := []string{r.ID, r.Name, string(r.Status), string(r.Quality),
			"", "", "", "", "", "", r.Error}
		if r.Metrics != nil {
			row[4] = formatFloat(r.Metrics.IoU)
			row[5] = formatFloat(r.Metrics.AreaDiffPct)
			row[6] = formatFloat(r.Metrics.HausdorffDistance)
			row[7] = formatFloat(r.Metrics.SymmetricDiffPct)
			row[8] = formatFloat(r.Metrics.ReferenceArea)
			row[9] = formatFloat(r.Metrics.ComparisonArea)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func worstMatches(snap compare.Snapshot, n int) []compare.ComparisonResult {
	var matched []compare.ComparisonResult
	for _, r := range snap.Results {
		if r.Status == compare.StatusMatched && r.Metrics != nil {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Metrics.IoU < matched[j].Metrics.IoU
	})
	if len(matched) > n {
		matched = matched[:n]
	}
	return matched
}

func missingResults(snap compare.Snapshot) []compare.ComparisonResult {
	var missing []compare.ComparisonResult
	for _, r := range snap.Results {
		if r.Status == compare.StatusMissing {
			missing = append(missing, r)
		}
	}
	return missing
}

func pct(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(float64(part)/float64(total)*100, 'f', 1, 64) + "%"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsaid97/go-boundary-compare/compare"
	"github.com/bsaid97/go-boundary-compare/history"
)

func testSnapshot() compare.Snapshot {
	return compare.Snapshot{
		Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Results: []compare.ComparisonResult{
			{
				ID: "261", Name: "Zurich", Status: compare.StatusMatched,
				Quality: compare.QualityExcellent,
				Metrics: &compare.MetricSet{IoU: 0.991, AreaDiffPct: 0.4, ReferenceArea: 100, ComparisonArea: 99.6},
			},
			{
				ID: "351", Name: "Bern", Status: compare.StatusMatched,
				Quality: compare.QualityPoor,
				Metrics: &compare.MetricSet{IoU: 0.85, AreaDiffPct: 12.0, ReferenceArea: 50, ComparisonArea: 44},
			},
			{ID: "296", Name: "Lost", Status: compare.StatusMissing},
			{ID: "777", Name: "Broken", Status: compare.StatusFailed, Error: "reference geometry has zero area"},
		},
	}
}

func TestText(t *testing.T) {
	out := Text(testSnapshot(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "ADMINISTRATIVE BOUNDARY COMPARISON REPORT")
	assert.Contains(t, out, "Run date: 2025-06-01")
	assert.Contains(t, out, "Total reference boundaries: 4")
	assert.Contains(t, out, "Matched in comparison: 2 (50.0%)")
	assert.Contains(t, out, "Missing in comparison: 1 (25.0%)")
	assert.Contains(t, out, "Metric computation failed: 1 (25.0%)")
	assert.Contains(t, out, "Excellent (IoU >= 0.98): 1 (50.0%)")
	assert.Contains(t, out, "Poor (IoU < 0.90): 1 (50.0%)")
	// Worst match listed first.
	assert.Contains(t, out, "Bern")
	assert.Contains(t, out, "Missing Boundaries")
	assert.Contains(t, out, "Lost")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testSnapshot()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5) // header + 4 results

	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "261", rows[1][0])
	assert.Equal(t, "matched", rows[1][2])
	assert.Equal(t, "0.991", rows[1][4])

	// Metric columns stay empty for missing and failed rows.
	assert.Equal(t, "missing_in_comparison", rows[3][2])
	assert.Equal(t, "", rows[3][4])
	assert.Equal(t, "computation_failed", rows[4][2])
	assert.Equal(t, "reference geometry has zero area", rows[4][10])
}

func TestTrendText(t *testing.T) {
	snapA := compare.Snapshot{
		Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Results: []compare.ComparisonResult{{
			ID: "Z", Name: "Zdorf", Status: compare.StatusMatched,
			Quality: compare.QualityPoor, Metrics: &compare.MetricSet{IoU: 0.90},
		}},
	}
	snapB := compare.Snapshot{
		Date: time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		Results: []compare.ComparisonResult{{
			ID: "Z", Name: "Zdorf", Status: compare.StatusMatched,
			Quality: compare.QualityPoor, Metrics: &compare.MetricSet{IoU: 0.92},
		}},
	}

	tr := history.Aggregate(snapB, []compare.Snapshot{snapA})
	out := TrendText(tr)

	assert.Contains(t, out, "BOUNDARY AGREEMENT TREND REPORT")
	assert.Contains(t, out, "2025-06-01")
	assert.Contains(t, out, "2025-06-08")
	assert.Contains(t, out, "+0.0200")
	assert.Contains(t, out, "Top Improvements")
	assert.Contains(t, out, "Zdorf")
}

// Package compare reconciles two collections of administrative-boundary
// polygons matched by a shared identifier and computes per-pair agreement
// metrics. All geometry primitives are delegated to GEOS.
package compare

import (
	"time"

	"github.com/twpayne/go-geos"
)

// GeometryRecord is one administrative boundary as supplied by a loader.
// Records are read-only after loading; the geometry may still be invalid
// and is repaired on demand during comparison.
type GeometryRecord struct {
	ID   string
	Name string
	Geom *geos.Geom
}

// MatchStatus distinguishes a computed pair from a missing counterpart and
// from a pair whose metric computation failed. The last two are semantically
// different: missing is a coverage gap, failed is a data or engine problem.
type MatchStatus string

const (
	StatusMatched MatchStatus = "matched"
	StatusMissing MatchStatus = "missing_in_comparison"
	StatusFailed  MatchStatus = "computation_failed"
)

// MetricSet holds the agreement metrics for one matched pair. Areas are in
// the geometries' native planar units. The percentage metrics are relative
// to the reference area and are therefore not symmetric in their arguments.
type MetricSet struct {
	IoU               float64 `json:"iou"`
	AreaDiffPct       float64 `json:"area_diff_pct"`
	HausdorffDistance float64 `json:"hausdorff_distance"`
	SymmetricDiffPct  float64 `json:"symmetric_diff_pct"`
	ReferenceArea     float64 `json:"reference_area"`
	ComparisonArea    float64 `json:"comparison_area"`
}

// ComparisonResult is the outcome for one reference record. Metrics and
// Quality are set only for StatusMatched; Error carries the failure reason
// for StatusFailed.
type ComparisonResult struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Status  MatchStatus     `json:"status"`
	Metrics *MetricSet      `json:"metrics,omitempty"`
	Quality QualityCategory `json:"quality,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Snapshot is one run's complete result set tagged with the run date.
// Snapshots are immutable once created; geometries do not survive into them,
// only identifiers and scalar metrics.
type Snapshot struct {
	Date    time.Time          `json:"date"`
	Results []ComparisonResult `json:"results"`
}

// DateKey returns the calendar date the snapshot is keyed by.
func (s Snapshot) DateKey() string {
	return s.Date.Format("2006-01-02")
}

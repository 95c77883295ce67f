package history

import (
	"sort"
	"time"

	"github.com/bsaid97/go-boundary-compare/compare"
)

// improvementFloor filters out IoU changes small enough to be noise.
const improvementFloor = 0.001

// maxImprovements caps the per-entity improvement list.
const maxImprovements = 10

// DailyAggregate summarizes the results of one snapshot date. The mean and
// median metrics cover matched results only; the bucket counts additionally
// carry the missing and failed entries.
type DailyAggregate struct {
	Date                 time.Time                       `json:"date"`
	MatchedCount         int                             `json:"matched_count"`
	MissingCount         int                             `json:"missing_count"`
	FailedCount          int                             `json:"failed_count"`
	MeanIoU              float64                         `json:"mean_iou"`
	MedianIoU            float64                         `json:"median_iou"`
	MeanAreaDiffPct      float64                         `json:"mean_area_diff_pct"`
	MeanSymmetricDiffPct float64                         `json:"mean_symmetric_diff_pct"`
	MeanHausdorff        float64                         `json:"mean_hausdorff"`
	QualityCounts        map[compare.QualityCategory]int `json:"quality_counts"`
}

// IoUDelta is the change in mean IoU between the current date and the most
// recent prior date.
type IoUDelta struct {
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Absolute    float64   `json:"absolute"`
	RelativePct float64   `json:"relative_pct"`
}

// Improvement records an entity whose IoU rose between the two most recent
// snapshots.
type Improvement struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PreviousIoU float64 `json:"previous_iou"`
	CurrentIoU  float64 `json:"current_iou"`
	Improvement float64 `json:"improvement"`
}

// TrendReport is the longitudinal view handed to the reporting layer.
type TrendReport struct {
	Series          []DailyAggregate `json:"series"`
	Delta           *IoUDelta        `json:"delta,omitempty"`
	TopImprovements []Improvement    `json:"top_improvements,omitempty"`
}

// Aggregate combines the current snapshot with previously persisted ones
// into an ordered-by-date series with per-date aggregates. When a prior date
// exists it also computes the mean-IoU delta against it and the per-entity
// improvement list. The current snapshot replaces any historical snapshot
// recorded for the same date.
func Aggregate(current compare.Snapshot, past []compare.Snapshot) TrendReport {
	byDate := make(map[string]compare.Snapshot, len(past)+1)
	for _, s := range past {
		byDate[s.DateKey()] = s
	}
	byDate[current.DateKey()] = current

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	report := TrendReport{Series: make([]DailyAggregate, 0, len(keys))}
	for _, k := range keys {
		report.Series = append(report.Series, SummarizeSnapshot(byDate[k]))
	}

	// The delta and improvement list compare the current date against the
	// most recent date strictly before it.
	currentIdx := sort.SearchStrings(keys, current.DateKey())
	if currentIdx == 0 {
		return report
	}
	prev := byDate[keys[currentIdx-1]]
	cur := report.Series[currentIdx]
	prevAgg := report.Series[currentIdx-1]

	delta := &IoUDelta{
		From:     prevAgg.Date,
		To:       cur.Date,
		Absolute: cur.MeanIoU - prevAgg.MeanIoU,
	}
	if prevAgg.MeanIoU > 0 {
		delta.RelativePct = delta.Absolute / prevAgg.MeanIoU * 100
	}
	report.Delta = delta
	report.TopImprovements = improvements(current, prev)

	return report
}

// SummarizeSnapshot computes the per-date aggregate for one snapshot.
func SummarizeSnapshot(s compare.Snapshot) DailyAggregate {
	agg := DailyAggregate{
		Date:          s.Date,
		QualityCounts: make(map[compare.QualityCategory]int),
	}

	var ious []float64
	var sumIoU, sumAreaDiff, sumSymDiff, sumHausdorff float64
	for _, r := range s.Results {
		switch r.Status {
		case compare.StatusMissing:
			agg.MissingCount++
		case compare.StatusFailed:
			agg.FailedCount++
		case compare.StatusMatched:
			if r.Metrics == nil {
				agg.FailedCount++
				continue
			}
			agg.MatchedCount++
			agg.QualityCounts[r.Quality]++
			ious = append(ious, r.Metrics.IoU)
			sumIoU += r.Metrics.IoU
			sumAreaDiff += r.Metrics.AreaDiffPct
			sumSymDiff += r.Metrics.SymmetricDiffPct
			sumHausdorff += r.Metrics.HausdorffDistance
		}
	}

	if agg.MatchedCount > 0 {
		n := float64(agg.MatchedCount)
		agg.MeanIoU = sumIoU / n
		agg.MedianIoU = median(ious)
		agg.MeanAreaDiffPct = sumAreaDiff / n
		agg.MeanSymmetricDiffPct = sumSymDiff / n
		agg.MeanHausdorff = sumHausdorff / n
	}
	return agg
}

// improvements lists the entities matched in both snapshots whose IoU rose
// by more than the noise floor, best first, capped at maxImprovements.
func improvements(current, previous compare.Snapshot) []Improvement {
	prevIoU := make(map[string]float64, len(previous.Results))
	for _, r := range previous.Results {
		if r.Status == compare.StatusMatched && r.Metrics != nil {
			prevIoU[r.ID] = r.Metrics.IoU
		}
	}

	var out []Improvement
	for _, r := range current.Results {
		if r.Status != compare.StatusMatched || r.Metrics == nil {
			continue
		}
		prev, ok := prevIoU[r.ID]
		if !ok {
			continue
		}
		delta := r.Metrics.IoU - prev
		if delta <= improvementFloor {
			continue
		}
		out = append(out, Improvement{
			ID:          r.ID,
			Name:        r.Name,
			PreviousIoU: prev,
			CurrentIoU:  r.Metrics.IoU,
			Improvement: delta,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Improvement > out[j].Improvement
	})
	if len(out) > maxImprovements {
		out = out[:maxImprovements]
	}
	return out
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

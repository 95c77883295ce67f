package compare

import (
	"log/slog"

	"github.com/bsaid97/go-boundary-compare/logger"
	"github.com/bsaid97/go-boundary-compare/utils"
)

// Matcher joins a reference collection against a comparison collection by
// identifier and computes metrics for every matched pair.
type Matcher struct {
	// Workers bounds the number of concurrent metric computations.
	// Zero means one per CPU.
	Workers int
	Log     *slog.Logger
}

// MatchStats summarizes one match run.
type MatchStats struct {
	Matched      int
	Missing      int
	Failed       int
	DuplicateIDs int
}

type matchJob struct {
	record GeometryRecord
	cmp    *GeometryRecord
}

// Match produces exactly one ComparisonResult per reference record, in the
// reference collection's order. Records without a counterpart id are marked
// missing; pairs whose metric computation fails are marked failed. Per-pair
// failures never abort the batch.
func (m *Matcher) Match(reference, comparison []GeometryRecord) ([]ComparisonResult, MatchStats) {
	var stats MatchStats

	lookup := make(map[string]*GeometryRecord, len(comparison))
	for i := range comparison {
		rec := &comparison[i]
		if _, dup := lookup[rec.ID]; dup {
			// A later duplicate would silently replace an earlier region, so
			// the first record wins and the duplicate is dropped loudly.
			stats.DuplicateIDs++
			m.log().Warn("duplicate id in comparison collection, keeping first",
				"id", rec.ID, "name", rec.Name)
			continue
		}
		lookup[rec.ID] = rec
	}

	jobs := make([]matchJob, len(reference))
	for i, rec := range reference {
		jobs[i] = matchJob{record: rec, cmp: lookup[rec.ID]}
	}

	results := utils.ProcessBatch(jobs, m.Workers, m.matchOne)

	for _, r := range results {
		switch r.Status {
		case StatusMatched:
			stats.Matched++
		case StatusMissing:
			stats.Missing++
		case StatusFailed:
			stats.Failed++
		}
	}
	return results, stats
}

func (m *Matcher) matchOne(job matchJob) ComparisonResult {
	if job.cmp == nil {
		return ComparisonResult{
			ID:     job.record.ID,
			Name:   job.record.Name,
			Status: StatusMissing,
		}
	}

	metrics, err := ComputeMetrics(job.record.Geom, job.cmp.Geom)
	if err != nil {
		m.log().Warn("metric computation failed",
			"id", job.record.ID, "name", job.record.Name, "err", err)
		return ComparisonResult{
			ID:     job.record.ID,
			Name:   job.record.Name,
			Status: StatusFailed,
			Error:  err.Error(),
		}
	}

	return ComparisonResult{
		ID:      job.record.ID,
		Name:    job.record.Name,
		Status:  StatusMatched,
		Metrics: metrics,
		Quality: ClassifyIoU(metrics.IoU),
	}
}

func (m *Matcher) log() *slog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return logger.L()
}

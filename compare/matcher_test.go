package compare

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPreservesReferenceOrder(t *testing.T) {
	reference := []GeometryRecord{
		{ID: "X", Name: "Xville", Geom: square(0, 0, 10)},
		{ID: "Y", Name: "Yburg", Geom: square(20, 0, 10)},
		{ID: "Z", Name: "Zdorf", Geom: square(40, 0, 10)},
	}
	comparison := []GeometryRecord{
		{ID: "Z", Name: "Zdorf", Geom: square(45, 0, 10)},
		{ID: "X", Name: "Xville", Geom: square(0, 0, 10)},
	}

	m := &Matcher{}
	results, stats := m.Match(reference, comparison)

	require.Len(t, results, len(reference))
	assert.Equal(t, "X", results[0].ID)
	assert.Equal(t, "Y", results[1].ID)
	assert.Equal(t, "Z", results[2].ID)

	assert.Equal(t, StatusMatched, results[0].Status)
	assert.Equal(t, StatusMissing, results[1].Status)
	assert.Equal(t, StatusMatched, results[2].Status)

	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 0, stats.Failed)
}

func TestMatchIdenticalPair(t *testing.T) {
	reference := []GeometryRecord{{ID: "X", Name: "Xville", Geom: square(0, 0, 10)}}
	comparison := []GeometryRecord{{ID: "X", Name: "Xville", Geom: square(0, 0, 10)}}

	m := &Matcher{}
	results, _ := m.Match(reference, comparison)

	require.Len(t, results, 1)
	r := results[0]
	require.Equal(t, StatusMatched, r.Status)
	require.NotNil(t, r.Metrics)
	assert.InDelta(t, 1.0, r.Metrics.IoU, 1e-9)
	assert.InDelta(t, 0.0, r.Metrics.AreaDiffPct, 1e-9)
	assert.InDelta(t, 0.0, r.Metrics.HausdorffDistance, 1e-9)
	assert.Equal(t, QualityExcellent, r.Quality)
}

func TestMatchMissingHasNoMetrics(t *testing.T) {
	reference := []GeometryRecord{{ID: "Y", Name: "Yburg", Geom: square(0, 0, 10)}}

	m := &Matcher{}
	results, stats := m.Match(reference, nil)

	require.Len(t, results, 1)
	assert.Equal(t, StatusMissing, results[0].Status)
	assert.Nil(t, results[0].Metrics)
	assert.Empty(t, results[0].Quality)
	assert.Equal(t, 1, stats.Missing)
}

func TestMatchDuplicateComparisonIDFirstWins(t *testing.T) {
	reference := []GeometryRecord{{ID: "X", Name: "Xville", Geom: square(0, 0, 10)}}
	comparison := []GeometryRecord{
		{ID: "X", Name: "Xville", Geom: square(0, 0, 10)},
		{ID: "X", Name: "Xville copy", Geom: square(5, 0, 10)},
	}

	m := &Matcher{}
	results, stats := m.Match(reference, comparison)

	require.Len(t, results, 1)
	require.Equal(t, StatusMatched, results[0].Status)
	assert.Equal(t, 1, stats.DuplicateIDs)
	// The first record won, so the pair is identical.
	assert.InDelta(t, 1.0, results[0].Metrics.IoU, 1e-9)
}

func TestMatchComputationFailureIsNotMissing(t *testing.T) {
	reference := []GeometryRecord{{ID: "X", Name: "Xville", Geom: geosEmptyPolygon()}}
	comparison := []GeometryRecord{{ID: "X", Name: "Xville", Geom: square(0, 0, 10)}}

	m := &Matcher{}
	results, stats := m.Match(reference, comparison)

	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Nil(t, results[0].Metrics)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Missing)
}

func TestMatchParallelKeepsOrder(t *testing.T) {
	var reference, comparison []GeometryRecord
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("id-%03d", i)
		reference = append(reference, GeometryRecord{ID: id, Geom: square(float64(i*20), 0, 10)})
		comparison = append(comparison, GeometryRecord{ID: id, Geom: square(float64(i*20), 0, 10)})
	}

	m := &Matcher{Workers: 8}
	results, stats := m.Match(reference, comparison)

	require.Len(t, results, 100)
	assert.Equal(t, 100, stats.Matched)
	for i, r := range results {
		assert.Equal(t, reference[i].ID, r.ID)
		assert.Equal(t, StatusMatched, r.Status)
	}
}

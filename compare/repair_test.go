package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairValidGeometryUnchanged(t *testing.T) {
	g := square(0, 0, 10)
	require.True(t, g.IsValid())

	repaired := Repair(g)
	assert.Same(t, g, repaired)
}

func TestRepairSelfIntersection(t *testing.T) {
	g := bowtie()
	require.False(t, g.IsValid())

	repaired := Repair(g)
	require.NotNil(t, repaired)
	assert.True(t, repaired.IsValid())
	// Two triangles of area 25 each.
	assert.InDelta(t, 50, repaired.Area(), 1e-9)
}

func TestRepairIdempotent(t *testing.T) {
	once := Repair(bowtie())
	require.True(t, once.IsValid())

	twice := Repair(once)
	assert.Same(t, once, twice)
}

func TestRepairNil(t *testing.T) {
	assert.Nil(t, Repair(nil))
}

func TestRepairNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		Repair(bowtie())
		Repair(square(0, 0, 1))
		Repair(geosEmptyPolygon())
	})
}

package compare

import (
	"github.com/twpayne/go-geos"
)

// square returns a closed axis-aligned square with its lower-left corner at
// (x, y).
func square(x, y, size float64) *geos.Geom {
	return geos.NewPolygon([][][]float64{{
		{x, y},
		{x + size, y},
		{x + size, y + size},
		{x, y + size},
		{x, y},
	}})
}

// geosEmptyPolygon returns a valid polygon with zero area.
func geosEmptyPolygon() *geos.Geom {
	g, err := geos.NewGeomFromWKT("POLYGON EMPTY")
	if err != nil {
		panic(err)
	}
	return g
}

// bowtie returns a self-intersecting (invalid) polygon made of two triangles
// touching at (5, 5), each of area 25.
func bowtie() *geos.Geom {
	return geos.NewPolygon([][][]float64{{
		{0, 0},
		{10, 10},
		{10, 0},
		{0, 10},
		{0, 0},
	}})
}

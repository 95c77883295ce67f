package compare

import (
	"github.com/twpayne/go-geos"
)

// Repair normalizes a possibly-invalid polygon or multipolygon, best effort.
// It tries, in order: the geometry as-is, a zero-width buffer, and a dissolve
// of the constituent parts. If none of those yields a valid geometry the
// original is returned unchanged and callers must tolerate residual
// invalidity. Repair never panics and is idempotent.
func Repair(g *geos.Geom) *geos.Geom {
	if g == nil {
		return nil
	}
	if g.IsValid() {
		return g
	}
	if fixed := zeroBuffer(g); fixed != nil && fixed.IsValid() {
		return fixed
	}
	if fixed := dissolve(g); fixed != nil && fixed.IsValid() {
		return fixed
	}
	return g
}

// zeroBuffer applies the classic buffer(0) fix, which resolves most
// self-intersections and ring orientation errors. The GEOS binding reports
// failures by panicking, so the panic is contained here and treated as
// "this step produced no result".
func zeroBuffer(g *geos.Geom) (fixed *geos.Geom) {
	defer func() {
		if recover() != nil {
			fixed = nil
		}
	}()
	return g.Buffer(0, 8)
}

// dissolve unions the geometry's constituent parts into one shape.
func dissolve(g *geos.Geom) (fixed *geos.Geom) {
	defer func() {
		if recover() != nil {
			fixed = nil
		}
	}()
	n := g.NumGeometries()
	parts := make([]*geos.Geom, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, g.Geometry(i).Buffer(0, 0))
	}
	if len(parts) == 0 {
		return nil
	}
	return cascadedUnion(parts)
}

// cascadedUnion unions geometries pairwise, divide and conquer, which keeps
// intermediate results small compared to a linear fold.
func cascadedUnion(geometries []*geos.Geom) *geos.Geom {
	if len(geometries) == 1 {
		return geometries[0]
	}
	mid := len(geometries) / 2
	left := cascadedUnion(geometries[:mid])
	right := cascadedUnion(geometries[mid:])
	return left.Union(right)
}

package loader

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geos"

	"github.com/bsaid97/go-boundary-compare/compare"
	"github.com/bsaid97/go-boundary-compare/logger"
)

// LoadShapefile reads polygon records from an ESRI shapefile, taking the id
// and name from the named DBF attributes. Attribute matching is case
// insensitive because DBF headers are frequently upper-cased.
func LoadShapefile(path, idField, nameField string) ([]compare.GeometryRecord, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	idIdx, nameIdx := -1, -1
	for i, f := range r.Fields() {
		switch {
		case strings.EqualFold(f.String(), idField):
			idIdx = i
		case strings.EqualFold(f.String(), nameField):
			nameIdx = i
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("shapefile %s has no %q attribute", path, idField)
	}

	var records []compare.GeometryRecord
	for r.Next() {
		row, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			logger.L().Warn("skipping non-polygon shape", "row", row)
			continue
		}
		geom := shapefilePolygonToGeos(poly)
		if geom == nil {
			logger.L().Warn("skipping degenerate polygon shape", "row", row)
			continue
		}
		id := strings.TrimSpace(r.ReadAttribute(row, idIdx))
		if id == "" {
			logger.L().Warn("skipping shape without id attribute", "row", row)
			continue
		}
		name := ""
		if nameIdx >= 0 {
			name = strings.TrimSpace(r.ReadAttribute(row, nameIdx))
		}
		records = append(records, compare.GeometryRecord{ID: id, Name: name, Geom: geom})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no usable polygon records in %s", path)
	}
	return records, nil
}

// shapefilePolygonToGeos rebuilds a shapefile polygon as a GEOS geometry.
// Shapefiles store all rings of a record in one flat part list: outer rings
// wind clockwise, holes counter-clockwise, and each hole follows its outer
// ring. Rings are grouped accordingly before handing them to GEOS.
func shapefilePolygonToGeos(poly *shp.Polygon) *geos.Geom {
	var grouped [][][][]float64 // polygons -> rings -> points -> xy

	for p := 0; p < len(poly.Parts); p++ {
		start := int(poly.Parts[p])
		end := len(poly.Points)
		if p+1 < len(poly.Parts) {
			end = int(poly.Parts[p+1])
		}
		if end-start < 4 {
			continue
		}

		ring := make([][]float64, 0, end-start)
		for _, pt := range poly.Points[start:end] {
			ring = append(ring, []float64{pt.X, pt.Y})
		}
		ring = closeRing(ring)

		if ringSignedArea(ring) <= 0 || len(grouped) == 0 {
			// Clockwise in shapefile convention: a new outer ring.
			grouped = append(grouped, [][][]float64{ring})
		} else {
			// Counter-clockwise: a hole in the preceding outer ring.
			last := len(grouped) - 1
			grouped[last] = append(grouped[last], ring)
		}
	}

	switch len(grouped) {
	case 0:
		return nil
	case 1:
		return geos.NewPolygon(grouped[0])
	default:
		parts := make([]*geos.Geom, len(grouped))
		for i, rings := range grouped {
			parts[i] = geos.NewPolygon(rings)
		}
		return geos.NewCollection(geos.TypeIDMultiPolygon, parts)
	}
}

// ringSignedArea is the shoelace sum; negative means clockwise.
func ringSignedArea(ring [][]float64) float64 {
	var sum float64
	for i := 0; i < len(ring)-1; i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return sum / 2
}

func closeRing(ring [][]float64) [][]float64 {
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		ring = append(ring, []float64{first[0], first[1]})
	}
	return ring
}

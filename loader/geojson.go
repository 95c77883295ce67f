// Package loader turns external boundary datasets into GeometryRecord
// collections: GeoJSON files, ESRI shapefiles and the Overpass API. Loaders
// assume both datasets already share one coordinate reference system.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/twpayne/go-geos"

	"github.com/bsaid97/go-boundary-compare/compare"
	"github.com/bsaid97/go-boundary-compare/logger"
)

// Feature holds one GeoJSON feature. The geometry is kept raw and handed to
// GEOS for parsing.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection holds multiple features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// LoadGeoJSON reads a FeatureCollection file and extracts one GeometryRecord
// per polygonal feature, taking the id and name from the given property keys.
func LoadGeoJSON(path, idField, nameField string) ([]compare.GeometryRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	records, err := ParseGeoJSON(data, idField, nameField)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

// ParseGeoJSON extracts GeometryRecords from FeatureCollection bytes.
// Features without the id property or with a non-polygonal geometry are
// skipped with a warning; an empty result is an error because the pipeline
// cannot reconcile around an absent collection.
func ParseGeoJSON(data []byte, idField, nameField string) ([]compare.GeometryRecord, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	records := make([]compare.GeometryRecord, 0, len(fc.Features))
	for i, f := range fc.Features {
		if len(f.Geometry) == 0 {
			logger.L().Warn("skipping feature without geometry", "index", i)
			continue
		}
		geom, err := geos.NewGeomFromGeoJSON(string(f.Geometry))
		if err != nil {
			logger.L().Warn("skipping unparsable geometry", "index", i, "err", err)
			continue
		}
		if geom.TypeID() != geos.TypeIDPolygon && geom.TypeID() != geos.TypeIDMultiPolygon {
			logger.L().Warn("skipping non-polygon feature", "index", i, "type", geom.TypeID())
			continue
		}
		id := propString(f.Properties, idField)
		if id == "" {
			logger.L().Warn("skipping feature without id property", "index", i, "property", idField)
			continue
		}
		records = append(records, compare.GeometryRecord{
			ID:   id,
			Name: propString(f.Properties, nameField),
			Geom: geom,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no usable polygon features found")
	}
	return records, nil
}

// propString renders a property value as a stable identifier string.
// Numeric ids arrive as float64 from encoding/json and must not pick up a
// decimal point.
func propString(props map[string]interface{}, key string) string {
	if props == nil {
		return ""
	}
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

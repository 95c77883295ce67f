package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geos"

	"github.com/bsaid97/go-boundary-compare/compare"
	"github.com/bsaid97/go-boundary-compare/logger"
)

// Defaults mirror the Swiss Overpass setup the tool was built around.
const (
	DefaultOverpassURL = "http://overpass.osm.ch/api/interpreter"
	DefaultRetries     = 3
	DefaultRetryDelay  = 30 * time.Second
	DefaultTimeout     = 400 * time.Second
)

// OverpassClient fetches administrative boundary relations from an Overpass
// API endpoint. It retries a fixed number of times with a fixed delay; an
// exhausted retry budget means the comparison collection is unavailable and
// the whole run must stop.
type OverpassClient struct {
	URL        string
	Query      string
	Retries    int
	RetryDelay time.Duration
	HTTPClient *http.Client
	Log        *slog.Logger
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Tags    map[string]string `json:"tags"`
	Members []overpassMember  `json:"members"`
}

type overpassMember struct {
	Type     string         `json:"type"`
	Role     string         `json:"role"`
	Geometry []overpassNode `json:"geometry"`
}

type overpassNode struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fetch retrieves boundary relations and assembles one GeometryRecord per
// relation carrying the idTag tag. Relations that cannot be assembled are
// skipped with a warning; only total unavailability is an error.
func (c *OverpassClient) Fetch(ctx context.Context, idTag, nameTag string) ([]compare.GeometryRecord, error) {
	retries := c.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		records, err := c.fetchOnce(ctx, idTag, nameTag)
		if err == nil {
			return records, nil
		}
		lastErr = err
		c.log().Warn("overpass fetch failed", "attempt", attempt, "of", retries, "err", err)

		if attempt < retries {
			delay := c.RetryDelay
			if delay <= 0 {
				delay = DefaultRetryDelay
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("overpass fetch failed after %d attempts: %w", retries, lastErr)
}

func (c *OverpassClient) fetchOnce(ctx context.Context, idTag, nameTag string) ([]compare.GeometryRecord, error) {
	endpoint := c.URL
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}

	form := url.Values{"data": {c.Query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	c.log().Info("retrieved overpass elements", "count", len(parsed.Elements))

	var records []compare.GeometryRecord
	for _, el := range parsed.Elements {
		if el.Type != "relation" {
			continue
		}
		id := el.Tags[idTag]
		if id == "" || len(el.Members) == 0 {
			continue
		}
		g, err := assembleRelation(el.Members)
		if err != nil {
			c.log().Warn("could not assemble relation", "relation", el.ID, "err", err)
			continue
		}
		records = append(records, compare.GeometryRecord{
			ID:   id,
			Name: el.Tags[nameTag],
			Geom: g,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no boundary relations with tag %q in response", idTag)
	}
	return records, nil
}

// assembleRelation builds a polygon or multipolygon from the outer ways of a
// boundary relation. Each outer way contributes one ring; rings are closed
// if the source left them open.
func assembleRelation(members []overpassMember) (*geos.Geom, error) {
	var rings [][]geom.Coord
	for _, m := range members {
		if m.Type != "way" || m.Role != "outer" || len(m.Geometry) < 3 {
			continue
		}
		ring := make([]geom.Coord, 0, len(m.Geometry)+1)
		for _, node := range m.Geometry {
			ring = append(ring, geom.Coord{node.Lon, node.Lat})
		}
		if !ring[0].Equal(geom.XY, ring[len(ring)-1]) {
			ring = append(ring, geom.Coord{ring[0][0], ring[0][1]})
		}
		if len(ring) < 4 {
			continue
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("no closed outer rings")
	}

	var shape geom.T
	if len(rings) == 1 {
		shape = geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{rings[0]})
	} else {
		mp := geom.NewMultiPolygon(geom.XY)
		for _, ring := range rings {
			if err := mp.Push(geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{ring})); err != nil {
				return nil, err
			}
		}
		shape = mp
	}

	encoded, err := geojson.Marshal(shape)
	if err != nil {
		return nil, err
	}
	g, err := geos.NewGeomFromGeoJSON(string(encoded))
	if err != nil {
		return nil, err
	}
	// Ways stitched from community data frequently self-intersect.
	return compare.Repair(g), nil
}

func (c *OverpassClient) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logger.L()
}

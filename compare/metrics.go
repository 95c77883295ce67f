package compare

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geos"
)

// ErrZeroReferenceArea marks a pair whose percentage metrics are undefined
// because the reference geometry has no area.
var ErrZeroReferenceArea = errors.New("reference geometry has zero area")

// ComputeMetrics calculates the agreement metrics for one matched pair.
// ref is always the reference geometry: AreaDiffPct and SymmetricDiffPct are
// relative to its area, while IoU and HausdorffDistance are symmetric. Both
// inputs are passed through Repair first. A zero-area reference or a GEOS
// failure yields an error, never a fabricated metric.
func ComputeMetrics(ref, cmp *geos.Geom) (m *MetricSet, err error) {
	// The GEOS binding panics on engine errors; a single bad pair must not
	// take the whole batch down.
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("geometry engine failure: %v", r)
		}
	}()

	if ref == nil || cmp == nil {
		return nil, errors.New("nil geometry")
	}

	ref = Repair(ref)
	cmp = Repair(cmp)

	refArea := ref.Area()
	if refArea == 0 {
		return nil, ErrZeroReferenceArea
	}
	cmpArea := cmp.Area()

	intersection := ref.Intersection(cmp).Area()
	union := ref.Union(cmp).Area()
	iou := 0.0
	if union > 0 {
		iou = intersection / union
	}

	return &MetricSet{
		IoU:               iou,
		AreaDiffPct:       math.Abs(refArea-cmpArea) / refArea * 100,
		HausdorffDistance: ref.HausdorffDistance(cmp),
		SymmetricDiffPct:  ref.SymDifference(cmp).Area() / refArea * 100,
		ReferenceArea:     refArea,
		ComparisonArea:    cmpArea,
	}, nil
}

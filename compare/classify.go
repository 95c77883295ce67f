package compare

// QualityCategory buckets a matched pair by its IoU.
type QualityCategory string

const (
	QualityExcellent QualityCategory = "excellent"
	QualityGood      QualityCategory = "good"
	QualityFair      QualityCategory = "fair"
	QualityPoor      QualityCategory = "poor"
)

// ClassifyIoU maps an IoU value to a quality bucket. Lower bounds are
// inclusive: 0.98 is excellent, 0.95 is good, 0.90 is fair.
func ClassifyIoU(iou float64) QualityCategory {
	switch {
	case iou >= 0.98:
		return QualityExcellent
	case iou >= 0.95:
		return QualityGood
	case iou >= 0.90:
		return QualityFair
	default:
		return QualityPoor
	}
}

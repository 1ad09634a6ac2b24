package pdm

import (
	"github.com/pkg/errors"
)

// FitError compares a fitted shape against ground truth landmarks
type FitError struct {
	MeanDistance float64
	MaxDistance  float64
	// Landmarks closer to ground truth than the tolerance passed to EvaluateFit
	GoodLandmarks int
	// IoU of both shapes' bounding boxes
	BBoxIoU float64
}

// EvaluateFit returns per-landmark error statistics of fitted against truth
func EvaluateFit(fitted, truth *Shape, goodTolerance float64) (FitError, error) {
	if err := sameCardinality(fitted, truth); err != nil {
		return FitError{}, err
	}
	result := FitError{}
	total := 0.0
	for i := range fitted.landmarks {
		d := euclideanDistance(fitted.landmarks[i], truth.landmarks[i])
		total += d
		result.MaxDistance = maxFloat64(result.MaxDistance, d)
		if d <= goodTolerance {
			result.GoodLandmarks++
		}
	}
	result.MeanDistance = total / float64(fitted.Len())
	result.BBoxIoU = IoU(fitted.GetBBox(), truth.GetBBox())
	return result, nil
}

// MeanLandmarkDistance returns average distance between corresponding landmarks
func MeanLandmarkDistance(a, b *Shape) (float64, error) {
	if err := sameCardinality(a, b); err != nil {
		return 0, err
	}
	total := 0.0
	for i := range a.landmarks {
		total += euclideanDistance(a.landmarks[i], b.landmarks[i])
	}
	return total / float64(a.Len()), nil
}

func sameCardinality(a, b *Shape) error {
	if a == nil || b == nil {
		return ErrEmptyBatch
	}
	if a.Len() != b.Len() {
		return errors.Wrapf(ErrShapeCardinalityMismatch, "%d vs %d landmarks", a.Len(), b.Len())
	}
	if a.Len() == 0 {
		return errors.Wrap(ErrTooFewLandmarks, "shapes have no landmarks")
	}
	return nil
}

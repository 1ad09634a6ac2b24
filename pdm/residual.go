package pdm

import (
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Residual is the Procrustes distance of one shape to a reference
type Residual struct {
	// Position of the shape in the input slice
	Index int
	// Shape identifier
	ID uuid.UUID
	// Root of summed squared landmark distances after alignment onto the unit-norm reference
	Distance float64
}

// ProcrustesDistance aligns a copy of subject onto a unit-norm copy of reference and returns
// the Euclidean norm of the landmark differences. Neither argument is mutated
func ProcrustesDistance(subject, reference *Shape) (float64, error) {
	s := subject.Clone()
	r := reference.Clone()
	if _, err := AlignReferenceToShape(s, r); err != nil {
		return 0, err
	}
	return math.Sqrt(squaredDistance(s, r)), nil
}

// RankByResidual returns shapes' Procrustes distances to reference in ascending order.
// Large distances usually point to mislabelled or badly annotated training shapes
func RankByResidual(shapes []*Shape, reference *Shape) ([]Residual, error) {
	queue := make(residualHeap, 0, len(shapes))
	for i, shape := range shapes {
		if shape == nil {
			return nil, errors.Wrapf(ErrEmptyBatch, "shape %d is nil", i)
		}
		distance, err := ProcrustesDistance(shape, reference)
		if err != nil {
			return nil, errors.Wrapf(err, "can't compute residual for shape %d", i)
		}
		queue.Push(&Residual{
			Index:    i,
			ID:       shape.GetID(),
			Distance: distance,
		})
	}
	ranked := make([]Residual, 0, len(shapes))
	for queue.Len() > 0 {
		ranked = append(ranked, *queue.Pop())
	}
	return ranked, nil
}

// squaredDistance sums squared distances between corresponding landmarks of equally sized shapes
func squaredDistance(a, b *Shape) float64 {
	sum := 0.0
	for i := range a.landmarks {
		dx := a.landmarks[i].X - b.landmarks[i].X
		dy := a.landmarks[i].Y - b.landmarks[i].Y
		sum += dx*dx + dy*dy
	}
	return sum
}

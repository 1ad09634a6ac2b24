package pdm

import (
	"math"

	"github.com/pkg/errors"
)

// Similarity is the closed-form least-squares scale+rotation mapping one centered shape onto another.
// A and B are the combined parameters: A = s*cos(theta), B = s*sin(theta)
type Similarity struct {
	A     float64
	B     float64
	Scale float64
	Theta float64
}

// AlignBatch performs single-pass generalized Procrustes alignment in place.
// Every shape is moved to the origin, shapes[0] is scaled to unit norm and keeps its rotation,
// every other shape is scaled and rotated onto shapes[0].
//
// Input is validated before anything is mutated. The same slice is returned.
func AlignBatch(shapes []*Shape) ([]*Shape, error) {
	if err := validateBatch(shapes); err != nil {
		return nil, err
	}
	for _, shape := range shapes {
		shape.MoveToOrigin()
	}
	fixed := shapes[0]
	if err := fixed.Normalize(); err != nil {
		return nil, errors.Wrap(err, "can't normalize reference shape")
	}
	for i := 1; i < len(shapes); i++ {
		if _, err := fitToReference(shapes[i], fixed); err != nil {
			return nil, errors.Wrapf(err, "can't fit shape %d onto reference", i)
		}
	}
	return shapes, nil
}

// AlignShapeToReference scales and rotates subject onto reference (reference's scale is the target),
// then moves both shapes into the reference's original frame: each is translated by the reference's
// original center. Both shapes are mutated.
func AlignShapeToReference(subject, reference *Shape) (*Shape, *Shape, error) {
	if err := validateBatch([]*Shape{reference, subject}); err != nil {
		return nil, nil, err
	}
	referenceCenter := reference.MoveToOrigin()
	subject.MoveToOrigin()
	if _, err := fitToReference(subject, reference); err != nil {
		return nil, nil, errors.Wrap(err, "can't fit subject onto reference")
	}
	subject.Translate(referenceCenter)
	reference.Translate(referenceCenter)
	return subject, reference, nil
}

// AlignReferenceToShape aligns subject onto reference as AlignBatch([reference, subject]) does
// and returns the aligned subject. Both shapes are mutated and end up centered at the origin
func AlignReferenceToShape(subject, reference *Shape) (*Shape, error) {
	aligned, err := AlignBatch([]*Shape{reference, subject})
	if err != nil {
		return nil, err
	}
	return aligned[1], nil
}

// EstimateSimilarity returns the transform AlignShapeToReference would apply to subject.
// Neither shape is mutated
func EstimateSimilarity(subject, reference *Shape) (Similarity, error) {
	if err := validateBatch([]*Shape{reference, subject}); err != nil {
		return Similarity{}, err
	}
	s := subject.Clone()
	r := reference.Clone()
	s.MoveToOrigin()
	r.MoveToOrigin()
	return solveSimilarity(s, r)
}

// solveSimilarity computes a_j, b_j of the closed-form fit. Both shapes must be centered
func solveSimilarity(shape, fixed *Shape) (Similarity, error) {
	sqNorm := shape.squaredNorm()
	if sqNorm == 0 {
		return Similarity{}, errors.Wrapf(ErrDegenerateShape, "shape %s", shape.id)
	}
	var dot, cross float64
	for i, pj := range shape.landmarks {
		p1 := fixed.landmarks[i]
		dot += pj.X*p1.X + pj.Y*p1.Y
		cross += pj.X*p1.Y - p1.X*pj.Y
	}
	a := dot / sqNorm
	b := cross / sqNorm
	return Similarity{
		A:     a,
		B:     b,
		Scale: math.Hypot(a, b),
		// Two-argument form: defined for a == 0 and keeps the quadrant
		Theta: math.Atan2(b, a),
	}, nil
}

// fitToReference scales then rotates centered shape onto centered fixed shape
func fitToReference(shape, fixed *Shape) (Similarity, error) {
	sim, err := solveSimilarity(shape, fixed)
	if err != nil {
		return Similarity{}, err
	}
	if sim.Scale == 0 {
		// Reference is orthogonal to (or collapsed relative to) the shape: nothing to fit onto
		return Similarity{}, errors.Wrapf(ErrDegenerateShape, "zero scale fitting shape %s onto %s", shape.id, fixed.id)
	}
	if err := shape.Scale(sim.Scale); err != nil {
		return Similarity{}, err
	}
	shape.Rotate(sim.Theta)
	pkgLogger().Debug("fitted shape onto reference", "shape", shape.id, "reference", fixed.id, "scale", sim.Scale, "theta", sim.Theta)
	return sim, nil
}

func validateBatch(shapes []*Shape) error {
	if len(shapes) == 0 {
		return ErrEmptyBatch
	}
	for i, shape := range shapes {
		if shape == nil {
			return errors.Wrapf(ErrEmptyBatch, "shape %d is nil", i)
		}
	}
	landmarks := shapes[0].Len()
	if landmarks < MinLandmarks {
		return errors.Wrapf(ErrTooFewLandmarks, "got %d, need at least %d", landmarks, MinLandmarks)
	}
	for i, shape := range shapes {
		if shape.Len() != landmarks {
			return errors.Wrapf(ErrShapeCardinalityMismatch, "shape %d has %d landmarks, shape 0 has %d", i, shape.Len(), landmarks)
		}
	}
	for i, shape := range shapes {
		if shape.centeredNorm() == 0 {
			return errors.Wrapf(ErrDegenerateShape, "shape %d (%s) has coincident landmarks", i, shape.id)
		}
	}
	return nil
}
